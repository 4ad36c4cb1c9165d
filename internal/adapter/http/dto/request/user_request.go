package request

import (
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

func (r RegisterRequest) ToInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{Email: r.Email, Password: r.Password, Name: r.Name}
}

// CreateUserRequest is the admin-side account creation payload.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=admin auditor"`
}

func (r CreateUserRequest) ToInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Role:     entities.Role(r.Role),
	}
}

type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin auditor"`
	IsActive *bool   `json:"is_active"`
}

func (r UpdateUserRequest) ToInput() usecase.UpdateUserInput {
	in := usecase.UpdateUserInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		IsActive: r.IsActive,
	}
	if r.Role != nil {
		role := entities.Role(*r.Role)
		in.Role = &role
	}
	return in
}
