package interfaces

import "github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

// ITokenManager issues and checks bearer tokens.
type ITokenManager interface {
	Generate(u entities.User) (string, error)
	Validate(token string) (entities.Identity, error)
}

// IPasswordHasher hashes and verifies passwords.
type IPasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}
