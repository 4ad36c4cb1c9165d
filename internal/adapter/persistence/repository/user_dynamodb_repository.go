package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/database"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultUsersTableName = "users"

type userItem struct {
	ID           string `dynamodbav:"id"`
	Email        string `dynamodbav:"email"`
	Name         string `dynamodbav:"name"`
	PasswordHash string `dynamodbav:"password_hash"`
	Role         string `dynamodbav:"role"`
	IsActive     bool   `dynamodbav:"is_active"`
	CreatedAt    string `dynamodbav:"created_at"`
	UpdatedAt    string `dynamodbav:"updated_at"`
}

// UserDynamoRepository persists User entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: email-index (PK: email)
type UserDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
	now       func() time.Time
}

var _ interfaces.IUserRepository = (*UserDynamoRepository)(nil)

func NewUserDynamoRepository(ddb *dynamodb.Client, tableName string) *UserDynamoRepository {
	return newUserRepository(ddb, tableName)
}

func newUserRepository(ddb dynamoAPI, tableName string) *UserDynamoRepository {
	return &UserDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, defaultUsersTableName),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *UserDynamoRepository) Create(ctx context.Context, u entities.User) (entities.User, error) {
	av, err := attributevalue.MarshalMap(toUserItem(u))
	if err != nil {
		return entities.User{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.User{}, err
	}
	return u, nil
}

func (r *UserDynamoRepository) GetByID(ctx context.Context, id string) (entities.User, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.User{}, err
	}
	if len(out.Item) == 0 {
		return entities.User{}, nil
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) GetByEmail(ctx context.Context, email string) (entities.User, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(database.UsersEmailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.User{}, err
	}
	if len(out.Items) == 0 {
		return entities.User{}, nil
	}

	var it userItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) List(ctx context.Context) ([]entities.User, error) {
	p := dynamodb.NewScanPaginator(r.ddb, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})

	users := make([]entities.User, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it userItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			users = append(users, fromUserItem(it))
		}
	}
	return users, nil
}

func (r *UserDynamoRepository) Update(ctx context.Context, id string, patch entities.UserPatch) (entities.User, error) {
	sets := "SET #updated_at = :updated_at"
	vals := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: r.now().Format(time.RFC3339Nano)},
	}
	names := map[string]string{"#updated_at": "updated_at"}
	set := func(field string, v types.AttributeValue) {
		sets += ", #" + field + " = :" + field
		vals[":"+field] = v
		names["#"+field] = field
	}

	if patch.Email != nil {
		set("email", &types.AttributeValueMemberS{Value: *patch.Email})
	}
	if patch.Name != nil {
		set("name", &types.AttributeValueMemberS{Value: *patch.Name})
	}
	if patch.PasswordHash != nil {
		set("password_hash", &types.AttributeValueMemberS{Value: *patch.PasswordHash})
	}
	if patch.Role != nil {
		set("role", &types.AttributeValueMemberS{Value: string(*patch.Role)})
	}
	if patch.IsActive != nil {
		set("is_active", &types.AttributeValueMemberBOOL{Value: *patch.IsActive})
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		UpdateExpression:          aws.String(sets),
		ExpressionAttributeValues: vals,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.User{}, nil
		}
		return entities.User{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.User{}, nil
	}
	var it userItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.User{}, err
	}
	return fromUserItem(it), nil
}

func (r *UserDynamoRepository) Delete(ctx context.Context, id string) (bool, error) {
	out, err := r.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, err
	}
	return len(out.Attributes) > 0, nil
}

func toUserItem(u entities.User) userItem {
	return userItem{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
}

func fromUserItem(it userItem) entities.User {
	return entities.User{
		ID:           it.ID,
		Email:        it.Email,
		Name:         it.Name,
		PasswordHash: it.PasswordHash,
		Role:         entities.Role(it.Role),
		IsActive:     it.IsActive,
		CreatedAt:    parseTime(it.CreatedAt),
		UpdatedAt:    parseTime(it.UpdatedAt),
	}
}
