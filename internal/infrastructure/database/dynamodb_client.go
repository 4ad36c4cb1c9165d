package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	AuditsAuditorIDIndex = "auditor_id-index"
	UsersEmailIndex      = "email-index"
)

// ConnectDynamoDB creates a DynamoDB client. When cfg.Endpoint is set the
// client targets it directly (e.g. http://dynamodb:8000 for local DynamoDB).
func ConnectDynamoDB(ctx context.Context, cfg config.AWSConfig) (*dynamodb.Client, error) {
	awsCfg, err := NewDynamoDBConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamodb config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func NewDynamoDBConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	// Local DynamoDB does not validate credentials, but the AWS SDK requires them.
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
}

// EnsureTables creates the audits and users tables with their GSIs when they
// do not exist yet. Intended for local development.
func EnsureTables(ctx context.Context, ddb *dynamodb.Client, cfg config.AWSConfig) error {
	tables := []*dynamodb.CreateTableInput{
		tableWithIndex(cfg.AuditsTable, "auditor_id", AuditsAuditorIDIndex),
		tableWithIndex(cfg.UsersTable, "email", UsersEmailIndex),
	}
	for _, in := range tables {
		_, err := ddb.CreateTable(ctx, in)
		if err == nil {
			continue
		}
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			continue
		}
		return fmt.Errorf("create table %s: %w", aws.ToString(in.TableName), err)
	}
	return nil
}

func tableWithIndex(name, indexKey, indexName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(indexKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(indexName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(indexKey), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	}
}
