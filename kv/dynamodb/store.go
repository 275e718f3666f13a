// Package dynamodb provides a kv.Store backed by an Amazon DynamoDB table.
//
// Table schema:
//   - Partition key: pk (string)
//   - Attribute: value (binary)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name hypervec \
//	  --attribute-definitions AttributeName=pk,AttributeType=S \
//	  --key-schema AttributeName=pk,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// DynamoDB items are limited to 400 KB, so large profiles should be wrapped
// in a kv.CompressedStore or kept in S3.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/hypervec/kv"
)

const (
	attrKey   = "pk"
	attrValue = "value"
)

// Client is the subset of the DynamoDB API used by Store.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var (
	_ kv.Store   = (*Store)(nil)
	_ kv.Deleter = (*Store)(nil)
)

// Store implements kv.Store on a DynamoDB table.
type Store struct {
	client    Client
	tableName string
	prefix    string
}

// NewStore creates a DynamoDB store. prefix is prepended to every key so
// several engines can share one table.
func NewStore(client Client, tableName, prefix string) *Store {
	return &Store{client: client, tableName: tableName, prefix: prefix}
}

func (s *Store) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: s.prefix + key},
	}
}

// Get reads the item for key with a consistent read.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return nil, fmt.Errorf("dynamodb: table %q: %w", s.tableName, err)
		}
		return nil, fmt.Errorf("dynamodb: get %q: %w", key, err)
	}
	if len(resp.Item) == 0 {
		return nil, kv.ErrNotFound
	}
	attr, ok := resp.Item[attrValue].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("dynamodb: invalid %s attribute for %q", attrValue, key)
	}
	return attr.Value, nil
}

// Set writes the item for key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	item := s.itemKey(key)
	if value == nil {
		value = []byte{}
	}
	item[attrValue] = &types.AttributeValueMemberB{Value: value}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb: put %q: %w", key, err)
	}
	return nil
}

// Delete removes the item for key. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: delete %q: %w", key, err)
	}
	return nil
}
