package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/hypervec/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.GetItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.PutItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.DeleteItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func pk(in map[string]types.AttributeValue) string {
	if s, ok := in[attrKey].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func TestStore_Get(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "hypervec", "tenant-a/")

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return pk(in.Key) == "tenant-a/missing" && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{}, nil).Once()
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return pk(in.Key) == "tenant-a/anchors"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrKey:   &types.AttributeValueMemberS{Value: "tenant-a/anchors"},
		attrValue: &types.AttributeValueMemberB{Value: []byte("data")},
	}}, nil).Once()
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return pk(in.Key) == "tenant-a/bad"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrValue: &types.AttributeValueMemberS{Value: "not binary"},
	}}, nil).Once()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	got, err := store.Get(context.Background(), "anchors")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	_, err = store.Get(context.Background(), "bad")
	assert.Error(t, err)

	client.AssertExpectations(t)
}

func TestStore_SetAndDelete(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "hypervec", "")

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		b, ok := in.Item[attrValue].(*types.AttributeValueMemberB)
		return *in.TableName == "hypervec" && pk(in.Item) == "profile/1" && ok && string(b.Value) == "v"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()
	client.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()

	require.NoError(t, store.Set(context.Background(), "profile/1", []byte("v")))
	assert.ErrorContains(t, store.Delete(context.Background(), "profile/1"), "throttled")
	client.AssertExpectations(t)
}
