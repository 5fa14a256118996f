// Package cartstore provides the durable slots a cart is persisted into.
package cartstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
)

// DynamoSlot stores each cart as one item in a DynamoDB table keyed by cart_id.
type DynamoSlot struct {
	client    aws.DynamoDBAPI
	tableName string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewDynamoSlot returns a slot bound to tableName. A zero ttl disables expiry.
func NewDynamoSlot(client aws.DynamoDBAPI, tableName string, ttl time.Duration) *DynamoSlot {
	return &DynamoSlot{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

// Load returns the serialized cart, or cart.ErrSlotEmpty when no item exists
// or the item is past its expires_at.
func (s *DynamoSlot) Load(ctx context.Context, cartID string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key(cartID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, cart.ErrSlotEmpty
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cart record: %w", err)
	}
	// DynamoDB removes expired items lazily; treat them as gone.
	if rec.ExpiresAt != 0 && rec.ExpiresAt <= s.nowFunc().Unix() {
		return nil, cart.ErrSlotEmpty
	}
	return []byte(rec.Items), nil
}

// Save overwrites the whole cart. Last writer wins.
func (s *DynamoSlot) Save(ctx context.Context, cartID string, data []byte) error {
	now := s.nowFunc().UTC()
	rec := Record{
		CartID:    cartID,
		Items:     string(data),
		UpdatedAt: now,
	}
	if s.ttl > 0 {
		rec.ExpiresAt = now.Add(s.ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal cart record: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Delete removes the cart item. Deleting a missing cart succeeds.
func (s *DynamoSlot) Delete(ctx context.Context, cartID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       key(cartID),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func key(cartID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"cart_id": &types.AttributeValueMemberS{Value: cartID},
	}
}
