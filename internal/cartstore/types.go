package cartstore

import "time"

// Record is the shape persisted in the carts DynamoDB table. Items holds the
// serialized line-item sequence exactly as the cart produced it.
type Record struct {
	CartID    string    `dynamodbav:"cart_id"` // PK
	Items     string    `dynamodbav:"items"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at,omitempty"` // TTL epoch seconds
}
