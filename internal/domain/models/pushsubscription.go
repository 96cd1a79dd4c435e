// internal/domain/models/pushsubscription.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription is a Web Push endpoint registered by a browser.
type PushSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Endpoint  string             `bson:"endpoint" json:"endpoint"`
	P256dh    string             `bson:"p256dh" json:"p256dh"`
	Auth      string             `bson:"auth" json:"auth"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
