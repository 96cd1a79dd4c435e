// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotifMessage    NotificationType = "message"
	NotifGroupAdded NotificationType = "group_added"
	NotifSubmission NotificationType = "submission"
	NotifModeration NotificationType = "moderation"
	NotifPoll       NotificationType = "poll"
	NotifSystem     NotificationType = "system"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotifMessage, NotifGroupAdded, NotifSubmission, NotifModeration, NotifPoll, NotifSystem:
		return true
	}
	return false
}

// Notification is created once per recipient and only ever mutated to flip
// IsRead.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Sender    *primitive.ObjectID `bson:"sender,omitempty" json:"sender,omitempty"`
	Type      NotificationType    `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Link      string              `bson:"link,omitempty" json:"link,omitempty"`
	IsRead    bool                `bson:"is_read" json:"isRead"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}
