// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedMessageBody replaces the body of a soft-deleted message.
const DeletedMessageBody = "This message was deleted"

// DirectMessage is a one-to-one chat message.
// Only the sender may edit or soft-delete it; IsRead flips once, when the
// recipient opens the thread.
type DirectMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Body      string             `bson:"body" json:"message"`
	IsRead    bool               `bson:"is_read" json:"isRead"`
	IsEdited  bool               `bson:"is_edited" json:"isEdited"`
	IsDeleted bool               `bson:"is_deleted" json:"isDeleted"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// GroupMessage is a message posted to a ChatGroup.
//
// ReadBy only grows. A message is unread for user U when U is not in ReadBy
// and U is not the sender.
type GroupMessage struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Group     primitive.ObjectID   `bson:"group" json:"group"`
	Sender    primitive.ObjectID   `bson:"sender" json:"sender"`
	Body      string               `bson:"body" json:"message"`
	ReadBy    []primitive.ObjectID `bson:"read_by" json:"readBy"`
	IsEdited  bool                 `bson:"is_edited" json:"isEdited"`
	IsDeleted bool                 `bson:"is_deleted" json:"isDeleted"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsUnreadFor reports whether the message counts as unread for userID.
func (m GroupMessage) IsUnreadFor(userID primitive.ObjectID) bool {
	if m.Sender == userID {
		return false
	}
	for _, id := range m.ReadBy {
		if id == userID {
			return false
		}
	}
	return true
}
