// Package chatsvc implements direct and group conversations: sending and
// reading messages, unread counts, and chat group membership.
//
// Authorization for chat lives here rather than in handlers because every
// rule depends on the stored conversation (sender, members, admins).
package chatsvc

import (
	"errors"
	"unicode/utf8"

	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	dmstore "github.com/dalemusser/clubhub/internal/app/store/directmessages"
	groupmsgstore "github.com/dalemusser/clubhub/internal/app/store/groupmessages"
	groupstore "github.com/dalemusser/clubhub/internal/app/store/groups"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// MaxBodyLen is the longest accepted message body, in characters.
	MaxBodyLen = 5000
	// MaxGroupNameLen is the longest accepted group name, in characters.
	MaxGroupNameLen = 100

	previewLen = 120
)

type Service struct {
	db     *mongo.Database
	users  *userstore.Store
	dms    *dmstore.Store
	groups *groupstore.Store
	gmsgs  *groupmsgstore.Store
	notify *notifysvc.Service
	log    *zap.Logger
}

func New(db *mongo.Database, notify *notifysvc.Service, log *zap.Logger) *Service {
	return &Service{
		db:     db,
		users:  userstore.New(db),
		dms:    dmstore.New(db),
		groups: groupstore.New(db),
		gmsgs:  groupmsgstore.New(db),
		notify: notify,
		log:    log,
	}
}

func isNoDoc(err error) bool { return errors.Is(err, mongo.ErrNoDocuments) }

// cleanBody sanitises a message body and enforces presence and length.
func cleanBody(raw string) (string, error) {
	body := htmlsanitize.PlainText(raw)
	if body == "" {
		return "", apperr.Validation("Message cannot be empty.")
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return "", apperr.Validation("Message is too long.")
	}
	return body, nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLen {
		return body
	}
	r := []rune(body)
	return string(r[:previewLen]) + "…"
}

// dedupe returns ids without duplicates or zero ids, keeping first-seen order.
func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
