// Package notifysvc fans notifications out to users.
//
// Every call is best effort. A failed insert or push is logged and
// swallowed so the caller's primary action still succeeds.
package notifysvc

import (
	"context"
	"errors"

	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	notificationstore "github.com/dalemusser/clubhub/internal/app/store/notifications"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/pushbus"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Notice is the content of a notification before it has a recipient.
type Notice struct {
	Type    models.NotificationType
	Title   string
	Message string
	Link    string
	Sender  *primitive.ObjectID
}

type Service struct {
	store *notificationstore.Store
	users *userstore.Store
	clubs *clubstore.Store
	push  pushbus.Sender
	log   *zap.Logger
}

// New builds a Service. A nil push sender disables push delivery.
func New(db *mongo.Database, push pushbus.Sender, log *zap.Logger) *Service {
	if push == nil {
		push = pushbus.Noop{}
	}
	return &Service{
		store: notificationstore.New(db),
		users: userstore.New(db),
		clubs: clubstore.New(db),
		push:  push,
		log:   log,
	}
}

func (s *Service) build(recipient primitive.ObjectID, n Notice) (models.Notification, bool) {
	if !n.Type.Valid() {
		s.log.Warn("notification dropped: unknown type", zap.String("type", string(n.Type)))
		return models.Notification{}, false
	}
	return models.Notification{
		Recipient: recipient,
		Sender:    n.Sender,
		Type:      n.Type,
		Title:     htmlsanitize.PlainText(n.Title),
		Message:   htmlsanitize.PlainText(n.Message),
		Link:      n.Link,
	}, true
}

func (s *Service) deliver(ctx context.Context, n models.Notification) {
	if err := s.push.Push(ctx, n); err != nil {
		s.log.Warn("push delivery failed",
			zap.String("recipient", n.Recipient.Hex()),
			zap.String("notification_id", n.ID.Hex()),
			zap.Error(err))
	}
}

// Notify sends one notification to recipient.
func (s *Service) Notify(ctx context.Context, recipient primitive.ObjectID, n Notice) {
	doc, ok := s.build(recipient, n)
	if !ok {
		return
	}
	saved, err := s.store.Insert(ctx, doc)
	if err != nil {
		s.log.Warn("notification insert failed",
			zap.String("recipient", recipient.Hex()),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return
	}
	s.deliver(ctx, saved)
}

// NotifyMany sends the same notification to each recipient.
func (s *Service) NotifyMany(ctx context.Context, recipients []primitive.ObjectID, n Notice) {
	docs := make([]models.Notification, 0, len(recipients))
	for _, r := range recipients {
		doc, ok := s.build(r, n)
		if !ok {
			return
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return
	}
	saved, err := s.store.InsertMany(ctx, docs)
	if err != nil {
		s.log.Warn("notification fan-out failed",
			zap.Int("recipients", len(docs)),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return
	}
	for _, doc := range saved {
		s.deliver(ctx, doc)
	}
}

// NotifyAdmins sends n to every admin user.
func (s *Service) NotifyAdmins(ctx context.Context, n Notice) {
	ids, err := s.users.AdminIDs(ctx)
	if err != nil {
		s.log.Warn("notify admins: listing admins failed", zap.Error(err))
		return
	}
	s.NotifyMany(ctx, ids, n)
}

// NotifyClubPresident sends n to the president of clubID: the club's chief,
// or failing that a president assigned to the club. Nothing is sent when no
// president resolves or when the president is actor.
func (s *Service) NotifyClubPresident(ctx context.Context, clubID, actor primitive.ObjectID, n Notice) {
	president, err := s.presidentOf(ctx, clubID)
	if err != nil {
		s.log.Warn("notify club president: lookup failed",
			zap.String("club_id", clubID.Hex()), zap.Error(err))
		return
	}
	if president == nil || *president == actor {
		return
	}
	s.Notify(ctx, *president, n)
}

func (s *Service) presidentOf(ctx context.Context, clubID primitive.ObjectID) (*primitive.ObjectID, error) {
	club, err := s.clubs.GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if club.ChiefUserID != nil {
		return club.ChiefUserID, nil
	}
	users, err := s.users.List(ctx, userstore.ListFilter{
		Role:   models.RolePresident,
		Status: models.StatusApproved,
		ClubID: &clubID,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0].ID, nil
}
