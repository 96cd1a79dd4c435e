package chatsvc

import (
	"context"

	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SendDirect stores an unread message from sender to recipient and notifies
// the recipient.
func (s *Service) SendDirect(ctx context.Context, sender auth.Identity, recipient primitive.ObjectID, raw string) (models.DirectMessage, error) {
	if recipient.IsZero() {
		return models.DirectMessage{}, apperr.Validation("A recipient is required.")
	}
	body, err := cleanBody(raw)
	if err != nil {
		return models.DirectMessage{}, err
	}

	ok, err := s.users.Exists(ctx, recipient)
	if err != nil {
		return models.DirectMessage{}, apperr.Server("Failed to look up recipient.", err)
	}
	if !ok {
		return models.DirectMessage{}, apperr.NotFound("Recipient not found.")
	}

	m, err := s.dms.Insert(ctx, sender.ID, recipient, body)
	if err != nil {
		return models.DirectMessage{}, apperr.Server("Failed to send message.", err)
	}

	from := sender.ID
	s.notify.Notify(ctx, recipient, notifysvc.Notice{
		Type:    models.NotifMessage,
		Title:   "New message from " + sender.Name,
		Message: preview(body),
		Link:    "/chat?user=" + sender.ID.Hex(),
		Sender:  &from,
	})
	return m, nil
}

// SendGroup posts a message to a group the sender belongs to.
func (s *Service) SendGroup(ctx context.Context, sender auth.Identity, groupID primitive.ObjectID, raw string) (models.GroupMessage, error) {
	body, err := cleanBody(raw)
	if err != nil {
		return models.GroupMessage{}, err
	}
	if _, err := s.memberGroup(ctx, sender.ID, groupID); err != nil {
		return models.GroupMessage{}, err
	}
	m, err := s.gmsgs.Insert(ctx, groupID, sender.ID, body)
	if err != nil {
		return models.GroupMessage{}, apperr.Server("Failed to send message.", err)
	}
	return m, nil
}

// ListThread marks everything peer sent to user as read, then returns the
// two-way conversation oldest first.
func (s *Service) ListThread(ctx context.Context, user, peer primitive.ObjectID) ([]models.DirectMessage, error) {
	if peer.IsZero() {
		return nil, apperr.Validation("A recipient is required.")
	}
	if _, err := s.dms.MarkThreadRead(ctx, user, peer); err != nil {
		return nil, apperr.Server("Failed to update read state.", err)
	}
	msgs, err := s.dms.Thread(ctx, user, peer)
	if err != nil {
		return nil, apperr.Server("Failed to load messages.", err)
	}
	return msgs, nil
}

// ListGroupThread marks the group read for user and returns its messages
// oldest first.
func (s *Service) ListGroupThread(ctx context.Context, user, groupID primitive.ObjectID) ([]models.GroupMessage, error) {
	if _, err := s.memberGroup(ctx, user, groupID); err != nil {
		return nil, err
	}
	if _, err := s.gmsgs.MarkGroupRead(ctx, groupID, user); err != nil {
		return nil, apperr.Server("Failed to update read state.", err)
	}
	msgs, err := s.gmsgs.Thread(ctx, groupID)
	if err != nil {
		return nil, apperr.Server("Failed to load messages.", err)
	}
	return msgs, nil
}

// memberGroup loads groupID and checks that user belongs to it.
func (s *Service) memberGroup(ctx context.Context, user, groupID primitive.ObjectID) (models.ChatGroup, error) {
	if groupID.IsZero() {
		return models.ChatGroup{}, apperr.Validation("A group is required.")
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if isNoDoc(err) {
		return models.ChatGroup{}, apperr.NotFound("Group not found.")
	}
	if err != nil {
		return models.ChatGroup{}, apperr.Server("Failed to load group.", err)
	}
	if !g.HasMember(user) {
		return models.ChatGroup{}, apperr.Forbidden("You are not a member of this group.")
	}
	return g, nil
}

// Patch is a partial message update. Delete wins when both are set.
type Patch struct {
	Message   *string
	IsDeleted *bool
}

func (p Patch) deletes() bool { return p.IsDeleted != nil && *p.IsDeleted }

// EditOrDelete edits or soft-deletes a direct or group message owned by
// user. It returns the resulting models.DirectMessage or models.GroupMessage.
// Deleting an already deleted message returns it unchanged.
func (s *Service) EditOrDelete(ctx context.Context, user, messageID primitive.ObjectID, p Patch) (any, error) {
	if !p.deletes() && p.Message == nil {
		return nil, apperr.Validation("Nothing to update.")
	}
	var body string
	if !p.deletes() {
		b, err := cleanBody(*p.Message)
		if err != nil {
			return nil, err
		}
		body = b
	}

	dm, err := s.dms.GetByID(ctx, messageID)
	if err == nil {
		return s.patchDirect(ctx, user, dm, p, body)
	}
	if !isNoDoc(err) {
		return nil, apperr.Server("Failed to load message.", err)
	}

	gm, err := s.gmsgs.GetByID(ctx, messageID)
	if isNoDoc(err) {
		return nil, apperr.NotFound("Message not found.")
	}
	if err != nil {
		return nil, apperr.Server("Failed to load message.", err)
	}
	return s.patchGroup(ctx, user, gm, p, body)
}

func (s *Service) patchDirect(ctx context.Context, user primitive.ObjectID, m models.DirectMessage, p Patch, body string) (models.DirectMessage, error) {
	if m.Sender != user {
		return models.DirectMessage{}, apperr.Forbidden("You can only change your own messages.")
	}
	if p.deletes() {
		if m.IsDeleted {
			return m, nil
		}
		out, err := s.dms.SoftDelete(ctx, m.ID, user)
		if isNoDoc(err) {
			// lost a race with another delete
			return s.reloadDirect(ctx, m.ID)
		}
		if err != nil {
			return models.DirectMessage{}, apperr.Server("Failed to delete message.", err)
		}
		return out, nil
	}

	if m.IsDeleted {
		return models.DirectMessage{}, apperr.InvalidState("Cannot edit a deleted message.")
	}
	out, err := s.dms.Edit(ctx, m.ID, user, body)
	if isNoDoc(err) {
		return models.DirectMessage{}, apperr.InvalidState("Cannot edit a deleted message.")
	}
	if err != nil {
		return models.DirectMessage{}, apperr.Server("Failed to edit message.", err)
	}
	return out, nil
}

func (s *Service) reloadDirect(ctx context.Context, id primitive.ObjectID) (models.DirectMessage, error) {
	m, err := s.dms.GetByID(ctx, id)
	if isNoDoc(err) {
		return models.DirectMessage{}, apperr.NotFound("Message not found.")
	}
	if err != nil {
		return models.DirectMessage{}, apperr.Server("Failed to load message.", err)
	}
	return m, nil
}

func (s *Service) patchGroup(ctx context.Context, user primitive.ObjectID, m models.GroupMessage, p Patch, body string) (models.GroupMessage, error) {
	if m.Sender != user {
		return models.GroupMessage{}, apperr.Forbidden("You can only change your own messages.")
	}
	if p.deletes() {
		if m.IsDeleted {
			return m, nil
		}
		out, err := s.gmsgs.SoftDelete(ctx, m.ID, user)
		if isNoDoc(err) {
			return s.reloadGroup(ctx, m.ID)
		}
		if err != nil {
			return models.GroupMessage{}, apperr.Server("Failed to delete message.", err)
		}
		return out, nil
	}

	if m.IsDeleted {
		return models.GroupMessage{}, apperr.InvalidState("Cannot edit a deleted message.")
	}
	out, err := s.gmsgs.Edit(ctx, m.ID, user, body)
	if isNoDoc(err) {
		return models.GroupMessage{}, apperr.InvalidState("Cannot edit a deleted message.")
	}
	if err != nil {
		return models.GroupMessage{}, apperr.Server("Failed to edit message.", err)
	}
	return out, nil
}

func (s *Service) reloadGroup(ctx context.Context, id primitive.ObjectID) (models.GroupMessage, error) {
	m, err := s.gmsgs.GetByID(ctx, id)
	if isNoDoc(err) {
		return models.GroupMessage{}, apperr.NotFound("Message not found.")
	}
	if err != nil {
		return models.GroupMessage{}, apperr.Server("Failed to load message.", err)
	}
	return m, nil
}

// MessagesForUser returns the direct messages sent or received by userID,
// newest first, for moderation.
func (s *Service) MessagesForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.DirectMessage, error) {
	if userID.IsZero() {
		return nil, apperr.Validation("A user id is required.")
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	msgs, err := s.dms.ListForUser(ctx, userID, limit)
	if err != nil {
		s.log.Error("moderation message list failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, apperr.Server("Failed to load messages.", err)
	}
	return msgs, nil
}
