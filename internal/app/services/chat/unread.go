package chatsvc

import (
	"context"

	groupstore "github.com/dalemusser/clubhub/internal/app/store/groups"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Unread is the unread message count for one user.
type Unread struct {
	Total  int64 `json:"count"`
	Direct int64 `json:"direct"`
	Groups int64 `json:"groups"`
}

// UnreadCount counts unread direct and group messages for user. Any failing
// sub-query yields all zeros.
func (s *Service) UnreadCount(ctx context.Context, user primitive.ObjectID) Unread {
	direct, err := s.dms.CountUnread(ctx, user)
	if err != nil {
		s.log.Warn("unread count: direct query failed", zap.String("user_id", user.Hex()), zap.Error(err))
		return Unread{}
	}
	groupIDs, err := s.groups.IDsForMember(ctx, user)
	if err != nil {
		s.log.Warn("unread count: group lookup failed", zap.String("user_id", user.Hex()), zap.Error(err))
		return Unread{}
	}
	groups, err := s.gmsgs.CountUnread(ctx, user, groupIDs)
	if err != nil {
		s.log.Warn("unread count: group query failed", zap.String("user_id", user.Hex()), zap.Error(err))
		return Unread{}
	}
	return Unread{Total: direct + groups, Direct: direct, Groups: groups}
}

// GroupSummaries lists user's groups with unread counts and last activity.
func (s *Service) GroupSummaries(ctx context.Context, user primitive.ObjectID) ([]groupstore.Summary, error) {
	out, err := s.groups.Summaries(ctx, user)
	if err != nil {
		return nil, apperr.Server("Failed to load groups.", err)
	}
	return out, nil
}
