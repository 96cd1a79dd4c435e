// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Problems are aggregated so every failing collection is reported at once.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, e := range []struct {
		coll string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"clubs", ensureClubs},
		{"direct_messages", ensureDirectMessages},
		{"chat_groups", ensureChatGroups},
		{"group_messages", ensureGroupMessages},
		{"notifications", ensureNotifications},
		{"polls", ensurePolls},
		{"push_subscriptions", ensurePushSubscriptions},
		{"audit_events", ensureAuditEvents},
	} {
		if err := e.fn(ctx, db); err != nil {
			problems = append(problems, e.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB return IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index. An index with the same keys
// but a different name or uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)))

		ex, found := listIndexes(ctx, coll)[sig]
		if found && boolVal(ex.Unique) == boolVal(unique) && (name == "" || ex.Name == name) {
			log.Debug("reusing existing index")
			continue
		}
		if found {
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
			log.Info("dropped index for recreation", zap.String("old_name", ex.Name))
		}

		_, err := coll.Indexes().CreateOne(ctx, m)
		if isOptionsConflictErr(err) {
			// Keys matched an index we could not see in the listing; retry once
			// after dropping whatever now holds the key pattern.
			if again, ok := listIndexes(ctx, coll)[sig]; ok {
				_, _ = coll.Indexes().DropOne(ctx, again.Name)
				_, err = coll.Indexes().CreateOne(ctx, m)
			}
		}
		if err != nil {
			if isDuplicateKeyErr(err) && boolVal(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// admin listing and NotifyAdmins
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status_id"),
		},
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}},
			Options: options.Index().SetName("idx_users_club"),
		},
	})
}

func ensureClubs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("clubs"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_clubs_slug"),
		},
		// At most one club per chief; clubs without a chief are not indexed.
		{
			Keys: bson.D{{Key: "chief_user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_clubs_chief").
				SetPartialFilterExpression(bson.M{"chief_user_id": bson.M{"$type": "objectId"}}),
		},
	})
}

func ensureDirectMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("direct_messages"), []mongo.IndexModel{
		// unread count
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "is_read", Value: 1}, {Key: "is_deleted", Value: 1}},
			Options: options.Index().SetName("idx_dm_recipient_read_deleted"),
		},
		// thread listing, both directions
		{
			Keys:    bson.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_dm_sender_recipient_created"),
		},
	})
}

func ensureChatGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("chat_groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_chatgroups_members"),
		},
	})
}

func ensureGroupMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_messages"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_created"),
		},
		{
			Keys:    bson.D{{Key: "group", Value: 1}, {Key: "is_deleted", Value: 1}, {Key: "read_by", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_deleted_readby"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_recipient_created"),
		},
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "is_read", Value: 1}},
			Options: options.Index().SetName("idx_notifications_recipient_read"),
		},
	})
}

func ensurePolls(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("polls"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_polls_club_created"),
		},
		{
			Keys:    bson.D{{Key: "is_public", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_polls_public_status"),
		},
	})
}

func ensurePushSubscriptions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("push_subscriptions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_push_endpoint"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_push_user"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_created"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_created"),
		},
	})
}
