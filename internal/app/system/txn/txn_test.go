package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("group not found"), false},
		{"illegal operation code", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"no replication code", mongo.CommandError{Code: 51, Message: "no replication enabled"}, true},
		{"operation not supported in transaction", mongo.CommandError{Code: 263, Message: "Cannot run 'create' in a multi-document transaction"}, true},
		{"write conflict", mongo.CommandError{Code: 112, Message: "WriteConflict error: this operation conflicted with another operation"}, false},
		{"standalone message", errors.New("Transaction numbers are only allowed on a REPLICA SET member"), true},
		{"sessions unsupported", errors.New("sessions are not supported by this deployment"), true},
		{"aborted transaction in session", errors.New("transaction 3 was aborted on session a1b2: group admin missing"), false},
		{"illegal state wording", errors.New("illegal operation: delete of chat group in progress"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_DoesNotReplayFailedWork(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("transaction aborted in session while removing group messages")
	calls := 0
	err := Run(ctx, db, nil, func(ctx context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
}

func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := Run(ctx, db, nil, func(ctx context.Context) error {
		_, err := db.Collection("chat_groups").InsertOne(ctx, map[string]string{"name": "Board"})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	n, err := db.Collection("chat_groups").CountDocuments(ctx, map[string]string{"name": "Board"})
	if err != nil || n != 1 {
		t.Errorf("count = %d, %v; want 1", n, err)
	}
}
