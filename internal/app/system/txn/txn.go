// Package txn runs multi-document writes in a MongoDB transaction, falling
// back to sequential execution on deployments without replica sets.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction when the server supports one.
// When the deployment rejects transactions (standalone mongod), fn runs
// again without a session context and the fallback is logged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runFallback(ctx, log, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runFallback(ctx, log, fn)
	}
	return err
}

func runFallback(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log != nil {
		log.Debug("transactions not supported, running sequentially")
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the server cannot run
// transactions or sessions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, multi-doc txn unsupported
			return true
		}
	}

	// Only the deployment-level phrases count; an aborted transaction
	// must not be replayed outside one.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "replica set") || strings.Contains(msg, "not supported")
}
