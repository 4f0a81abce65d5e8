package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	codeWriteConflict         = 112
)

// MongoTransactor runs units of work inside a MongoDB multi-document transaction.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

// WithinTransaction starts a session, runs fn against the session context and
// commits. Unlike Session.WithTransaction it performs no retries of its own;
// write races are returned as transient conflicts for the caller's policy.
func (t *MongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return classifyMongoError(err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	txnOptions := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txnOptions); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = session.AbortTransaction(context.WithoutCancel(sc))
			return err
		}
		// Once the writes are staged the commit is not abandoned with the caller.
		return session.CommitTransaction(context.WithoutCancel(sc))
	})
	return classifyMongoError(err)
}

// classifyMongoError marks driver-reported write races as transient and
// leaves every other error untouched.
func classifyMongoError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		// UnknownTransactionCommitResult is deliberately not retried: the commit
		// may have landed, and a rerun would observe its own writes.
		if serverErr.HasErrorLabel(labelTransientTransaction) || serverErr.HasErrorCode(codeWriteConflict) {
			return apperr.Transient(err)
		}
	}
	return err
}
