// Package mongostore runs one single-goroutine worker per document
// fragment, session-scoping every write in a Mongo transaction held
// open across the router's two-phase commit handshake. Reads never
// open a session, matching the reference implementation: only
// Insert/Update/Delete wrap a transaction there.
package mongostore

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/dialect/document"
	"github.com/K0n4ta13/tesebada/internal/handle"
	"github.com/K0n4ta13/tesebada/internal/metrics"
	"github.com/K0n4ta13/tesebada/internal/schema"
	"github.com/K0n4ta13/tesebada/internal/stopper"
)

// Worker owns one database handle for one fragment.
type Worker struct {
	DB         *mongo.Database
	Client     *mongo.Client
	Fragment   *schema.Fragment
	Translator document.Translator
	Inbox      chan handle.Message
}

// New allocates a Worker and starts draining its inbox under ctx.
func New(ctx *stopper.Context, client *mongo.Client, db *mongo.Database, fragment *schema.Fragment, translator document.Translator) handle.Handle {
	w := &Worker{
		DB:         db,
		Client:     client,
		Fragment:   fragment,
		Translator: translator,
		Inbox:      make(chan handle.Message),
	}

	ctx.Go(func() error {
		w.run(ctx)
		return nil
	})

	return handle.Handle{Inbox: w.Inbox, Zone: fragment.Zone, Table: fragment.Name}
}

func (w *Worker) run(ctx *stopper.Context) {
	for {
		select {
		case msg, ok := <-w.Inbox:
			if !ok {
				return
			}
			w.process(ctx, msg)
		case <-ctx.Stopping():
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, msg handle.Message) {
	log.WithField("fragment", w.Fragment.Name).Trace("received query")
	kind := msg.Query.Kind.String()

	translateTimer := metrics.StartTranslateTimer(kind)
	form, err := w.Translator.Translate(msg.Query, w.Fragment)
	translateTimer.ObserveDuration()
	if err != nil {
		metrics.TranslateErrors(kind)
		log.WithError(err).Warn("failed to translate query")
		close(msg.Result)
		return
	}

	if msg.Query.Kind == ast.KindSelect {
		executeTimer := metrics.StartExecuteTimer(kind)
		result, err := document.Execute(ctx, w.DB, w.Fragment.Name, w.Fragment, form)
		executeTimer.ObserveDuration()
		if err != nil {
			metrics.ExecuteErrors(kind)
			log.WithError(err).Warn("failed to execute query")
			close(msg.Result)
			return
		}
		msg.Result <- result
		close(msg.Result)
		return
	}

	session, err := w.Client.StartSession()
	if err != nil {
		log.WithError(errors.WithStack(err)).Warn("failed to start session")
		close(msg.Result)
		return
	}
	defer session.EndSession(ctx)

	if err := session.StartTransaction(); err != nil {
		log.WithError(errors.WithStack(err)).Warn("failed to start transaction")
		close(msg.Result)
		return
	}

	var result ast.Result
	executeTimer := metrics.StartExecuteTimer(kind)
	err = mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
		var execErr error
		result, execErr = document.Execute(sessCtx, w.DB, w.Fragment.Name, w.Fragment, form)
		return execErr
	})
	executeTimer.ObserveDuration()
	if err != nil {
		metrics.ExecuteErrors(kind)
		log.WithError(err).Warn("failed to execute query")
		_ = session.AbortTransaction(ctx)
		close(msg.Result)
		return
	}

	msg.Result <- result
	close(msg.Result)

	w.awaitCommit(ctx, session, msg)
}

// awaitCommit blocks on msg.Commit. A closed channel (the router
// closed it without sending) drives an abort; this mirrors the
// relational worker's handshake exactly. SELECT never reaches it.
func (w *Worker) awaitCommit(ctx context.Context, session mongo.Session, msg handle.Message) {
	select {
	case _, ok := <-msg.Commit:
		if !ok {
			if err := session.AbortTransaction(ctx); err != nil {
				log.WithError(errors.WithStack(err)).Warn("transaction aborted")
			}
			return
		}
		if err := session.CommitTransaction(ctx); err != nil {
			log.WithError(errors.WithStack(err)).Warn("failed to commit transaction")
		}
	case <-ctx.Done():
		if err := session.AbortTransaction(ctx); err != nil {
			log.WithError(errors.WithStack(err)).Warn("transaction aborted")
		}
	}
}
