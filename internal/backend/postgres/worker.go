// Package postgres runs one single-goroutine worker per relational
// fragment: it drains an inbox of handle.Message values in FIFO order,
// opening one pgx transaction per statement and holding it open across
// the router's two-phase commit handshake.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/K0n4ta13/tesebada/internal/dialect/relational"
	"github.com/K0n4ta13/tesebada/internal/handle"
	"github.com/K0n4ta13/tesebada/internal/metrics"
	"github.com/K0n4ta13/tesebada/internal/schema"
	"github.com/K0n4ta13/tesebada/internal/stopper"
)

// Worker owns one pgxpool handle for one fragment.
type Worker struct {
	Pool       *pgxpool.Pool
	Fragment   *schema.Fragment
	Translator relational.Translator
	Inbox      chan handle.Message
}

// New allocates a Worker with an unbuffered inbox and starts draining it
// under ctx. The returned handle.Handle is what the router keeps.
func New(ctx *stopper.Context, pool *pgxpool.Pool, fragment *schema.Fragment, translator relational.Translator) handle.Handle {
	w := &Worker{
		Pool:       pool,
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

	tx, err := w.Pool.Begin(ctx)
	if err != nil {
		log.WithError(errors.WithStack(err)).Warn("failed to begin transaction")
		close(msg.Result)
		return
	}

	executeTimer := metrics.StartExecuteTimer(kind)
	result, err := relational.Execute(ctx, tx, msg.Query, w.Fragment, form)
	executeTimer.ObserveDuration()
	if err != nil {
		metrics.ExecuteErrors(kind)
		log.WithError(err).Warn("failed to execute query")
		_ = tx.Rollback(ctx)
		close(msg.Result)
		return
	}

	msg.Result <- result
	close(msg.Result)

	w.awaitCommit(ctx, tx, msg)
}

// awaitCommit blocks on msg.Commit. A SELECT's router never sends on
// it at all, and an aborted write's router drops it without sending;
// in both cases the channel is closed from the router side, and the
// receive below returns its zero value immediately, driving a
// rollback.
func (w *Worker) awaitCommit(ctx context.Context, tx pgx.Tx, msg handle.Message) {
	select {
	case _, ok := <-msg.Commit:
		if !ok {
			if err := tx.Rollback(ctx); err != nil {
				log.WithError(errors.WithStack(err)).Warn("transaction aborted")
			}
			return
		}
		if err := tx.Commit(ctx); err != nil {
			log.WithError(errors.WithStack(err)).Warn("failed to commit transaction")
		}
	case <-ctx.Done():
		if err := tx.Rollback(ctx); err != nil {
			log.WithError(errors.WithStack(err)).Warn("transaction aborted")
		}
	}
}
