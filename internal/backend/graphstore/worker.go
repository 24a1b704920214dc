// Package graphstore runs one single-goroutine worker per graph
// fragment, holding one neo4j explicit transaction open across the
// router's two-phase commit handshake.
package graphstore

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/K0n4ta13/tesebada/internal/dialect/graph"
	"github.com/K0n4ta13/tesebada/internal/handle"
	"github.com/K0n4ta13/tesebada/internal/metrics"
	"github.com/K0n4ta13/tesebada/internal/schema"
	"github.com/K0n4ta13/tesebada/internal/stopper"
)

// Worker owns one neo4j session factory for one fragment.
type Worker struct {
	Driver     neo4j.DriverWithContext
	Fragment   *schema.Fragment
	Translator graph.Translator
	Inbox      chan handle.Message
}

// New allocates a Worker and starts draining its inbox under ctx.
func New(ctx *stopper.Context, driver neo4j.DriverWithContext, fragment *schema.Fragment, translator graph.Translator) handle.Handle {
	w := &Worker{
		Driver:     driver,
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

	session := w.Driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		log.WithError(errors.WithStack(err)).Warn("failed to begin transaction")
		close(msg.Result)
		return
	}

	fieldOrder := w.Translator.SelectedFields(msg.Query)
	executeTimer := metrics.StartExecuteTimer(kind)
	result, err := graph.Execute(ctx, tx, msg.Query, w.Fragment, fieldOrder, form)
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

func (w *Worker) awaitCommit(ctx context.Context, tx neo4j.ExplicitTransaction, msg handle.Message) {
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
