// Package coordtest builds a fully wired, in-memory Coordinator for
// tests: a small catalog, a fake worker per fragment that never
// touches a real backend, and the constructor glue the router needs,
// in the same spirit as the teacher's sinktest/base and sinktest/all
// fixtures.
package coordtest

import (
	"context"
	"sync"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/handle"
	"github.com/K0n4ta13/tesebada/internal/router"
	"github.com/K0n4ta13/tesebada/internal/schema"
	"github.com/K0n4ta13/tesebada/internal/stopper"
)

// FakeBackend is an in-memory stand-in for a backend worker. It
// records every committed write and lets tests script a canned Select
// result, a translation/execution failure, or a hang (to exercise the
// router's timeout path).
type FakeBackend struct {
	mu        sync.Mutex
	Fragment  *schema.Fragment
	SelectRow [][]ast.Value
	Fail      bool
	Hang      bool
	Committed []ast.Query
	Rolled    int
	Inbox     chan handle.Message
}

// NewFakeBackend creates a backend for fragment and starts its worker
// loop under ctx.
func NewFakeBackend(ctx *stopper.Context, fragment *schema.Fragment) *FakeBackend {
	b := &FakeBackend{Fragment: fragment, Inbox: make(chan handle.Message)}
	ctx.Go(func() error {
		b.run(ctx)
		return nil
	})
	return b
}

// Handle returns the handle.Handle the router dispatches through.
func (b *FakeBackend) Handle() handle.Handle {
	return handle.Handle{Inbox: b.Inbox, Zone: b.Fragment.Zone, Table: b.Fragment.Name}
}

func (b *FakeBackend) run(ctx *stopper.Context) {
	for {
		select {
		case msg, ok := <-b.Inbox:
			if !ok {
				return
			}
			b.process(ctx, msg)
		case <-ctx.Stopping():
			return
		}
	}
}

func (b *FakeBackend) process(ctx context.Context, msg handle.Message) {
	b.mu.Lock()
	hang, fail := b.Hang, b.Fail
	b.mu.Unlock()

	if hang {
		<-ctx.Done()
		close(msg.Result)
		return
	}
	if fail {
		close(msg.Result)
		return
	}

	var result ast.Result
	if msg.Query.Kind == ast.KindSelect {
		result = ast.Result{Kind: ast.KindSelect, Rows: b.SelectRow}
	} else {
		result = ast.Result{Kind: msg.Query.Kind, N: int64(len(msg.Query.Values))}
	}

	msg.Result <- result
	close(msg.Result)

	select {
	case _, ok := <-msg.Commit:
		if !ok {
			b.mu.Lock()
			b.Rolled++
			b.mu.Unlock()
			return
		}
		b.mu.Lock()
		b.Committed = append(b.Committed, msg.Query)
		b.mu.Unlock()
	case <-ctx.Done():
		b.mu.Lock()
		b.Rolled++
		b.mu.Unlock()
	}
}

// Fixture wires a catalog with fake backends and a Coordinator ready
// to route against them.
type Fixture struct {
	Stopper     *stopper.Context
	Catalog     *schema.Catalog
	Coordinator *router.Coordinator
	Backends    map[string]*FakeBackend // keyed by fragment name
}

// NewFixture builds a Fixture from catalog, spawning one FakeBackend
// per fragment of every table.
func NewFixture(catalog *schema.Catalog) *Fixture {
	stopperCtx := stopper.New(context.Background())

	handles := make(map[*schema.Fragment]handle.Handle)
	backends := make(map[string]*FakeBackend)

	for _, table := range catalog.Tables {
		for _, fragment := range table.Fragments {
			b := NewFakeBackend(stopperCtx, fragment)
			handles[fragment] = b.Handle()
			backends[fragment.Name] = b
		}
	}

	return &Fixture{
		Stopper:     stopperCtx,
		Catalog:     catalog,
		Coordinator: router.New(catalog, handles),
		Backends:    backends,
	}
}

// Close stops every fake backend's goroutine.
func (f *Fixture) Close() {
	_ = f.Stopper.Stop()
}
