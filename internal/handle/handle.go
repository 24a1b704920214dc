// Package handle defines the router-facing view of a backend worker:
// an inbox channel plus the zone it serves. Workers never know about
// each other; the router is the only thing that holds a slice of
// Handles.
package handle

import (
	"context"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

// Message is one query dispatched to a worker, paired with the two
// channels the two-phase handshake needs: Result carries the worker's
// row set or affected-row count back to the router, and Commit is the
// router's go-ahead to finalize the open transaction. The worker never
// sends on Result more than once. If the router closes Commit without
// sending — which is always true for a SELECT, and true for any
// statement the router decides to abort — the worker's blocking
// receive on Commit reports a closed channel and it rolls back.
type Message struct {
	Query  ast.Query
	Result chan<- ast.Result
	Commit <-chan struct{}
}

// Handle is the router's view of one running backend worker. Table is
// the fragment's real table/collection/label name, carried here only
// for logging — the router itself dispatches on Zone alone.
type Handle struct {
	Inbox chan<- Message
	Zone  schema.Zone
	Table string
}

// Send delivers msg to the worker, or returns ctx.Err() if ctx is
// canceled first. The worker's inbox is an unbuffered channel, not a
// queue: a worker processes one statement at a time in FIFO order, and
// Send blocks until the worker has finished whatever statement it is
// already running and receives msg.
func Send(ctx context.Context, h Handle, msg Message) error {
	select {
	case h.Inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
