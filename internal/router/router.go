// Package router implements the Coordinator: the component that turns
// one validated ast.Query into a set of participant fragments, fans it
// out to their workers, and runs the two-phase commit handshake that
// decides whether their transactions land or roll back together.
package router

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/handle"
	"github.com/K0n4ta13/tesebada/internal/metrics"
	"github.com/K0n4ta13/tesebada/internal/schema"
	"github.com/K0n4ta13/tesebada/internal/zonemap"
)

// DefaultTimeout is the per-participant result wait enforced during
// the handshake, matching the reference implementation's five-second
// recv_timeout.
const DefaultTimeout = 5 * time.Second

// Coordinator fans a query out across a table's fragments and runs the
// commit handshake. It holds no query state between calls: Execute is
// safe to call concurrently from multiple REPL sessions.
type Coordinator struct {
	Catalog *schema.Catalog
	Handles map[*schema.Fragment]handle.Handle
	Timeout time.Duration
}

// New builds a Coordinator. handles must contain an entry for every
// fragment reachable from catalog; Wiring is responsible for that
// invariant.
func New(catalog *schema.Catalog, handles map[*schema.Fragment]handle.Handle) *Coordinator {
	return &Coordinator{Catalog: catalog, Handles: handles, Timeout: DefaultTimeout}
}

// participant pairs a fragment with the exact query it will run; every
// fragment runs the same statement except INSERT, where each fragment
// only receives the rows partitioned into its zone.
type participant struct {
	fragment *schema.Fragment
	query    ast.Query
}

// Execute runs q to completion: it selects participant fragments,
// dispatches the query to each one's worker, waits for every result
// (or times out and aborts), then either commits or rolls back all of
// them together. For a SELECT, this never reaches a commit phase at
// all — every worker's transaction is explicitly rolled back once its
// rows have been read, since a read never needs to persist anything.
func (c *Coordinator) Execute(ctx context.Context, q ast.Query) (ast.Result, error) {
	correlationID := uuid.New()
	log.WithFields(log.Fields{"correlation_id": correlationID, "table": q.Table, "kind": q.Kind}).
		Trace("routing query")

	table, ok := c.Catalog.Tables[q.Table]
	if !ok {
		return ast.Result{}, errors.Errorf("table %q not found", q.Table)
	}

	participants, err := c.planParticipants(q, table)
	if err != nil {
		return ast.Result{}, err
	}

	timer := metrics.StartRouterTimer(q.Kind.String())
	defer timer.ObserveDuration()

	results, commits, err := c.dispatch(ctx, correlationID, participants)
	if err != nil {
		abortAll(commits)
		metrics.RouterAborts.WithLabelValues(q.Kind.String()).Inc()
		return ast.Result{}, err
	}

	if q.Kind == ast.KindSelect {
		abortAll(commits)
		metrics.RouterAborts.WithLabelValues(q.Kind.String()).Inc()
	} else {
		commitAll(commits)
	}

	return aggregate(q.Kind, results), nil
}

func (c *Coordinator) planParticipants(q ast.Query, table *schema.Table) ([]participant, error) {
	switch q.Kind {
	case ast.KindInsert:
		return c.planInsert(q, table)
	default:
		fragments, err := c.selectFragments(q, table)
		if err != nil {
			return nil, err
		}
		participants := make([]participant, len(fragments))
		for i, f := range fragments {
			participants[i] = participant{fragment: f, query: q}
		}
		return participants, nil
	}
}

// planInsert partitions INSERT rows by the Estado column into
// Norte/Centro/Sur buckets, then hands every fragment of the table its
// own bucket — including an empty one, so every zone's backend
// participates in the same commit handshake regardless of whether it
// received any rows, exactly as the reference implementation does.
func (c *Coordinator) planInsert(q ast.Query, table *schema.Table) ([]participant, error) {
	stateIdx := -1
	for i, col := range q.Columns {
		if col == zonemap.EstadoColumn {
			stateIdx = i
			break
		}
	}
	if stateIdx < 0 {
		return nil, errors.Errorf("INSERT must supply %s to partition rows by zone", zonemap.EstadoColumn)
	}

	buckets := map[schema.Zone][][]string{
		schema.ZoneNorte:  nil,
		schema.ZoneCentro: nil,
		schema.ZoneSur:    nil,
	}
	for _, row := range q.Values {
		state := row[stateIdx]
		zone, ok := zonemap.Lookup(state)
		if !ok {
			return nil, errors.Errorf("unknown state %q", state)
		}
		buckets[zone] = append(buckets[zone], row)
	}

	participants := make([]participant, 0, len(table.Fragments))
	for _, f := range table.Fragments {
		rowQuery := q
		rowQuery.Values = buckets[f.Zone]
		participants = append(participants, participant{fragment: f, query: rowQuery})
	}
	return participants, nil
}

// selectFragments picks which fragments of table participate in a
// SELECT/UPDATE/DELETE. Priority, highest first: an explicit ZONE
// clause; an implicit Estado equality filter; otherwise every
// fragment (broadcast).
func (c *Coordinator) selectFragments(q ast.Query, table *schema.Table) ([]*schema.Fragment, error) {
	if len(q.Zones) > 0 {
		wanted := make(map[string]struct{}, len(q.Zones))
		for _, z := range q.Zones {
			wanted[z] = struct{}{}
		}
		var fragments []*schema.Fragment
		for _, f := range table.Fragments {
			if _, ok := wanted[string(f.Zone)]; ok {
				fragments = append(fragments, f)
			}
		}
		return fragments, nil
	}

	if q.Filter != nil && q.Filter.Column == zonemap.EstadoColumn && q.Filter.Op == "=" {
		zone, ok := zonemap.Lookup(q.Filter.Value)
		if !ok {
			return nil, errors.Errorf("unknown state %q", q.Filter.Value)
		}
		var fragments []*schema.Fragment
		for _, f := range table.Fragments {
			if f.Zone == zone {
				fragments = append(fragments, f)
			}
		}
		return fragments, nil
	}

	return table.Fragments, nil
}

// dispatch sends every participant its query and collects results,
// each bounded by the Coordinator's timeout. On the first failure it
// returns immediately without waiting on the rest; the caller is
// responsible for aborting every commit channel already opened,
// including ones for participants whose result never arrived.
func (c *Coordinator) dispatch(ctx context.Context, correlationID uuid.UUID, participants []participant) ([]ast.Result, []chan struct{}, error) {
	type pending struct {
		resultCh chan ast.Result
		commitCh chan struct{}
	}

	pendings := make([]pending, len(participants))
	commits := make([]chan struct{}, len(participants))

	for i, p := range participants {
		resultCh := make(chan ast.Result, 1)
		commitCh := make(chan struct{})
		pendings[i] = pending{resultCh: resultCh, commitCh: commitCh}
		commits[i] = commitCh

		h, ok := c.Handles[p.fragment]
		if !ok {
			return nil, commits, errors.Errorf("no worker registered for fragment %q", p.fragment.Name)
		}

		msg := handle.Message{Query: p.query, Result: resultCh, Commit: commitCh}
		if err := handle.Send(ctx, h, msg); err != nil {
			return nil, commits, errors.Wrap(err, "failed to dispatch to worker")
		}
	}

	results := make([]ast.Result, 0, len(pendings))
	for i, p := range pendings {
		waitCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		select {
		case res, ok := <-p.resultCh:
			cancel()
			if !ok {
				log.WithField("correlation_id", correlationID).Warn("failed to execute, query canceled")
				return nil, commits, errors.New("failed to execute, query canceled")
			}
			results = append(results, res)
		case <-waitCtx.Done():
			cancel()
			log.WithFields(log.Fields{
				"correlation_id": correlationID,
				"fragment":       participants[i].fragment.Name,
			}).Warn("timeout, query canceled")
			return nil, commits, errors.New("timeout, query canceled")
		}
	}

	return results, commits, nil
}

// abortAll closes every commit channel opened so far. commits may carry
// nil entries for participants dispatch never reached before failing
// (a missing handle, or Send failing on a canceled ctx); those are
// skipped rather than passed to close, which panics on a nil channel.
func abortAll(commits []chan struct{}) {
	for _, c := range commits {
		if c == nil {
			continue
		}
		close(c)
	}
}

func commitAll(commits []chan struct{}) {
	for _, c := range commits {
		if c == nil {
			continue
		}
		c <- struct{}{}
		close(c)
	}
}

func aggregate(kind ast.Kind, results []ast.Result) ast.Result {
	if kind == ast.KindSelect {
		var rows [][]ast.Value
		for _, r := range results {
			rows = append(rows, r.Rows...)
		}
		return ast.Result{Kind: ast.KindSelect, Rows: rows}
	}

	var total int64
	for _, r := range results {
		total += r.N
	}
	return ast.Result{Kind: kind, N: total}
}
