// Package idalloc implements the coordinator's process-wide synthetic
// primary key counter: a single atomic uint64, file-backed only at
// process start and process shutdown.
package idalloc

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Allocator hands out monotonically increasing ids with a single atomic
// fetch-and-add. It has no internal locking beyond that: concurrent
// callers never observe the same id.
type Allocator struct {
	next atomic.Uint64
}

// Load reads the next-id value from path. A missing or unparsable file
// is not an error: the counter starts from 1, matching the reference
// implementation's fallback.
func Load(path string) (*Allocator, error) {
	a := &Allocator{}

	contents, err := os.ReadFile(path)
	switch {
	case err == nil:
		v, parseErr := strconv.ParseUint(strings.TrimSpace(string(contents)), 10, 64)
		if parseErr != nil {
			log.WithField("path", path).Warn("id file unparsable, starting from 1")
			v = 1
		}
		a.next.Store(v)
	case os.IsNotExist(err):
		a.next.Store(1)
	default:
		return nil, errors.Wrap(err, "could not read id file")
	}

	return a, nil
}

// Next atomically allocates and returns the next id.
func (a *Allocator) Next() uint64 {
	return a.next.Add(1) - 1
}

// Save writes the current counter value back to path as a single ASCII
// line. If this fails, a future process run may reuse ids; that risk
// is accepted per spec.md §4.6.
func (a *Allocator) Save(path string) error {
	value := a.next.Load()
	if err := os.WriteFile(path, []byte(strconv.FormatUint(value, 10)+"\n"), 0o644); err != nil {
		return errors.Wrap(err, "could not save id file")
	}
	return nil
}
