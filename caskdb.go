// Package caskdb is an embeddable, append-only, log-structured key/value
// store in the Bitcask family: every write is appended to a segment file,
// an in-memory key directory maps each live key to its most recent
// location on disk, and periodic merges reclaim space consumed by
// overwritten and deleted keys.
//
// caskdb re-exports the core package's public surface at the module root so
// callers import a single package:
//
//	db, err := caskdb.Open("/var/lib/myapp/data", caskdb.WithMaxLogSize(8<<10))
//	if err != nil { ... }
//	defer db.Close()
//
//	if err := db.Set([]byte("k"), []byte("v")); err != nil { ... }
//	v, err := db.Get([]byte("k"))
//
// caskdb performs no internal locking: an embedder sharing an Engine
// across goroutines must serialize every call, reads included (see
// Engine's doc comment in core/engine.go for why).
package caskdb

import (
	"github.com/oklabs/caskdb/core"
	"go.uber.org/zap"
)

// Engine is an open store instance. See core.Engine for the full method
// set: Set, Get, Delete, ListKeys, Fold, Sync, Merge, DiskSize, Close.
type Engine = core.Engine

// Locator identifies a record's location on disk: segment, offset, length,
// and write timestamp.
type Locator = core.Locator

// Option configures an Engine at Open time.
type Option = core.Option

// FoldFunc is invoked once per live key, in first-insertion order, by
// Engine.Fold.
type FoldFunc = core.FoldFunc

// Error is the error type returned by every Engine operation.
type Error = core.Error

// Kind classifies an Error.
type Kind = core.Kind

const (
	KindInvalidArgument = core.KindInvalidArgument
	KindIO              = core.KindIO
	KindNotFound        = core.KindNotFound
	KindInternal        = core.KindInternal
	KindClosed          = core.KindClosed
)

// ErrNotFound is returned by Get for an absent or deleted key.
var ErrNotFound = core.ErrNotFound

// ErrClosed is returned by any operation attempted on an Engine after Close.
var ErrClosed = core.ErrClosed

const (
	MinLogSize     = core.MinLogSize
	MaxLogSize     = core.MaxLogSize
	DefaultLogSize = core.DefaultLogSize
)

// Open opens (or creates) a store rooted at dir.
func Open(dir string, opts ...Option) (*Engine, error) {
	return core.Open(dir, opts...)
}

// WithMaxLogSize overrides the maximum size, in bytes, a segment may reach
// before rollover.
func WithMaxLogSize(n int64) Option {
	return core.WithMaxLogSize(n)
}

// WithLogger overrides the engine's structured logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return core.WithLogger(log)
}
