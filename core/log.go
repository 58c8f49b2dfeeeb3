package core

import "go.uber.org/zap"

// newDefaultLogger returns the logger an Engine uses when the caller
// supplies none via WithLogger. It mirrors the teacher pack's bitcask
// sibling, which wires a *zap.SugaredLogger through every storage
// subsystem rather than the standard library's log package.
func newDefaultLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder/sink config,
		// which never happens with the defaults used here.
		l = zap.NewNop()
	}
	return l.Sugar()
}
