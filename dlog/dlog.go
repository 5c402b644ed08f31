// Package dlog is the logging shim shared by wallet, wsj, blockstore and
// inventory. It wraps zap.SugaredLogger so call sites can use keyed
// arguments (the idiom the teacher's own dependency graph favors) without
// every package constructing its own zap.Field values.
package dlog

import "go.uber.org/zap"

// Logger is the minimal surface every component here depends on.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// Nop is a Logger that discards everything; useful as a zero-value default
// so components never have to nil-check their logger field.
type Nop struct{}

func (Nop) Debugw(string, ...interface{}) {}
func (Nop) Warnw(string, ...interface{})  {}
func (Nop) Errorw(string, ...interface{}) {}

// NewZap builds a Logger backed by a production zap configuration.
func NewZap() (Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

// NewZapDevelopment builds a Logger with human-friendly console output,
// matching what the teacher wires up for local/test runs.
func NewZapDevelopment() (Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}
