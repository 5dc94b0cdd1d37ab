package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	fieldRequestID = "request_id"
	fieldTXHash    = "tx_hash"
	fieldSigner    = "signer"
)

var (
	baseMu sync.RWMutex
	base   = zap.NewNop()
)

// Init replaces the process-wide base Logger. Development mode uses zap's
// console encoder, otherwise JSON production output.
func Init(development bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	SetBase(l)
	return l, nil
}

// SetBase sets the Logger new contexts derive from.
func SetBase(l *zap.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = l
}

// Base returns the Logger new contexts derive from.
func Base() *zap.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// FromContext returns the Logger from the Context. If the Context has none, one
// is built from the base Logger and the Context's fields.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(KeyLogger).(*zap.Logger); ok {
		return l
	}
	return newLogger(ctx)
}

// newLogger returns a Logger with the RequestID and TXHash from the Context as fields.
func newLogger(ctx context.Context) *zap.Logger {
	logger := Base().With(zap.String(fieldRequestID, RequestIDFromContext(ctx)))

	if txHash := TXHashFromContext(ctx); len(txHash) > 0 {
		logger = logger.With(zap.String(fieldTXHash, txHash))
	}

	return logger
}
