package logger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type key int

const (
	// KeyRequestID is the Request ID in the Context.
	KeyRequestID key = 0

	// KeyLogger is the Logger in the Context.
	KeyLogger key = 1

	// KeyTXHash is the relayed transaction hash in the Context.
	KeyTXHash key = 2
)

// NewContext returns a Context derived from context.Background with a fresh
// RequestID and a Logger carrying it.
func NewContext() context.Context {
	return ContextWithRequestID(context.Background(), "")
}

// ContextWithRequestID returns a Context with the RequestID and a Logger that
// has the request_id field set.
//
// If id is empty a RequestID is generated.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if len(id) == 0 {
		id = uuid.NewString()
	}

	ctx = context.WithValue(ctx, KeyRequestID, id)

	return ContextWithLogger(ctx, newLogger(ctx))
}

// ContextWithTXHash returns a Context with the TXHash set and the Logger
// extended with the tx_hash field.
func ContextWithTXHash(ctx context.Context, txHash string) context.Context {
	ctx = context.WithValue(ctx, KeyTXHash, txHash)

	logger := FromContext(ctx).With(zap.String(fieldTXHash, txHash))

	return ContextWithLogger(ctx, logger)
}

// ContextWithSigner extends the Logger with the address that signed the request.
func ContextWithSigner(ctx context.Context, signer string) context.Context {
	if signer == "" {
		return ctx
	}
	return ContextWithLogger(ctx, FromContext(ctx).With(zap.String(fieldSigner, signer)))
}

// ContextWithLogger adds the Logger to the Context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// ContextWithNamedLogger returns a Context with a named child of its Logger.
func ContextWithNamedLogger(ctx context.Context, name string) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).Named(name))
}

// RequestIDFromContext returns the request ID from the Context.
//
// If the value was not set, "unknown/<uuid>" is returned so broken request id
// chains stand out in the logs.
func RequestIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(KeyRequestID).(string)
	if !ok {
		return fmt.Sprintf("unknown/%s", uuid.NewString())
	}
	return v
}

// TXHashFromContext returns the hash of the relayed transaction if set,
// otherwise an empty string.
func TXHashFromContext(ctx context.Context) string {
	v, _ := ctx.Value(KeyTXHash).(string)
	return v
}
