package gasless

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gasless-nft/relay/logger"
	"github.com/gasless-nft/relay/mechanisms/evm"
	"github.com/gasless-nft/relay/types"
)

// RelayScheme verifies and executes forward requests on one network
type RelayScheme interface {
	Network() Network
	Verify(ctx context.Context, req evm.ForwardRequestData) (*VerifyResponse, error)
	Execute(ctx context.Context, req evm.ForwardRequestData) (*ExecuteResponse, error)
	Supported() SupportedResponse
}

// RequestContext is passed to every hook
type RequestContext struct {
	Ctx     context.Context
	Body    []byte
	Request *evm.ForwardRequestData // nil when the body could not be decoded
}

// VerifyResultContext is passed to after-verify hooks
type VerifyResultContext struct {
	RequestContext
	Result *VerifyResponse
}

// VerifyFailureContext is passed to verify-failure hooks
type VerifyFailureContext struct {
	RequestContext
	Error error
}

// ExecuteResultContext is passed to after-execute hooks
type ExecuteResultContext struct {
	RequestContext
	Result *ExecuteResponse
}

// ExecuteFailureContext is passed to execute-failure hooks
type ExecuteFailureContext struct {
	RequestContext
	Error error
}

type (
	AfterVerifyHook    func(VerifyResultContext) error
	VerifyFailureHook  func(VerifyFailureContext) error
	AfterExecuteHook   func(ExecuteResultContext) error
	ExecuteFailureHook func(ExecuteFailureContext) error
)

// Relayer decodes raw relay requests, hands them to its scheme and runs
// lifecycle hooks around the result. Hook errors are logged and never change
// the outcome of a request.
type Relayer struct {
	scheme RelayScheme

	mu             sync.RWMutex
	afterVerify    []AfterVerifyHook
	verifyFailure  []VerifyFailureHook
	afterExecute   []AfterExecuteHook
	executeFailure []ExecuteFailureHook
}

// NewRelayer creates a Relayer for the given scheme
func NewRelayer(scheme RelayScheme) *Relayer {
	return &Relayer{scheme: scheme}
}

// Network returns the network the relayer sponsors
func (r *Relayer) Network() Network {
	return r.scheme.Network()
}

// Supported describes what the relayer sponsors
func (r *Relayer) Supported() SupportedResponse {
	return r.scheme.Supported()
}

// OnAfterVerify registers a hook run after a request verifies
func (r *Relayer) OnAfterVerify(hook AfterVerifyHook) *Relayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterVerify = append(r.afterVerify, hook)
	return r
}

// OnVerifyFailure registers a hook run when verification fails
func (r *Relayer) OnVerifyFailure(hook VerifyFailureHook) *Relayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifyFailure = append(r.verifyFailure, hook)
	return r
}

// OnAfterExecute registers a hook run after a request is mined
func (r *Relayer) OnAfterExecute(hook AfterExecuteHook) *Relayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterExecute = append(r.afterExecute, hook)
	return r
}

// OnExecuteFailure registers a hook run when execution fails
func (r *Relayer) OnExecuteFailure(hook ExecuteFailureHook) *Relayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executeFailure = append(r.executeFailure, hook)
	return r
}

// Verify validates and decodes body, then verifies it without executing
func (r *Relayer) Verify(ctx context.Context, body []byte) (*VerifyResponse, error) {
	rc := RequestContext{Ctx: ctx, Body: body}

	req, err := types.DecodeForwardRequest(body)
	if err != nil {
		verr := NewVerifyError(evm.ErrInvalidPayload, types.ExtractSigner(body), r.scheme.Network(), err)
		r.runVerifyFailure(VerifyFailureContext{RequestContext: rc, Error: verr})
		return nil, verr
	}
	rc.Request = req

	result, err := r.scheme.Verify(ctx, *req)
	if err != nil {
		r.runVerifyFailure(VerifyFailureContext{RequestContext: rc, Error: err})
		return nil, err
	}

	r.runAfterVerify(VerifyResultContext{RequestContext: rc, Result: result})
	return result, nil
}

// Execute validates and decodes body, then verifies and executes it
func (r *Relayer) Execute(ctx context.Context, body []byte) (*ExecuteResponse, error) {
	rc := RequestContext{Ctx: ctx, Body: body}

	req, err := types.DecodeForwardRequest(body)
	if err != nil {
		eerr := NewExecuteError(evm.ErrInvalidPayload, types.ExtractSigner(body), r.scheme.Network(), "", err)
		r.runExecuteFailure(ExecuteFailureContext{RequestContext: rc, Error: eerr})
		return nil, eerr
	}
	rc.Request = req

	result, err := r.scheme.Execute(ctx, *req)
	if err != nil {
		r.runExecuteFailure(ExecuteFailureContext{RequestContext: rc, Error: err})
		return nil, err
	}

	r.runAfterExecute(ExecuteResultContext{RequestContext: rc, Result: result})
	return result, nil
}

func (r *Relayer) runAfterVerify(hc VerifyResultContext) {
	r.mu.RLock()
	hooks := r.afterVerify
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h(hc); err != nil {
			logHookError(hc.Ctx, "after_verify", err)
		}
	}
}

func (r *Relayer) runVerifyFailure(hc VerifyFailureContext) {
	r.mu.RLock()
	hooks := r.verifyFailure
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h(hc); err != nil {
			logHookError(hc.Ctx, "verify_failure", err)
		}
	}
}

func (r *Relayer) runAfterExecute(hc ExecuteResultContext) {
	r.mu.RLock()
	hooks := r.afterExecute
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h(hc); err != nil {
			logHookError(hc.Ctx, "after_execute", err)
		}
	}
}

func (r *Relayer) runExecuteFailure(hc ExecuteFailureContext) {
	r.mu.RLock()
	hooks := r.executeFailure
	r.mu.RUnlock()
	for _, h := range hooks {
		if err := h(hc); err != nil {
			logHookError(hc.Ctx, "execute_failure", err)
		}
	}
}

func logHookError(ctx context.Context, hook string, err error) {
	logger.FromContext(ctx).Warn("relay hook failed", zap.String("hook", hook), zap.Error(err))
}
