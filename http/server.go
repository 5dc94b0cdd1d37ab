// Package http exposes the relay over HTTP and provides clients for the relay
// and the NFT index.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gasless "github.com/gasless-nft/relay"
	"github.com/gasless-nft/relay/logger"
	"github.com/gasless-nft/relay/mechanisms/evm"
	"github.com/gasless-nft/relay/types"
)

const (
	// HeaderRequestID carries the request id in and out of the relay
	HeaderRequestID = "X-Request-ID"

	// HealthPath reports liveness
	HealthPath = "/healthz"

	// DefaultRequestTimeout bounds verify + execute + confirmation
	DefaultRequestTimeout = 2 * time.Minute

	// DefaultClientTimeout outlasts DefaultRequestTimeout so callers still
	// receive the 504 that carries the pending transaction hash
	DefaultClientTimeout = DefaultRequestTimeout + 30*time.Second

	maxBodyBytes = 64 << 10
)

// RelayService is what the server needs from a gasless.Relayer
type RelayService interface {
	Verify(ctx context.Context, body []byte) (*gasless.VerifyResponse, error)
	Execute(ctx context.Context, body []byte) (*gasless.ExecuteResponse, error)
	Supported() gasless.SupportedResponse
}

// TransferResponse is the success body of POST /api/transfer
type TransferResponse struct {
	Message     string `json:"message"`
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// ErrorResponse is the body of every failed relay call
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Hash   string `json:"hash,omitempty"`
}

// ServerConfig holds optional overrides for NewServer
type ServerConfig struct {
	// RequestTimeout bounds each relay call (default 2 minutes)
	RequestTimeout time.Duration
}

// NewServer builds the gin engine serving the relay routes
func NewServer(relayer RelayService, config *ServerConfig) *gin.Engine {
	timeout := DefaultRequestTimeout
	if config != nil && config.RequestTimeout > 0 {
		timeout = config.RequestTimeout
	}

	s := &server{relayer: relayer, timeout: timeout}

	r := gin.New()
	r.Use(gin.Recovery(), requestContext())

	r.GET(HealthPath, s.health)
	r.GET(gasless.SupportedPath, s.supported)
	r.POST(gasless.VerifyPath, s.verify)
	r.POST(gasless.TransferPath, s.transfer)

	return r
}

type server struct {
	relayer RelayService
	timeout time.Duration
}

// requestContext attaches a request id and a logger carrying it to every request,
// and writes one access log line when the request completes
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := logger.ContextWithRequestID(c.Request.Context(), c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, logger.RequestIDFromContext(ctx))

		c.Next()

		logger.FromContext(ctx).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": gasless.Version})
}

func (s *server) supported(c *gin.Context) {
	c.JSON(http.StatusOK, s.relayer.Supported())
}

func (s *server) verify(c *gin.Context) {
	ctx, body, ok := s.begin(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.relayer.Verify(ctx, body)
	if err != nil {
		s.fail(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *server) transfer(c *gin.Context) {
	ctx, body, ok := s.begin(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.relayer.Execute(ctx, body)
	if err != nil {
		s.fail(ctx, c, err)
		return
	}

	ctx = logger.ContextWithTXHash(ctx, result.Transaction)
	logger.FromContext(ctx).Info("transfer relayed", zap.Uint64("block", result.BlockNumber))

	c.JSON(http.StatusOK, TransferResponse{
		Message:     "Success",
		Hash:        result.Transaction,
		BlockNumber: result.BlockNumber,
		ExplorerURL: evm.TxURL(result.Network.String(), result.Transaction),
	})
}

// begin reads the body and tags the request logger with the signer
func (s *server) begin(c *gin.Context) (context.Context, []byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
		} else {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		}
		return nil, nil, false
	}
	ctx := logger.ContextWithSigner(c.Request.Context(), types.ExtractSigner(body))
	return ctx, body, true
}

func (s *server) fail(ctx context.Context, c *gin.Context, err error) {
	status, resp := errorResponse(err)
	logger.FromContext(ctx).Warn("relay request failed",
		zap.Int("status", status),
		zap.String("reason", resp.Reason),
		zap.Error(err),
	)
	c.JSON(status, resp)
}

// errorResponse maps relay errors to a status code and body. A request the
// forwarder rejects keeps the 500 {"error":"Invalid request"} contract wallet
// clients already handle.
func errorResponse(err error) (int, ErrorResponse) {
	reason := ""
	hash := ""

	var ve *gasless.VerifyError
	var ee *gasless.ExecuteError
	switch {
	case errors.As(err, &ee):
		reason, hash = ee.Reason, ee.Transaction
	case errors.As(err, &ve):
		reason = ve.Reason
	}

	if reason == evm.ErrInvalidRequest {
		return http.StatusInternalServerError, ErrorResponse{Error: "Invalid request", Reason: reason}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Reason: reason, Hash: hash}
	}
	return statusForReason(reason), ErrorResponse{Error: err.Error(), Reason: reason, Hash: hash}
}

func statusForReason(reason string) int {
	switch reason {
	case evm.ErrInvalidPayload, evm.ErrMissingSignature, evm.ErrInvalidSignature,
		evm.ErrSignerMismatch, evm.ErrRequestExpired:
		return http.StatusBadRequest
	case evm.ErrTargetNotAllowed, evm.ErrValueNotAllowed, evm.ErrGasLimitExceeded,
		evm.ErrCallNotAllowed:
		return http.StatusForbidden
	case evm.ErrRequestInFlight:
		return http.StatusConflict
	case evm.ErrFailedToReadDomain, evm.ErrFailedToReadNonce, evm.ErrFailedToVerify,
		evm.ErrFailedToGetReceipt:
		return http.StatusBadGateway
	case evm.ErrForwarderNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
