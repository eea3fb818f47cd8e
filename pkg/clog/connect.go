package clog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

type connectConfig struct {
	Filter func(spec connect.Spec) bool
}

type ConnectOption interface {
	apply(*connectConfig)
}

type connectOptionFunc func(*connectConfig)

func (o connectOptionFunc) apply(c *connectConfig) {
	o(c)
}

func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return connectOptionFunc(func(cfg *connectConfig) {
		cfg.Filter = filter
	})
}

func DefaultConnectHealthCheckUnaryFilter(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

type slogConnectInterceptor struct {
	cfg connectConfig
}

// NewSlogConnectInterceptor logs one line per finished unary call. Streaming
// calls pass through untouched; the access service has none.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	cfg := connectConfig{}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &slogConnectInterceptor{cfg: cfg}
}

func (s *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		startTime := time.Now()
		newCtx := ContextWithSlog(ctx)

		AddAttributes(newCtx, map[string]any{
			"method":            req.HTTPMethod(),
			"procedure":         req.Spec().Procedure,
			"stream_type":       req.Spec().StreamType.String(),
			"idempotency_level": req.Spec().IdempotencyLevel.String(),
		})
		resp, err := next(newCtx, req)
		if s.cfg.Filter != nil && !s.cfg.Filter(req.Spec()) {
			return resp, err
		}
		codeStr := "ok"
		var connectErr *connect.Error
		if err != nil {
			if !errors.As(err, &connectErr) {
				connectErr = connect.NewError(connect.CodeUnknown, err)
			}
			codeStr = connectErr.Code().String()
		}
		AddAttributes(newCtx, map[string]any{
			"code":     codeStr,
			"duration": time.Since(startTime),
		})
		if connectErr == nil {
			slog.InfoContext(newCtx, "Finished")
		} else {
			logConnectError(newCtx, connectErr)
		}
		return resp, err
	}
}

func (s *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (s *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

func logConnectError(ctx context.Context, connectErr *connect.Error) {
	if errDetails := connectErr.Details(); len(errDetails) > 0 {
		details := make([]proto.Message, 0, len(errDetails))
		for _, detail := range errDetails {
			val, err := detail.Value()
			if err != nil {
				slog.ErrorContext(ctx, "failed to convert detail value", ErrorAttributeKey, err)
				continue
			}
			details = append(details, val)
		}
		AddAttribute(ctx, "err_details", details)
	}
	slog.Log(ctx, ConnectCodeToLevel(connectErr.Code()).SlogLevel(), connectErr.Message())
}
