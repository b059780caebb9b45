package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// Rejections the caller can act on are logged at Warn; internal failures at Error.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			duration := time.Since(start).Milliseconds()
			if err == nil {
				logger.Info("RPC ok",
					"procedure", procedure,
					"duration_ms", duration,
				)
				return resp, nil
			}

			var connectErr *connect.Error
			if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown {
				logger.Warn("RPC rejected",
					"procedure", procedure,
					"code", connectErr.Code(),
					"error", connectErr.Message(),
					"duration_ms", duration,
				)
			} else {
				logger.Error("RPC error",
					"procedure", procedure,
					"error", err,
					"duration_ms", duration,
				)
			}
			return resp, err
		}
	}
}
