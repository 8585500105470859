package grpc

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/logging"
)

// loggingInterceptor logs every unary call, tagging it with the caller's
// x-request-id metadata when present.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(strings.ToLower(common.RequestIDHeaderName)); len(v) > 0 {
			ctx = logging.ContextWithRequestID(ctx, v[0])
		}
	}

	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	if err != nil {
		s.logger.Warn(ctx, "grpc call failed", "method", info.FullMethod, "code", code.String(), "dur", time.Since(start).String(), "error", err)
		return resp, err
	}
	s.logger.Info(ctx, "grpc call", "method", info.FullMethod, "code", code.String(), "dur", time.Since(start).String())
	return resp, nil
}
