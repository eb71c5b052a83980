package grpcx

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/cwrk-planet/coderoom/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	mdRequestID = "x-request-id"

	// если клиент не прислал deadline
	defaultCallTimeout = 10 * time.Second
)

func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
			defer cancel()
		}
		defer observe(ctx, "unary", info.FullMethod, time.Now(), &err)
		return handler(ctx, req)
	}
}

// StreamServerInterceptor нужен для health Watch: стрим живёт, пока клиент
// подписан, поэтому deadline ему не навязываем.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer observe(ss.Context(), "stream", info.FullMethod, time.Now(), &err)
		return handler(srv, ss)
	}
}

// observe вызывается через defer: ловит панику хендлера, превращает её в
// codes.Internal и пишет одну запись на вызов.
func observe(ctx context.Context, kind, method string, start time.Time, errp *error) {
	log := logger.FromCtx(ctx).With("method", method, "kind", kind, "req_id", incomingRequestID(ctx))

	if r := recover(); r != nil {
		log.Error("grpc panic", "panic", r, "stack", string(debug.Stack()))
		*errp = status.Error(codes.Internal, "internal server error")
	}

	code := status.Code(*errp)
	args := []any{"code", code.String(), "dur_ms", time.Since(start).Milliseconds()}
	switch code {
	case codes.OK, codes.Canceled, codes.NotFound:
		log.Debug("grpc call", args...)
	default:
		log.Warn("grpc call failed", append(args, "err", *errp)...)
	}
}

// UnaryClientInterceptor пробрасывает request id клиента, чтобы вызов probe
// находился в логах roomd по тому же id, что и HTTP-запросы.
func UnaryClientInterceptor(reqID string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if reqID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, mdRequestID, reqID)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(mdRequestID); len(v) > 0 {
		return v[0]
	}
	return ""
}
