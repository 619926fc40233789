package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// publicMethods need no session token.
var publicMethods = map[string]bool{
	api.FullMethod(api.MethodPing):          true,
	api.FullMethod(api.MethodRegister):      true,
	api.FullMethod(api.MethodLogin):         true,
	api.FullMethod(api.MethodCheckStrength): true,
	api.FullMethod(api.MethodCheckBreach):   true,
}

func metadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func bearerToken(ctx context.Context) string {
	v := metadataValue(ctx, api.MetadataAuthorization)
	if len(v) < len(api.BearerPrefix) || !strings.EqualFold(v[:len(api.BearerPrefix)], api.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(api.BearerPrefix):])
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// masterPassword returns the master password sent with the request.
func masterPassword(ctx context.Context) (string, error) {
	pw := metadataValue(ctx, api.MetadataMasterPassword)
	if pw == "" {
		return "", common.ErrMasterPasswordRequired
	}
	return pw, nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token := bearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(context.WithValue(ctx, userIDKey, userID), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}
