package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// helper to build server
func newTestServer(t *testing.T) (*GRPCServer, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}
	return &GRPCServer{logger: nopLogger{}, tokens: issuer}, issuer
}

func withAuth(ctx context.Context, value string) context.Context {
	return metadata.NewIncomingContext(ctx, metadata.Pairs(api.MetadataAuthorization, value))
}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s, _ := newTestServer(t)

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodLogin)}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_MissingOrBadToken(t *testing.T) {
	s, _ := newTestServer(t)
	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodListEntries)}

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}

	for _, ctx := range []context.Context{
		context.Background(),
		withAuth(context.Background(), ""),
		withAuth(context.Background(), "Basic abc"),
		withAuth(context.Background(), "Bearer not-a-jwt"),
	} {
		_, err := s.accessTokenInterceptor(ctx, nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("want Unauthenticated, got %v", err)
		}
	}
}

func TestInterceptor_ValidToken_SetsUserID(t *testing.T) {
	s, issuer := newTestServer(t)
	token, _, err := issuer.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodMe)}
	h := func(ctx context.Context, req any) (any, error) {
		id, ok := userIDFromContext(ctx)
		if !ok || id != "user-42" {
			t.Fatalf("user id not in context: %q", id)
		}
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(withAuth(context.Background(), "bearer "+token), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMasterPassword(t *testing.T) {
	if _, err := masterPassword(context.Background()); err != common.ErrMasterPasswordRequired {
		t.Fatalf("want ErrMasterPasswordRequired, got %v", err)
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(api.MetadataMasterPassword, "pw"))
	pw, err := masterPassword(ctx)
	if err != nil || pw != "pw" {
		t.Fatalf("got %q, %v", pw, err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Bearer":       "",
		"Token abc":    "",
	}
	for header, want := range tests {
		if got := bearerToken(withAuth(context.Background(), header)); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
