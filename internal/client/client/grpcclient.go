package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu          sync.RWMutex
	accessToken string
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults, so a test can swap the dialer.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(api.Codec{})),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client init: %w", err)
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// SetToken replaces the session token, e.g. with one restored from disk.
func (c *GRPCClient) SetToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *GRPCClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) LoggedIn() bool {
	return c.Token() != ""
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.New(nil)
	}
	md.Set(api.MetadataAuthorization, api.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// withMasterPassword attaches the master password to a single call.
func withMasterPassword(ctx context.Context, password string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, api.MetadataMasterPassword, password)
}

func (c *GRPCClient) accessTokenInterceptor(ctx context.Context, method string, req, reply any,
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {

	if token := c.Token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	if err := c.conn.Invoke(ctx, api.FullMethod(method), req, resp); err != nil {
		return mapError(err)
	}
	return nil
}

// unlocked is invoke for calls that need the master password.
func (c *GRPCClient) unlocked(ctx context.Context, password, method string, req, resp any) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}
	return c.invoke(withMasterPassword(ctx, password), method, req, resp)
}

func (c *GRPCClient) authed(ctx context.Context, method string, req, resp any) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}
	return c.invoke(ctx, method, req, resp)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.FailedPrecondition:
		if st.Message() == ErrMfaRequired.Error() {
			return ErrMfaRequired
		}
	case codes.PermissionDenied:
		if st.Message() == ErrInvalidMasterPassword.Error() {
			return ErrInvalidMasterPassword
		}
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	}
	return errors.New(st.Message())
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	var resp api.PingResponse
	if err := c.invoke(ctx, api.MethodPing, &api.PingRequest{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Register(ctx context.Context, email, username, password string) (*api.UserProfile, error) {
	req := &api.RegisterRequest{Email: email, Username: username, Password: password}
	var resp api.RegisterResponse
	if err := c.invoke(ctx, api.MethodRegister, req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login stores the issued token on success. mfaCode is nil when the
// account has no second factor.
func (c *GRPCClient) Login(ctx context.Context, email, password string, mfaCode *string) (*api.LoginResponse, error) {
	req := &api.LoginRequest{Email: email, Password: password, MfaCode: mfaCode}
	var resp api.LoginResponse
	if err := c.invoke(ctx, api.MethodLogin, req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Logout forgets the token even when the server cannot be reached.
func (c *GRPCClient) Logout(ctx context.Context) error {
	if !c.LoggedIn() {
		return nil
	}
	err := c.invoke(ctx, api.MethodLogout, &api.LogoutRequest{}, &api.LogoutResponse{})
	c.SetToken("")
	return err
}

func (c *GRPCClient) Me(ctx context.Context) (*api.UserProfile, error) {
	var resp api.UserProfile
	if err := c.authed(ctx, api.MethodMe, &api.MeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) MfaSetup(ctx context.Context, password string) (*api.MfaSetupResponse, error) {
	var resp api.MfaSetupResponse
	if err := c.unlocked(ctx, password, api.MethodMfaSetup, &api.MfaSetupRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) MfaEnable(ctx context.Context, password, code string) (string, error) {
	var resp api.MfaStatusResponse
	if err := c.unlocked(ctx, password, api.MethodMfaEnable, &api.MfaCodeRequest{Code: code}, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

func (c *GRPCClient) MfaDisable(ctx context.Context, password, code string) (string, error) {
	var resp api.MfaStatusResponse
	if err := c.unlocked(ctx, password, api.MethodMfaDisable, &api.MfaCodeRequest{Code: code}, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

func (c *GRPCClient) MfaStatus(ctx context.Context) (string, error) {
	var resp api.MfaStatusResponse
	if err := c.authed(ctx, api.MethodMfaStatus, &api.MfaStatusRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

func (c *GRPCClient) AddEntry(ctx context.Context, password string, req *api.AddEntryRequest) (*api.Entry, error) {
	var resp api.Entry
	if err := c.unlocked(ctx, password, api.MethodAddEntry, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) ListEntries(ctx context.Context, password string) ([]api.EntrySummary, error) {
	var resp api.ListEntriesResponse
	if err := c.unlocked(ctx, password, api.MethodListEntries, &api.ListEntriesRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *GRPCClient) GetEntry(ctx context.Context, password, id string) (*api.Entry, error) {
	var resp api.Entry
	if err := c.unlocked(ctx, password, api.MethodGetEntry, &api.GetEntryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) UpdateEntry(ctx context.Context, password string, req *api.UpdateEntryRequest) (*api.Entry, error) {
	var resp api.Entry
	if err := c.unlocked(ctx, password, api.MethodUpdateEntry, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) DeleteEntry(ctx context.Context, id string) error {
	return c.authed(ctx, api.MethodDeleteEntry, &api.DeleteEntryRequest{ID: id}, &api.DeleteEntryResponse{})
}

func (c *GRPCClient) Analytics(ctx context.Context, password string) (*api.AnalyticsResponse, error) {
	var resp api.AnalyticsResponse
	if err := c.unlocked(ctx, password, api.MethodAnalytics, &api.AnalyticsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) CheckStrength(ctx context.Context, password string) (*api.StrengthResponse, error) {
	var resp api.StrengthResponse
	if err := c.invoke(ctx, api.MethodCheckStrength, &api.PasswordRequest{Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) CheckBreach(ctx context.Context, password string) (*api.BreachResponse, error) {
	var resp api.BreachResponse
	if err := c.invoke(ctx, api.MethodCheckBreach, &api.PasswordRequest{Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) ExportBackup(ctx context.Context) (*api.ExportBackupResponse, error) {
	var resp api.ExportBackupResponse
	if err := c.authed(ctx, api.MethodExportBackup, &api.ExportBackupRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) Activity(ctx context.Context, limit int) ([]api.AuditEvent, error) {
	var resp api.ActivityResponse
	if err := c.authed(ctx, api.MethodActivity, &api.ActivityRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
