package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toProfile(u *models.User) api.UserProfile {
	return api.UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		MfaEnabled:  u.MfaState() == models.MfaEnabled,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func toEntry(e *services.Entry) *api.Entry {
	return &api.Entry{
		ID:        e.ID,
		Title:     e.Title,
		Username:  e.Username,
		Password:  e.Password,
		URL:       e.URL,
		Notes:     e.Notes,
		Category:  e.Category,
		Favorite:  e.Favorite,
		Strength:  e.Strength,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// sessionUser returns the caller set by the access token interceptor.
func sessionUser(ctx context.Context) (string, error) {
	id, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing token")
	}
	return id, nil
}

// unlockRequest returns the caller and the master password.
func (s *GRPCServer) unlockRequest(ctx context.Context, method string) (string, string, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return "", "", err
	}
	pw, err := masterPassword(ctx)
	if err != nil {
		return "", "", s.toStatus(ctx, method, err)
	}
	return userID, pw, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodRegister, err)
	}

	return &api.RegisterResponse{User: toProfile(user)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	res, err := s.users.Login(ctx, req.Email, req.Password, req.MfaCode)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodLogin, err)
	}

	return &api.LoginResponse{
		Token:     res.Token,
		TokenType: "bearer",
		ExpiresAt: res.ExpiresAt,
		User:      toProfile(res.User),
	}, nil
}

// Logout only acknowledges; tokens are stateless and expire on their own.
func (s *GRPCServer) Logout(ctx context.Context, req *api.LogoutRequest) (*api.LogoutResponse, error) {
	if _, err := sessionUser(ctx); err != nil {
		return nil, err
	}
	return &api.LogoutResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Me(ctx context.Context, req *api.MeRequest) (*api.UserProfile, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Profile(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodMe, err)
	}

	p := toProfile(user)
	return &p, nil
}

func (s *GRPCServer) MfaSetup(ctx context.Context, req *api.MfaSetupRequest) (*api.MfaSetupResponse, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodMfaSetup)
	if err != nil {
		return nil, err
	}

	setup, err := s.mfa.Setup(ctx, userID, pw)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodMfaSetup, err)
	}

	return &api.MfaSetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
		QRCodePNG:       setup.QRCodePNG,
	}, nil
}

func (s *GRPCServer) MfaEnable(ctx context.Context, req *api.MfaCodeRequest) (*api.MfaStatusResponse, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodMfaEnable)
	if err != nil {
		return nil, err
	}

	if err := s.mfa.Enable(ctx, userID, pw, req.Code); err != nil {
		return nil, s.toStatus(ctx, api.MethodMfaEnable, err)
	}
	return &api.MfaStatusResponse{State: string(models.MfaEnabled)}, nil
}

func (s *GRPCServer) MfaDisable(ctx context.Context, req *api.MfaCodeRequest) (*api.MfaStatusResponse, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodMfaDisable)
	if err != nil {
		return nil, err
	}

	if err := s.mfa.Disable(ctx, userID, pw, req.Code); err != nil {
		return nil, s.toStatus(ctx, api.MethodMfaDisable, err)
	}
	return &api.MfaStatusResponse{State: string(models.MfaDisabled)}, nil
}

func (s *GRPCServer) MfaStatus(ctx context.Context, req *api.MfaStatusRequest) (*api.MfaStatusResponse, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.mfa.Status(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodMfaStatus, err)
	}
	return &api.MfaStatusResponse{State: string(state)}, nil
}

func (s *GRPCServer) AddEntry(ctx context.Context, req *api.AddEntryRequest) (*api.Entry, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodAddEntry)
	if err != nil {
		return nil, err
	}

	e, err := s.vault.Add(ctx, userID, pw, services.EntryInput{
		Title:    req.Title,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
		Notes:    req.Notes,
		Category: req.Category,
		Favorite: req.Favorite,
	})
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodAddEntry, err)
	}
	return toEntry(e), nil
}

func (s *GRPCServer) ListEntries(ctx context.Context, req *api.ListEntriesRequest) (*api.ListEntriesResponse, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodListEntries)
	if err != nil {
		return nil, err
	}

	list, err := s.vault.List(ctx, userID, pw)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodListEntries, err)
	}

	resp := &api.ListEntriesResponse{Entries: make([]api.EntrySummary, 0, len(list))}
	for _, e := range list {
		resp.Entries = append(resp.Entries, api.EntrySummary{
			ID:        e.ID,
			Title:     e.Title,
			Username:  e.Username,
			URL:       e.URL,
			Category:  e.Category,
			Favorite:  e.Favorite,
			Strength:  e.Strength,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}
	return resp, nil
}

func (s *GRPCServer) GetEntry(ctx context.Context, req *api.GetEntryRequest) (*api.Entry, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodGetEntry)
	if err != nil {
		return nil, err
	}

	e, err := s.vault.Get(ctx, userID, pw, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodGetEntry, err)
	}
	return toEntry(e), nil
}

func (s *GRPCServer) UpdateEntry(ctx context.Context, req *api.UpdateEntryRequest) (*api.Entry, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodUpdateEntry)
	if err != nil {
		return nil, err
	}

	e, err := s.vault.Update(ctx, userID, pw, req.ID, services.EntryPatch{
		Title:    req.Title,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
		Notes:    req.Notes,
		Category: req.Category,
		Favorite: req.Favorite,
	})
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodUpdateEntry, err)
	}
	return toEntry(e), nil
}

func (s *GRPCServer) DeleteEntry(ctx context.Context, req *api.DeleteEntryRequest) (*api.DeleteEntryResponse, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.vault.Delete(ctx, userID, req.ID); err != nil {
		return nil, s.toStatus(ctx, api.MethodDeleteEntry, err)
	}
	return &api.DeleteEntryResponse{}, nil
}

func (s *GRPCServer) Analytics(ctx context.Context, req *api.AnalyticsRequest) (*api.AnalyticsResponse, error) {
	userID, pw, err := s.unlockRequest(ctx, api.MethodAnalytics)
	if err != nil {
		return nil, err
	}

	d, err := s.vault.Analytics(ctx, userID, pw)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodAnalytics, err)
	}

	return &api.AnalyticsResponse{
		TotalPasswords:    d.TotalPasswords,
		WeakPasswords:     d.WeakPasswords,
		ReusedPasswords:   d.ReusedPasswords,
		OldPasswords:      d.OldPasswords,
		AverageStrength:   d.AverageStrength,
		CategoryBreakdown: d.CategoryBreakdown,
	}, nil
}

func (s *GRPCServer) CheckStrength(ctx context.Context, req *api.PasswordRequest) (*api.StrengthResponse, error) {
	r := s.passwords.Strength(req.Password)
	return &api.StrengthResponse{
		Score:       r.Score,
		Label:       r.Label,
		Suggestions: r.Suggestions,
		CrackTime:   r.CrackTime,
	}, nil
}

func (s *GRPCServer) CheckBreach(ctx context.Context, req *api.PasswordRequest) (*api.BreachResponse, error) {
	r, err := s.passwords.CheckBreach(ctx, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodCheckBreach, err)
	}
	return &api.BreachResponse{Breached: r.Breached, Count: r.Count}, nil
}

func (s *GRPCServer) ExportBackup(ctx context.Context, req *api.ExportBackupRequest) (*api.ExportBackupResponse, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}

	b, err := s.backups.Export(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodExportBackup, err)
	}
	return &api.ExportBackupResponse{Key: b.Key, URL: b.URL, ExpiresAt: b.ExpiresAt, Items: b.Items}, nil
}

func (s *GRPCServer) Activity(ctx context.Context, req *api.ActivityRequest) (*api.ActivityResponse, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.audit.Recent(ctx, userID, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodActivity, err)
	}

	resp := &api.ActivityResponse{Events: make([]api.AuditEvent, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, api.AuditEvent{
			Action:    e.Action,
			Details:   e.Details,
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp, nil
}
