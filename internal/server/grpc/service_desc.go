package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"google.golang.org/grpc"
)

// VaultServer is the server side of gophvault.v1.Vault.
type VaultServer interface {
	Ping(context.Context, *api.PingRequest) (*api.PingResponse, error)
	Register(context.Context, *api.RegisterRequest) (*api.RegisterResponse, error)
	Login(context.Context, *api.LoginRequest) (*api.LoginResponse, error)
	Logout(context.Context, *api.LogoutRequest) (*api.LogoutResponse, error)
	Me(context.Context, *api.MeRequest) (*api.UserProfile, error)

	MfaSetup(context.Context, *api.MfaSetupRequest) (*api.MfaSetupResponse, error)
	MfaEnable(context.Context, *api.MfaCodeRequest) (*api.MfaStatusResponse, error)
	MfaDisable(context.Context, *api.MfaCodeRequest) (*api.MfaStatusResponse, error)
	MfaStatus(context.Context, *api.MfaStatusRequest) (*api.MfaStatusResponse, error)

	AddEntry(context.Context, *api.AddEntryRequest) (*api.Entry, error)
	ListEntries(context.Context, *api.ListEntriesRequest) (*api.ListEntriesResponse, error)
	GetEntry(context.Context, *api.GetEntryRequest) (*api.Entry, error)
	UpdateEntry(context.Context, *api.UpdateEntryRequest) (*api.Entry, error)
	DeleteEntry(context.Context, *api.DeleteEntryRequest) (*api.DeleteEntryResponse, error)
	Analytics(context.Context, *api.AnalyticsRequest) (*api.AnalyticsResponse, error)

	CheckStrength(context.Context, *api.PasswordRequest) (*api.StrengthResponse, error)
	CheckBreach(context.Context, *api.PasswordRequest) (*api.BreachResponse, error)
	ExportBackup(context.Context, *api.ExportBackupRequest) (*api.ExportBackupResponse, error)
	Activity(context.Context, *api.ActivityRequest) (*api.ActivityResponse, error)
}

// unary adapts a typed method to grpc.MethodDesc, running interceptors the
// way generated code does.
func unary[Req, Resp any](method string, call func(VaultServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VaultServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: api.FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VaultServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var vaultServiceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*VaultServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.MethodPing, VaultServer.Ping),
		unary(api.MethodRegister, VaultServer.Register),
		unary(api.MethodLogin, VaultServer.Login),
		unary(api.MethodLogout, VaultServer.Logout),
		unary(api.MethodMe, VaultServer.Me),
		unary(api.MethodMfaSetup, VaultServer.MfaSetup),
		unary(api.MethodMfaEnable, VaultServer.MfaEnable),
		unary(api.MethodMfaDisable, VaultServer.MfaDisable),
		unary(api.MethodMfaStatus, VaultServer.MfaStatus),
		unary(api.MethodAddEntry, VaultServer.AddEntry),
		unary(api.MethodListEntries, VaultServer.ListEntries),
		unary(api.MethodGetEntry, VaultServer.GetEntry),
		unary(api.MethodUpdateEntry, VaultServer.UpdateEntry),
		unary(api.MethodDeleteEntry, VaultServer.DeleteEntry),
		unary(api.MethodAnalytics, VaultServer.Analytics),
		unary(api.MethodCheckStrength, VaultServer.CheckStrength),
		unary(api.MethodCheckBreach, VaultServer.CheckBreach),
		unary(api.MethodExportBackup, VaultServer.ExportBackup),
		unary(api.MethodActivity, VaultServer.Activity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophvault/v1/vault",
}

func RegisterVaultServer(s grpc.ServiceRegistrar, srv VaultServer) {
	s.RegisterService(&vaultServiceDesc, srv)
}
