package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/breach"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/services"
	"github.com/dmitrijs2005/gophvault/internal/server/strength"
	"google.golang.org/grpc"
)

type userService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Login(ctx context.Context, email, password string, mfaCode *string) (*services.LoginResult, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type mfaService interface {
	Setup(ctx context.Context, userID, masterPassword string) (*services.MfaSetup, error)
	Enable(ctx context.Context, userID, masterPassword, code string) error
	Disable(ctx context.Context, userID, masterPassword, code string) error
	Status(ctx context.Context, userID string) (models.MfaState, error)
}

type vaultService interface {
	Add(ctx context.Context, userID, masterPassword string, in services.EntryInput) (*services.Entry, error)
	List(ctx context.Context, userID, masterPassword string) ([]*services.EntrySummary, error)
	Get(ctx context.Context, userID, masterPassword, id string) (*services.Entry, error)
	Update(ctx context.Context, userID, masterPassword, id string, patch services.EntryPatch) (*services.Entry, error)
	Delete(ctx context.Context, userID, id string) error
	Analytics(ctx context.Context, userID, masterPassword string) (*services.Dashboard, error)
}

type passwordService interface {
	Strength(password string) strength.Result
	CheckBreach(ctx context.Context, password string) (breach.Result, error)
}

type backupService interface {
	Export(ctx context.Context, userID string) (*services.Backup, error)
}

type auditService interface {
	Recent(ctx context.Context, userID string, limit int) ([]*models.AuditEvent, error)
}

type tokenValidator interface {
	Validate(token string) (string, error)
}

// Services bundles what the transport calls into.
type Services struct {
	Users     userService
	Mfa       mfaService
	Vault     vaultService
	Passwords passwordService
	Backups   backupService
	Audit     auditService
}

type GRPCServer struct {
	address   string
	users     userService
	mfa       mfaService
	vault     vaultService
	passwords passwordService
	backups   backupService
	audit     auditService
	tokens    tokenValidator
	logger    logging.Logger
}

var _ VaultServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, tokens tokenValidator, svc Services) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     svc.Users,
		mfa:       svc.Mfa,
		vault:     svc.Vault,
		passwords: svc.Passwords,
		backups:   svc.Backups,
		audit:     svc.Audit,
		tokens:    tokens,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(api.Codec{}),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	)
	RegisterVaultServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
