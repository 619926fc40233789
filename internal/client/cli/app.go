package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/api"
	"github.com/dmitrijs2005/gophvault/internal/client/client"
	"github.com/dmitrijs2005/gophvault/internal/client/config"
	"github.com/dmitrijs2005/gophvault/internal/client/repositories/session"
)

var timeNow = time.Now

// vaultClient is the part of client.GRPCClient the CLI uses.
type vaultClient interface {
	Close() error
	SetToken(token string)
	LoggedIn() bool
	Register(ctx context.Context, email, username, password string) (*api.UserProfile, error)
	Login(ctx context.Context, email, password string, mfaCode *string) (*api.LoginResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.UserProfile, error)
	MfaSetup(ctx context.Context, password string) (*api.MfaSetupResponse, error)
	MfaEnable(ctx context.Context, password, code string) (string, error)
	MfaDisable(ctx context.Context, password, code string) (string, error)
	MfaStatus(ctx context.Context) (string, error)
	AddEntry(ctx context.Context, password string, req *api.AddEntryRequest) (*api.Entry, error)
	ListEntries(ctx context.Context, password string) ([]api.EntrySummary, error)
	GetEntry(ctx context.Context, password, id string) (*api.Entry, error)
	UpdateEntry(ctx context.Context, password string, req *api.UpdateEntryRequest) (*api.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	Analytics(ctx context.Context, password string) (*api.AnalyticsResponse, error)
	CheckStrength(ctx context.Context, password string) (*api.StrengthResponse, error)
	CheckBreach(ctx context.Context, password string) (*api.BreachResponse, error)
	ExportBackup(ctx context.Context) (*api.ExportBackupResponse, error)
	Activity(ctx context.Context, limit int) ([]api.AuditEvent, error)
}

type App struct {
	config   *config.Config
	client   vaultClient
	sessions session.Repository
	db       io.Closer
	reader   *bufio.Reader
	out      io.Writer
	email    string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	db, sessions, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := newApp(c, apiClient, sessions, bufio.NewReader(os.Stdin), os.Stdout)
	a.db = db
	a.restoreSession(ctx)
	return a, nil
}

func newApp(c *config.Config, vc vaultClient, sessions session.Repository, r *bufio.Reader, w io.Writer) *App {
	return &App{config: c, client: vc, sessions: sessions, reader: r, out: w}
}

func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "Welcome to GophVault (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) close() {
	if err := a.client.Close(); err != nil {
		fmt.Fprintln(a.out, "connection close error:", err)
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) status() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.email)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

// rpc bounds a single server call with the configured timeout.
func (a *App) rpc(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// restoreSession picks up a still valid token saved by an earlier run.
func (a *App) restoreSession(ctx context.Context) {
	s, err := a.sessions.Load(ctx, a.config.ServerEndpointAddr)
	if err != nil {
		fmt.Fprintln(a.out, "could not read saved session:", err)
		return
	}
	if s == nil {
		return
	}
	if s.Expired(timeNow()) {
		_ = a.sessions.Delete(ctx, a.config.ServerEndpointAddr)
		return
	}
	a.client.SetToken(s.Token)
	a.email = s.Email
}

func (a *App) saveSession(ctx context.Context, email string, resp *api.LoginResponse) {
	a.email = email
	err := a.sessions.Save(ctx, &session.Session{
		Server:    a.config.ServerEndpointAddr,
		Email:     email,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
	})
	if err != nil {
		fmt.Fprintln(a.out, "could not save session:", err)
	}
}

func (a *App) forgetSession(ctx context.Context) {
	a.client.SetToken("")
	a.email = ""
	if err := a.sessions.Delete(ctx, a.config.ServerEndpointAddr); err != nil {
		fmt.Fprintln(a.out, "could not remove saved session:", err)
	}
}

// check drops the local session when the server no longer accepts the
// token, so the prompt does not claim a login that is gone.
func (a *App) check(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) && a.isLoggedIn() {
		a.forgetSession(ctx)
		return errors.New("session expired, please log in again")
	}
	return err
}

func (a *App) masterPassword() (string, error) {
	pw, err := GetPassword(a.reader, "Master password", a.out)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("master password required")
	}
	return pw, nil
}

func (a *App) entryID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	id, err := GetSimpleText(a.reader, "Entry ID", a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("entry id required")
	}
	return id, nil
}
