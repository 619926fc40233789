package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/auth"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	auditrepo "github.com/dmitrijs2005/gophvault/internal/server/repositories/audit"
	usersrepo "github.com/dmitrijs2005/gophvault/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/vaultitems"
	"github.com/google/uuid"
)

// --- in-memory repositories ---

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	order []string

	getErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]*models.User)}
}

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		existing := r.byID[id]
		if existing.Email == u.Email {
			return nil, fmt.Errorf("email: %w", common.ErrAlreadyExists)
		}
		if existing.Username == u.Username {
			return nil, fmt.Errorf("username: %w", common.ErrAlreadyExists)
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.byID[c.ID] = &c
	r.order = append(r.order, c.ID)
	out := c
	return &out, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUsers) update(id string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (r *memUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *models.User) { u.LastLoginAt = &at })
}

func (r *memUsers) SetPendingMfa(_ context.Context, id, envelope string) error {
	return r.update(id, func(u *models.User) { u.MfaPendingSecret = &envelope })
}

func (r *memUsers) EnableMfa(_ context.Context, id, envelope string) error {
	return r.update(id, func(u *models.User) {
		u.MfaEnabled = true
		u.MfaSecretEncrypted = &envelope
		u.MfaPendingSecret = nil
	})
}

func (r *memUsers) DisableMfa(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) {
		u.MfaEnabled = false
		u.MfaSecretEncrypted = nil
		u.MfaPendingSecret = nil
	})
}

func (r *memUsers) get(id string) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byID[id]
}

type memItems struct {
	mu    sync.Mutex
	items []*models.VaultItem

	// lookups records the ids Get and Delete were asked for.
	lookups []string
}

func (r *memItems) Create(_ context.Context, item *models.VaultItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	c := *item
	r.items = append(r.items, &c)
	return nil
}

func (r *memItems) find(userID, id string) *models.VaultItem {
	for _, it := range r.items {
		if it.ID == id && it.UserID == userID {
			return it
		}
	}
	return nil
}

func (r *memItems) Get(_ context.Context, userID, id string) (*models.VaultItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, id)
	it := r.find(userID, id)
	if it == nil {
		return nil, common.ErrorNotFound
	}
	c := *it
	return &c, nil
}

func (r *memItems) ListByUser(_ context.Context, userID string) ([]*models.VaultItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.VaultItem
	for _, it := range r.items {
		if it.UserID == userID {
			c := *it
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memItems) Update(_ context.Context, item *models.VaultItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.find(item.UserID, item.ID)
	if it == nil {
		return common.ErrorNotFound
	}
	item.UpdatedAt = time.Now()
	*it = *item
	return nil
}

func (r *memItems) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, id)
	for i, it := range r.items {
		if it.ID == id && it.UserID == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

// raw returns the stored item so tests can tamper with it.
func (r *memItems) raw(id string) *models.VaultItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

type memAudit struct {
	mu     sync.Mutex
	events []*models.AuditEvent
	logErr error
}

func (r *memAudit) Log(_ context.Context, e *models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logErr != nil {
		return r.logErr
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	r.events = append(r.events, e)
	return nil
}

func (r *memAudit) ListByUser(_ context.Context, userID string, limit int) ([]*models.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if e := r.events[i]; e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type memRepoManager struct {
	users *memUsers
	items *memItems
	audit *memAudit
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *memRepoManager) VaultItems(dbx.DBTX) vaultitems.Repository    { return m.items }
func (m *memRepoManager) Audit(dbx.DBTX) auditrepo.Repository          { return m.audit }

// --- environment ---

const testPassword = "Correct-Horse-9!"

type testEnv struct {
	db     *sql.DB
	mock   sqlmock.Sqlmock
	rm     *memRepoManager
	cfg    *config.Config
	tokens *auth.TokenIssuer
	audit  *AuditService
	users  *UserService
	mfa    *MfaService
	vault  *VaultService
}

func cheapConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
		Argon2Time:                  1,
		Argon2MemoryKiB:             64,
		Argon2Threads:               1,
		KdfWorkers:                  2,
		KdfQueue:                    16,
		MfaIssuer:                   "GophVault",
		S3Bucket:                    "vault",
		S3Region:                    "us-east-1",
		S3RootUser:                  "minioadmin",
		S3RootPassword:              "minioadmin",
		S3BaseEndpoint:              "http://127.0.0.1:9000",
		BackupLinkTTL:               15 * time.Minute,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := cheapConfig()
	tokens, err := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}

	rm := &memRepoManager{users: newMemUsers(), items: &memItems{}, audit: &memAudit{}}
	l := logging.Nop()
	audit := NewAuditService(db, rm, l)
	users := NewUserService(db, rm, cfg, tokens, audit, l)

	return &testEnv{
		db:     db,
		mock:   mock,
		rm:     rm,
		cfg:    cfg,
		tokens: tokens,
		audit:  audit,
		users:  users,
		mfa:    NewMfaService(db, rm, users, audit, cfg, l),
		vault:  NewVaultService(db, rm, users, audit, l),
	}
}

// register creates a user inside the sqlmock transaction Register opens.
func (e *testEnv) register(t *testing.T, email, username string) *models.User {
	t.Helper()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	u, err := e.users.Register(context.Background(), email, username, testPassword)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }
