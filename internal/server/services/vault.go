package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/server/strength"
	"github.com/google/uuid"
)

// KeyDeriver hands out a per-request vault key. *UserService implements it.
type KeyDeriver interface {
	DeriveVaultKey(ctx context.Context, userID, masterPassword string) (*VaultKey, error)
}

// EntryInput is a new vault entry.
type EntryInput struct {
	Title    string
	Username *string
	Password string
	URL      *string
	Notes    *string
	Category *string
	Favorite bool
}

// EntryPatch changes only the non-nil fields. An empty string clears an
// optional field.
type EntryPatch struct {
	Title    *string
	Username *string
	Password *string
	URL      *string
	Notes    *string
	Category *string
	Favorite *bool
}

// Entry is a decrypted vault entry.
type Entry struct {
	ID        string
	Title     string
	Username  *string
	Password  string
	URL       *string
	Notes     *string
	Category  *string
	Favorite  bool
	Strength  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntrySummary is an entry as shown in lists; it never carries the password.
type EntrySummary struct {
	ID        string
	Title     string
	Username  *string
	URL       *string
	Category  *string
	Favorite  bool
	Strength  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        KeyDeriver
	audit       *AuditService
	logger      logging.Logger
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, keys KeyDeriver,
	audit *AuditService, l logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		keys:        keys,
		audit:       audit,
		logger:      l.With("module", "vault"),
	}
}

func (in *EntryInput) validate() error {
	if err := checkLen("title", &in.Title, 1, maxTitleLen); err != nil {
		return err
	}
	if err := checkLen("username", in.Username, 0, maxItemUserLen); err != nil {
		return err
	}
	if err := checkLen("password", &in.Password, 1, maxItemPassLen); err != nil {
		return err
	}
	if err := checkLen("url", in.URL, 0, maxURLLen); err != nil {
		return err
	}
	if err := checkLen("notes", in.Notes, 0, maxNotesLen); err != nil {
		return err
	}
	return checkLen("category", in.Category, 0, maxCategoryLen)
}

func (in *EntryInput) payload() models.VaultPayload {
	return models.VaultPayload{
		Title:    in.Title,
		Username: in.Username,
		Password: in.Password,
		URL:      in.URL,
		Notes:    in.Notes,
	}
}

// emptyToNil turns the "clear this field" marker into a missing value.
func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func newEntry(item *models.VaultItem, p *models.VaultPayload) *Entry {
	return &Entry{
		ID:        item.ID,
		Title:     p.Title,
		Username:  p.Username,
		Password:  p.Password,
		URL:       p.URL,
		Notes:     p.Notes,
		Category:  item.Category,
		Favorite:  item.Favorite,
		Strength:  strength.Analyze(p.Password).Score,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func newSummary(item *models.VaultItem, p *models.VaultPayload) *EntrySummary {
	return &EntrySummary{
		ID:        item.ID,
		Title:     p.Title,
		Username:  p.Username,
		URL:       p.URL,
		Category:  item.Category,
		Favorite:  item.Favorite,
		Strength:  strength.Analyze(p.Password).Score,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// open decrypts an item. Failures are integrity incidents: the master
// password was verified, so a well-formed envelope must open.
func (s *VaultService) open(ctx context.Context, item *models.VaultItem, key *VaultKey) (*models.VaultPayload, error) {
	var p models.VaultPayload
	if err := cryptox.Open(item.EncryptedData, key.Bytes(), &p); err != nil {
		s.logger.Error(ctx, "vault item failed to open", "item_id", item.ID, "error", err)
		return nil, err
	}
	return &p, nil
}

func (s *VaultService) Add(ctx context.Context, userID, masterPassword string, in EntryInput) (*Entry, error) {

	in.Username = emptyToNil(in.Username)
	in.URL = emptyToNil(in.URL)
	in.Notes = emptyToNil(in.Notes)
	in.Category = emptyToNil(in.Category)
	if err := in.validate(); err != nil {
		return nil, err
	}

	key, err := s.keys.DeriveVaultKey(ctx, userID, masterPassword)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	payload := in.payload()
	envelope, err := cryptox.Seal(payload, key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("error sealing vault item: %w", err)
	}

	item := &models.VaultItem{
		ID:            uuid.NewString(),
		UserID:        userID,
		EncryptedData: envelope,
		Category:      in.Category,
		Favorite:      in.Favorite,
	}

	if err := s.repomanager.VaultItems(s.db).Create(ctx, item); err != nil {
		return nil, fmt.Errorf("error creating vault item: %w", err)
	}

	s.audit.Record(ctx, userID, models.AuditVaultEntryAdded, "entry "+item.ID)
	return newEntry(item, &payload), nil
}

func (s *VaultService) List(ctx context.Context, userID, masterPassword string) ([]*EntrySummary, error) {

	key, err := s.keys.DeriveVaultKey(ctx, userID, masterPassword)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	items, err := s.repomanager.VaultItems(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing vault items: %w", err)
	}

	out := make([]*EntrySummary, 0, len(items))
	for _, item := range items {
		p, err := s.open(ctx, item, key)
		if err != nil {
			return nil, err
		}
		out = append(out, newSummary(item, p))
	}
	return out, nil
}

func (s *VaultService) Get(ctx context.Context, userID, masterPassword, id string) (*Entry, error) {

	key, err := s.keys.DeriveVaultKey(ctx, userID, masterPassword)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	item, err := s.getItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	p, err := s.open(ctx, item, key)
	if err != nil {
		return nil, err
	}
	return newEntry(item, p), nil
}

// itemID returns id in canonical UUID form. ok is false when id cannot name
// an item at all.
func itemID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func (s *VaultService) getItem(ctx context.Context, userID, id string) (*models.VaultItem, error) {
	id, ok := itemID(id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	item, err := s.repomanager.VaultItems(s.db).Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading vault item: %w", err)
	}
	return item, nil
}

func (s *VaultService) Update(ctx context.Context, userID, masterPassword, id string, patch EntryPatch) (*Entry, error) {

	key, err := s.keys.DeriveVaultKey(ctx, userID, masterPassword)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	item, err := s.getItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	p, err := s.open(ctx, item, key)
	if err != nil {
		return nil, err
	}

	in := EntryInput{
		Title:    p.Title,
		Username: p.Username,
		Password: p.Password,
		URL:      p.URL,
		Notes:    p.Notes,
		Category: item.Category,
		Favorite: item.Favorite,
	}
	if patch.Title != nil {
		in.Title = *patch.Title
	}
	if patch.Password != nil {
		in.Password = *patch.Password
	}
	if patch.Username != nil {
		in.Username = emptyToNil(patch.Username)
	}
	if patch.URL != nil {
		in.URL = emptyToNil(patch.URL)
	}
	if patch.Notes != nil {
		in.Notes = emptyToNil(patch.Notes)
	}
	if patch.Category != nil {
		in.Category = emptyToNil(patch.Category)
	}
	if patch.Favorite != nil {
		in.Favorite = *patch.Favorite
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	payload := in.payload()
	envelope, err := cryptox.Seal(payload, key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("error sealing vault item: %w", err)
	}

	item.EncryptedData = envelope
	item.Category = in.Category
	item.Favorite = in.Favorite

	if err := s.repomanager.VaultItems(s.db).Update(ctx, item); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating vault item: %w", err)
	}

	s.audit.Record(ctx, userID, models.AuditVaultEntryUpdate, "entry "+item.ID)
	return newEntry(item, &payload), nil
}

// Delete removes an entry. Ownership is enough; no key is derived.
func (s *VaultService) Delete(ctx context.Context, userID, id string) error {
	id, ok := itemID(id)
	if !ok {
		return common.ErrorNotFound
	}
	if err := s.repomanager.VaultItems(s.db).Delete(ctx, userID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting vault item: %w", err)
	}
	s.audit.Record(ctx, userID, models.AuditVaultEntryDelete, "entry "+id)
	return nil
}
