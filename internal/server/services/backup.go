package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	sc "github.com/dmitrijs2005/gophvault/internal/server/config"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const backupFormatVersion = 1

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Backup describes an uploaded export.
type Backup struct {
	Key       string
	URL       string
	ExpiresAt time.Time
	Items     int
}

// backupBundle is the uploaded document. It holds envelopes exactly as
// stored; nothing in it is readable without the master password.
type backupBundle struct {
	Version    int          `json:"version"`
	UserID     string       `json:"user_id"`
	ExportedAt time.Time    `json:"exported_at"`
	Items      []backupItem `json:"items"`
}

type backupItem struct {
	ID            string    `json:"id"`
	EncryptedData string    `json:"encrypted_data"`
	Category      *string   `json:"category,omitempty"`
	Favorite      bool      `json:"favorite"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BackupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	audit       *AuditService
	logger      logging.Logger
}

func NewBackupService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	audit *AuditService, l logging.Logger) *BackupService {
	return &BackupService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		audit:       audit,
		logger:      l.With("module", "backup"),
	}
}

func backupStorageKey(userID string, d time.Time) string {
	return fmt.Sprintf("backups/%s/%d/%d/%d/%v.json", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *BackupService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *BackupService) bundle(ctx context.Context, userID string, now time.Time) (*backupBundle, error) {
	items, err := s.repomanager.VaultItems(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing vault items: %w", err)
	}

	b := &backupBundle{
		Version:    backupFormatVersion,
		UserID:     userID,
		ExportedAt: now.UTC(),
		Items:      make([]backupItem, 0, len(items)),
	}
	for _, it := range items {
		b.Items = append(b.Items, backupItem{
			ID:            it.ID,
			EncryptedData: it.EncryptedData,
			Category:      it.Category,
			Favorite:      it.Favorite,
			CreatedAt:     it.CreatedAt,
			UpdatedAt:     it.UpdatedAt,
		})
	}
	return b, nil
}

// Export uploads the user's encrypted vault to object storage and returns a
// presigned download link.
func (s *BackupService) Export(ctx context.Context, userID string) (*Backup, error) {

	now := timeNow()
	b, err := s.bundle(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("error encoding backup: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := backupStorageKey(userID, now)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading backup: %w", err)
	}

	ttl := s.config.BackupLinkTTL
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("error presigning backup: %w", err)
	}

	s.audit.Record(ctx, userID, models.AuditBackupExported, key)
	s.logger.Info(ctx, "backup exported", "user_id", userID, "items", len(b.Items))

	return &Backup{Key: key, URL: req.URL, ExpiresAt: now.Add(ttl), Items: len(b.Items)}, nil
}
