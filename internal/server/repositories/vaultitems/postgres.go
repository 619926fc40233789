package vaultitems

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.VaultItem) error {
	query :=
		`INSERT INTO vault_items (id, user_id, encrypted_data, category, favorite)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.UserID, item.EncryptedData, item.Category, item.Favorite).
		Scan(&item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.VaultItem, error) {
	query :=
		`SELECT id, user_id, encrypted_data, category, favorite, created_at, updated_at
		 FROM vault_items
		 WHERE id = $1 AND user_id = $2
		 `

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.VaultItem, error) {
	query :=
		`SELECT id, user_id, encrypted_data, category, favorite, created_at, updated_at
		 FROM vault_items
		 WHERE user_id = $1
		 ORDER BY favorite DESC, updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.VaultItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, item *models.VaultItem) error {
	query :=
		`UPDATE vault_items
		 SET encrypted_data = $3, category = $4, favorite = $5, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.UserID, item.EncryptedData, item.Category, item.Favorite).
		Scan(&item.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query :=
		`DELETE FROM vault_items
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.VaultItem, error) {
	var (
		item     models.VaultItem
		category sql.NullString
	)
	if err := s.Scan(&item.ID, &item.UserID, &item.EncryptedData, &category,
		&item.Favorite, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if category.Valid {
		item.Category = &category.String
	}
	return &item, nil
}
