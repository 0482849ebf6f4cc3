package sqlite

import (
	"context"
	"errors"
	"fmt"

	"kamaris/internal/storage"
)

func (s *Store) CreateAdmin(ctx context.Context, username, passwordHash string) (*storage.Admin, error) {
	query := `INSERT INTO admins (username, password_hash)
		VALUES (?, ?)
		RETURNING *`

	var admin storage.Admin
	if err := s.db.GetContext(ctx, &admin, query, username, passwordHash); err != nil {
		return nil, fmt.Errorf("cannot create admin %q: %w", username, mapSqlError(err))
	}
	return &admin, nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*storage.Admin, error) {
	query := `SELECT * FROM admins
		WHERE username = ?
		LIMIT 1`

	var admin storage.Admin
	if err := s.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, fmt.Errorf("cannot find admin %q: %w", username, mapSqlError(err))
	}
	return &admin, nil
}

// IsAdmin is a plain existence lookup in the allow-list table.
func (s *Store) IsAdmin(ctx context.Context, adminID int64) (bool, error) {
	query := `SELECT id FROM admins
		WHERE id = ?
		LIMIT 1`

	var id int64
	if err := s.db.GetContext(ctx, &id, query, adminID); err != nil {
		if errors.Is(mapSqlError(err), storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("admin lookup failed: %w", mapSqlError(err))
	}
	return true, nil
}
