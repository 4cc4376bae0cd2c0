package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
)

// SQLiteCertificateRepo implements CertificateRepo using a SQLite database.
type SQLiteCertificateRepo struct {
	db db.DBTX
}

func NewSQLiteCertificateRepo(conn db.DBTX) *SQLiteCertificateRepo {
	return &SQLiteCertificateRepo{db: conn}
}

// Create inserts c. Certificates are immutable; a second certificate for the
// same user violates UNIQUE(user_id).
func (r *SQLiteCertificateRepo) Create(ctx context.Context, c *domain.Certificate) error {
	query := `INSERT INTO certificates (id, user_id, recipient_name, recipient_email, issued_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.RecipientName,
		c.RecipientEmail,
		formatTime(c.IssuedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting certificate: %w", err)
	}
	return nil
}

func (r *SQLiteCertificateRepo) GetByID(ctx context.Context, id string) (*domain.Certificate, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *SQLiteCertificateRepo) GetByUserID(ctx context.Context, userID string) (*domain.Certificate, error) {
	return r.getOne(ctx, `WHERE user_id = ?`, userID)
}

func (r *SQLiteCertificateRepo) getOne(ctx context.Context, where string, arg string) (*domain.Certificate, error) {
	query := `SELECT id, user_id, recipient_name, recipient_email, issued_at FROM certificates ` + where

	var (
		c        domain.Certificate
		issuedAt string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.UserID, &c.RecipientName, &c.RecipientEmail, &issuedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("certificate: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning certificate: %w", err)
	}
	c.IssuedAt = parseTime(issuedAt)
	return &c, nil
}
