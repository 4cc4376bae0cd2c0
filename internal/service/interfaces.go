package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/learnpath/internal/domain"
)

var (
	// ErrProgramIncomplete rejects certificate issuance before every course
	// is completed or credited.
	ErrProgramIncomplete = errors.New("program is not complete")
	// ErrRecipientRequired rejects certificate issuance without a name.
	ErrRecipientRequired = errors.New("recipient name is required")
)

type CertificateService interface {
	Issue(ctx context.Context, userID, recipientName, recipientEmail string, programComplete bool) (*domain.Certificate, error)
	Get(ctx context.Context, userID string) (*domain.Certificate, error)
	Verify(ctx context.Context, certificateID string) (*domain.CertificateVerification, error)
}
