package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/repository"
	"github.com/google/uuid"
)

type certificateService struct {
	certificates repository.CertificateRepo
	uow          db.UnitOfWork
	observer     UseCaseObserver
	now          func() time.Time
}

func NewCertificateService(certificates repository.CertificateRepo, uow db.UnitOfWork, observers ...UseCaseObserver) CertificateService {
	return &certificateService{
		certificates: certificates,
		uow:          uow,
		observer:     useCaseObserverOrNoop(observers),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Issue returns the user's certificate, creating it on first call. Repeat
// calls return the original record unchanged.
func (s *certificateService) Issue(ctx context.Context, userID, recipientName, recipientEmail string, programComplete bool) (cert *domain.Certificate, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "recipient_email": recipientEmail}
	defer observe(ctx, s.observer, "issue-certificate", startedAt, fields, &err)

	if !programComplete {
		return nil, ErrProgramIncomplete
	}
	recipientName = strings.TrimSpace(recipientName)
	if recipientName == "" {
		return nil, ErrRecipientRequired
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteCertificateRepo(tx)

		existing, err := repo.GetByUserID(ctx, userID)
		if err == nil {
			cert = existing
			fields["created"] = false
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		cert = &domain.Certificate{
			ID:             uuid.New().String(),
			UserID:         userID,
			RecipientName:  recipientName,
			RecipientEmail: strings.TrimSpace(recipientEmail),
			IssuedAt:       s.now(),
		}
		fields["created"] = true
		return repo.Create(ctx, cert)
	})
	if err != nil {
		return nil, fmt.Errorf("issuing certificate: %w", err)
	}
	fields["certificate_id"] = cert.ID
	return cert, nil
}

func (s *certificateService) Get(ctx context.Context, userID string) (*domain.Certificate, error) {
	return s.certificates.GetByUserID(ctx, userID)
}

// Verify resolves a public certificate id. Malformed ids are reported as
// not found without touching storage.
func (s *certificateService) Verify(ctx context.Context, certificateID string) (*domain.CertificateVerification, error) {
	if _, err := uuid.Parse(certificateID); err != nil {
		return nil, fmt.Errorf("certificate: %w", repository.ErrNotFound)
	}
	cert, err := s.certificates.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	v := cert.Verification()
	return &v, nil
}
