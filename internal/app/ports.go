package app

import (
	"context"

	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/reconcile"
	"github.com/alexanderramin/learnpath/internal/store"
)

// Durable is everything a Session needs from durable storage.
type Durable interface {
	store.Persister
	reconcile.Durable
}

type CertificateUseCase interface {
	Issue(ctx context.Context, userID, recipientName, recipientEmail string, programComplete bool) (*domain.Certificate, error)
	Get(ctx context.Context, userID string) (*domain.Certificate, error)
	Verify(ctx context.Context, certificateID string) (*domain.CertificateVerification, error)
}

// GuestStorage keeps anonymous progress between runs.
type GuestStorage interface {
	Load() (*domain.Snapshot, error)
	Save(snap *domain.Snapshot) error
	Clear() error
}
