package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alexanderramin/learnpath/internal/repository"
	"github.com/alexanderramin/learnpath/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCertificateService(t *testing.T) (CertificateService, *repository.SQLiteCertificateRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteCertificateRepo(database)
	return NewCertificateService(repo, testutil.NewTestUoW(database)), repo
}

func TestCertificateService_RejectsIncompleteProgram(t *testing.T) {
	svc, repo := newTestCertificateService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "u1", "Ada", "ada@example.com", false)
	assert.ErrorIs(t, err, ErrProgramIncomplete)

	_, err = repo.GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCertificateService_RequiresName(t *testing.T) {
	svc, _ := newTestCertificateService(t)

	_, err := svc.Issue(context.Background(), "u1", "   ", "ada@example.com", true)
	assert.ErrorIs(t, err, ErrRecipientRequired)
}

func TestCertificateService_IssueIsLookupOrCreate(t *testing.T) {
	svc, _ := newTestCertificateService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "u1", "Ada Lovelace", "ada@example.com", true)
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err, "certificate ids are UUIDs")

	second, err := svc.Issue(ctx, "u1", "Someone Else", "other@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ada Lovelace", second.RecipientName, "existing certificate is returned unchanged")
	assert.True(t, first.IssuedAt.Equal(second.IssuedAt))

	other, err := svc.Issue(ctx, "u2", "Grace Hopper", "", true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCertificateService_ConcurrentIssueCreatesOne(t *testing.T) {
	svc, _ := newTestCertificateService(t)
	ctx := context.Background()

	ids := make([]string, 6)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert, err := svc.Issue(ctx, "u1", "Ada", "ada@example.com", true)
			if err == nil {
				ids[i] = cert.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCertificateService_Verify(t *testing.T) {
	svc, _ := newTestCertificateService(t)
	ctx := context.Background()

	cert, err := svc.Issue(ctx, "u1", "Ada Lovelace", "ada@example.com", true)
	require.NoError(t, err)

	v, err := svc.Verify(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, v.CertificateID)
	assert.Equal(t, "Ada Lovelace", v.RecipientName)
	assert.True(t, cert.IssuedAt.Equal(v.IssuedAt))

	_, err = svc.Verify(ctx, uuid.New().String())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Verify(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCertificateService_Get(t *testing.T) {
	svc, _ := newTestCertificateService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cert, err := svc.Issue(ctx, "u1", "Ada", "", true)
	require.NoError(t, err)
	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cert.ID, got.ID)
}

func TestCertificateService_RollbackOnInsertFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteCertificateRepo(database)
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 1, Err: errors.New("injected failure")}
	svc := NewCertificateService(repo, uow)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "u1", "Ada", "", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")

	_, err = repo.GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
