package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/domain"
)

var errUserRequired = errors.New("this command needs a signed-in user (--user)")

func (a *App) newSession(guest app.GuestStorage) *app.Session {
	return app.NewSession(a.Catalog, a.Durable, app.SessionOptions{
		Store: a.Store,
		Guest: guest,
		Log:   a.Log,
	})
}

// withSession opens a session for the --user flag, runs fn, and always
// closes the session so pending saves are flushed.
func (a *App) withSession(ctx context.Context, fn func(s *app.Session) error) (err error) {
	s := a.newSession(a.Guest)
	if err := s.Open(ctx, a.userID); err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if cerr := s.Close(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing session: %w", cerr))
		}
	}()
	return fn(s)
}

// withImportedGuest signs --user in with an explicit guest snapshot. The
// default guest storage is left untouched.
func (a *App) withImportedGuest(ctx context.Context, guest *domain.Snapshot, fn func(s *app.Session) error) (err error) {
	s := a.newSession(nil)
	if err := s.OpenWithGuest(ctx, a.userID, guest); err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if cerr := s.Close(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing session: %w", cerr))
		}
	}()
	return fn(s)
}
