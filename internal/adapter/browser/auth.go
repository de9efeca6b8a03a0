package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwygoda/morgue/internal/domain"
)

// ErrSignedOut is returned when a bulk action landed on the sign-in form
// instead of the listing, so nothing was applied.
var ErrSignedOut = errors.New("signed out during bulk action")

// pager loads console pages and signs in. Session implements it.
type pager interface {
	load(ctx context.Context, url string) (string, error)
	SignIn(ctx context.Context) error
}

// authGuard restores the session when the console answers with its
// sign-in form.
type authGuard struct {
	pages  pager
	store  domain.SessionStore
	host   string
	logger *slog.Logger
}

// open loads url, signing in again once if the console redirects to the
// sign-in form.
func (g *authGuard) open(ctx context.Context, url string) error {
	loc, err := g.pages.load(ctx, url)
	if err != nil {
		return err
	}
	if !isSignInURL(loc) {
		return nil
	}

	if err := g.reauthenticate(ctx); err != nil {
		return err
	}

	loc, err = g.pages.load(ctx, url)
	if err != nil {
		return err
	}
	if isSignInURL(loc) {
		return fmt.Errorf("%w: redirected after sign in", ErrSignInFailed)
	}
	return nil
}

// afterSubmit checks where a bulk action landed. Landing on the sign-in
// form means the action was lost: the session is restored, returnTo is
// reopened and ErrSignedOut is returned so the caller counts a failure.
func (g *authGuard) afterSubmit(ctx context.Context, landed, returnTo string) error {
	if !isSignInURL(landed) {
		return nil
	}
	g.logger.Warn("bulk action landed on sign in", "return_to", returnTo)

	if err := g.reauthenticate(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSignedOut, err)
	}
	if returnTo != "" {
		if err := g.open(ctx, returnTo); err != nil {
			return fmt.Errorf("%w: reopen %s: %v", ErrSignedOut, returnTo, err)
		}
	}
	return ErrSignedOut
}

func (g *authGuard) reauthenticate(ctx context.Context) error {
	g.logger.Info("session expired")
	if g.store != nil {
		if err := g.store.ClearCookies(ctx, g.host); err != nil {
			g.logger.Warn("clear session cookies", "error", err)
		}
	}
	return g.pages.SignIn(ctx)
}
