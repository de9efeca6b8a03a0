package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/cwygoda/morgue/internal/domain"
)

// Options configures a console session.
type Options struct {
	Host     string
	Email    string
	Password string
	Headless bool
	// Timeout bounds sign-in and every page load. Zero means no bound.
	Timeout time.Duration
}

// Session drives one headless browser tab against the console.
// It implements domain.Console and is not safe for concurrent use.
type Session struct {
	opts   Options
	origin string
	store  domain.SessionStore
	logger *slog.Logger

	guard *authGuard
	// current is the listing page last opened, reopened after a re-login.
	current string

	tab    context.Context
	cancel context.CancelFunc
}

// New launches the browser, restores saved cookies for the host and signs
// in when none were restored. store may be nil.
func New(ctx context.Context, opts Options, store domain.SessionStore, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:   opts,
		origin: baseURL(opts.Host),
		store:  store,
		logger: logger.With("host", opts.Host),
		tab:    tab,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}

	s.guard = &authGuard{pages: s, store: store, host: opts.Host, logger: s.logger}

	if err := chromedp.Run(tab, network.Enable()); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	restored, err := s.restoreCookies(ctx)
	if err != nil {
		s.logger.Warn("restore session cookies", "error", err)
	}
	if restored == 0 {
		if err := s.SignIn(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	s.cancel()
}

// scope derives a context from the tab that is cancelled with ctx and
// carries the session timeout, whichever ends first.
func (s *Session) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.tab)
	cancels := []context.CancelFunc{cancel}
	if dl, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(runCtx, dl)
		cancels = append(cancels, cancel)
	}
	if s.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, s.opts.Timeout)
		cancels = append(cancels, cancel)
	}
	stop := context.AfterFunc(ctx, cancels[0])
	return runCtx, func() {
		stop()
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
	}
}

// SignIn submits the credentials form and persists the resulting cookies.
func (s *Session) SignIn(ctx context.Context) error {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	s.logger.Info("signing in")
	err := chromedp.Run(runCtx,
		chromedp.Navigate(signInURL(s.origin)),
		chromedp.WaitVisible(emailField, chromedp.ByQuery),
		chromedp.SendKeys(emailField, s.opts.Email, chromedp.ByQuery),
		chromedp.WaitVisible(passwordField, chromedp.ByQuery),
		chromedp.SendKeys(passwordField, s.opts.Password, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: fill form: %v", ErrSignInFailed, err)
	}
	if _, err := chromedp.RunResponse(runCtx, chromedp.Click(signInButton, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("%w: submit: %v", ErrSignInFailed, err)
	}

	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}
	if isSignInURL(loc) {
		return fmt.Errorf("%w: credentials rejected", ErrSignInFailed)
	}
	s.logger.Info("logged in")

	if err := s.saveCookies(runCtx); err != nil {
		s.logger.Warn("save session cookies", "error", err)
	}
	return nil
}

func (s *Session) restoreCookies(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	cookies, err := s.store.LoadCookies(ctx, s.opts.Host)
	if err != nil {
		return 0, err
	}
	if len(cookies) == 0 {
		return 0, nil
	}

	runCtx, cancel := s.scope(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, network.SetCookies(toCookieParams(cookies, s.origin))); err != nil {
		return 0, err
	}
	s.logger.Info("restored session cookies", "count", len(cookies))
	return len(cookies), nil
}

// saveCookies runs on a context already derived from the tab.
func (s *Session) saveCookies(runCtx context.Context) error {
	if s.store == nil {
		return nil
	}
	var cookies []*network.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{s.origin}).Do(ctx)
		return err
	}))
	if err != nil {
		return err
	}
	return s.store.SaveCookies(runCtx, s.opts.Host, fromBrowserCookies(cookies))
}

func (s *Session) load(ctx context.Context, url string) (string, error) {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	var loc string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&loc),
	)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", url, err)
	}
	return loc, nil
}

// Open implements domain.Console.
func (s *Session) Open(ctx context.Context, page int) error {
	url := listingURL(s.origin, page)
	if err := s.guard.open(ctx, url); err != nil {
		return err
	}
	s.current = url
	return nil
}

// LastPage implements domain.Console.
func (s *Session) LastPage(ctx context.Context) (int, error) {
	if err := s.guard.open(ctx, listingURL(s.origin, 0)); err != nil {
		return 0, err
	}
	s.current = listingURL(s.origin, 0)

	runCtx, cancel := s.scope(ctx)
	defer cancel()

	var links []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(lastPageLink, &links, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return 0, fmt.Errorf("find pagination: %w", err)
	}
	if len(links) == 0 {
		return 1, nil
	}

	if _, err := chromedp.RunResponse(runCtx, chromedp.Click(lastPageLink, chromedp.ByQuery)); err != nil {
		return 0, fmt.Errorf("follow last page link: %w", err)
	}
	s.logger.Info("navigated to the last page")

	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return 0, err
	}
	s.current = loc
	return parseLastPage(loc)
}

// ReadRows implements domain.RowReader.
func (s *Session) ReadRows(ctx context.Context) ([][]string, error) {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	var rows [][]string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(readRowsJS, &rows)); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// Select implements domain.RowSelector.
func (s *Session) Select(ctx context.Context, index int) error {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	var found bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(checkRowJS, index), &found)); err != nil {
		return fmt.Errorf("select row %d: %w", index, err)
	}
	if !found {
		return fmt.Errorf("select row %d: no selection box", index)
	}
	return nil
}

// SubmitBulk implements domain.BulkSubmitter.
func (s *Session) SubmitBulk(ctx context.Context, action domain.Action) error {
	button, err := bulkButtonSelector(action)
	if err != nil {
		return err
	}

	runCtx, cancel := s.scope(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(scrollToBottomJS, nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	resp, err := chromedp.RunResponse(runCtx, chromedp.Click(button, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		return err
	}
	if resp != nil && resp.Status >= 500 {
		return fmt.Errorf("%s returned status %d", action, resp.Status)
	}

	var landed string
	if err := chromedp.Run(runCtx, chromedp.Location(&landed)); err != nil {
		return fmt.Errorf("read location after %s: %w", action, err)
	}
	return s.guard.afterSubmit(ctx, landed, s.current)
}
