package browser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cwygoda/morgue/internal/domain"
)

const (
	signInPath  = "/auth/sign_in"
	listingPath = "/sidekiq/morgue"

	emailField    = "#user_email"
	passwordField = "#user_password"
	signInButton  = "button[type=submit]"

	lastPageLink = ".pagination li:last-child a"
	rowsSelector = "table tbody tr"
)

var (
	ErrSignInFailed = errors.New("sign in failed")
	ErrNoPageNumber = errors.New("no page number in url")
)

var pageParam = regexp.MustCompile(`page=(\d+)$`)

// readRowsJS returns the text of every cell of every listing row.
const readRowsJS = `Array.from(document.querySelectorAll(` + "`" + rowsSelector + "`" + `)).map(
	tr => Array.from(tr.querySelectorAll('td')).map(td => td.textContent || '')
)`

// checkRowJS checks the selection box of row %d unless it is already
// checked, and reports whether the box exists.
const checkRowJS = `(() => {
	const row = document.querySelectorAll(` + "`" + rowsSelector + "`" + `)[%d];
	const box = row && row.querySelector('td:first-child input');
	if (!box) return false;
	if (!box.checked) box.click();
	return true;
})()`

const scrollToBottomJS = `window.scrollTo(0, document.body.scrollHeight)`

// baseURL turns the configured console host into an origin. A host that
// already carries a scheme is used as is.
func baseURL(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

func signInURL(base string) string {
	return base + signInPath
}

// listingURL returns the dead job listing URL. Pages below 1 give the
// unpaginated listing.
func listingURL(base string, page int) string {
	if page < 1 {
		return base + listingPath
	}
	return fmt.Sprintf("%s%s?page=%d", base, listingPath, page)
}

// isSignInURL reports whether the console redirected to its sign-in form.
func isSignInURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Path == signInPath
}

// parseLastPage extracts the page number the URL ends with.
func parseLastPage(raw string) (int, error) {
	m := pageParam.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoPageNumber, raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoPageNumber, raw)
	}
	return n, nil
}

// bulkButtonSelector returns the submit control of the listing form for an
// action. The console names the discard control "delete".
func bulkButtonSelector(action domain.Action) (string, error) {
	var name string
	switch action {
	case domain.ActionDiscard:
		name = "delete"
	case domain.ActionRetry:
		name = "retry"
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownAction, action)
	}
	return fmt.Sprintf(`form[action="%s"] input[type=submit][name=%s]`, listingPath, name), nil
}
