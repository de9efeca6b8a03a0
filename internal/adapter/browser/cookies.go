package browser

import (
	"math"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"

	"github.com/cwygoda/morgue/internal/domain"
)

// fromBrowserCookies converts cookies read from the browser. Session
// cookies come back without an expiry.
func fromBrowserCookies(cookies []*network.Cookie) []domain.SessionCookie {
	out := make([]domain.SessionCookie, 0, len(cookies))
	for _, c := range cookies {
		sc := domain.SessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if !c.Session && c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			sc.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}
		out = append(out, sc)
	}
	return out
}

// toCookieParams converts stored cookies for injection. Cookies without a
// domain are scoped to origin.
func toCookieParams(cookies []domain.SessionCookie, origin string) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Domain == "" {
			p.URL = origin
		}
		if p.Path == "" {
			p.Path = "/"
		}
		if !c.Expires.IsZero() {
			ts := cdp.TimeSinceEpoch(c.Expires)
			p.Expires = &ts
		}
		params = append(params, p)
	}
	return params
}
