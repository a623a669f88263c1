package retrieve

import (
	"context"
	"io"
	"net/http"

	"github.com/idcmap/idcmap/internal/config"
)

// PageRetriever obtains the textual/markup payload for "page N" of a
// directory listing using one retrieval mechanism. Implementations are
// polymorphic over this interface and tried in priority order by the
// traversal controller.
//
// Fetch must honor ctx cancellation and per-request timeouts; a timed-out
// attempt is reported as StatusTransient, never as a fatal error.
type PageRetriever interface {
	// Fetch attempts to obtain page pageIndex (1-based).
	Fetch(ctx context.Context, pageIndex int) Result

	// Name returns the mechanism name used in provenance tags and stats.
	Name() string
}

// Headers is the header set applied to every outgoing HTTP request.
// Directory sites serve reduced markup to clients without a plausible
// browser identity.
type Headers struct {
	UserAgent      string
	Referer        string
	AcceptLanguage string
	Cookie         string
	Extra          map[string]string
}

// DefaultHeaders returns the standard header set for directory fetches.
func DefaultHeaders() Headers {
	return Headers{
		UserAgent:      config.DefaultUserAgent,
		AcceptLanguage: config.DefaultAcceptLanguage,
	}
}

// apply sets the headers on an outgoing request.
func (h Headers) apply(req *http.Request) {
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	if h.Referer != "" {
		req.Header.Set("Referer", h.Referer)
	}
	if h.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", h.AcceptLanguage)
	}
	if h.Cookie != "" {
		req.Header.Set("Cookie", h.Cookie)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
	for k, v := range h.Extra {
		req.Header.Set(k, v)
	}
}

// fetchBody performs one GET and reads the body up to maxBody bytes.
// It returns the body, the Content-Type, and the HTTP status code.
func fetchBody(ctx context.Context, client *http.Client, url string, headers Headers, maxBody int64) (string, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", 0, err
	}
	headers.apply(req)

	resp, err := client.Do(req)
	if err != nil {
		return "", "", 0, err
	}
	defer resp.Body.Close()

	if maxBody <= 0 {
		maxBody = config.DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", "", resp.StatusCode, err
	}

	return string(body), resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// minUsefulBody is the smallest body length treated as content. Error
// pages and empty JSON envelopes fall below it.
const minUsefulBody = 64
