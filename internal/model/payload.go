package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// MaxPayloadSize is the maximum payload body size to retain.
// Larger responses are truncated to prevent memory exhaustion from
// unexpectedly large pages.
const MaxPayloadSize = 5 * 1024 * 1024 // 5 MB

// Payload is the raw textual/markup result of one page retrieval.
// It carries enough provenance for logging, caching, and the per-candidate
// source tags, but no parsed content: parsing is the extractor's job.
type Payload struct {
	// URL is the URL the payload was fetched from, if the mechanism has one.
	// Simulated-interaction payloads carry the session's current URL.
	URL string `json:"url"`

	// Mechanism names the retrieval mechanism that produced the payload
	// (e.g. "parametric", "endpoint", "interaction", "cluster").
	Mechanism string `json:"mechanism"`

	// PageIndex is the 1-based page number this payload represents.
	PageIndex int `json:"page_index"`

	// ContentType is the MIME type reported by the server, when known.
	ContentType string `json:"content_type,omitempty"`

	// Body is the raw text of the response or rendered page state.
	Body string `json:"-"`

	// Hash is the SHA-256 hash of Body, used for repeated-content
	// detection and cache keying.
	Hash string `json:"hash"`

	// FetchedAt records when the payload was obtained.
	FetchedAt time.Time `json:"fetched_at"`
}

// NewPayload builds a Payload for the given mechanism and page, truncating
// the body to MaxPayloadSize and computing the content hash.
func NewPayload(mechanism string, pageIndex int, url, body string) *Payload {
	if len(body) > MaxPayloadSize {
		body = body[:MaxPayloadSize]
	}
	p := &Payload{
		URL:       url,
		Mechanism: mechanism,
		PageIndex: pageIndex,
		Body:      body,
		FetchedAt: time.Now(),
	}
	p.ComputeHash()
	return p
}

// ComputeHash recomputes the SHA-256 hash of the payload body.
func (p *Payload) ComputeHash() {
	p.Hash = HashBody(p.Body)
}

// HashBody returns the SHA-256 hex digest of a payload body. Retrieval
// mechanisms use it for repeated-content detection.
func HashBody(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// IsJSON reports whether the payload looks like a JSON document, either by
// content type or by its leading byte. Background-endpoint responses are
// treated as authoritative when JSON.
func (p *Payload) IsJSON() bool {
	if strings.Contains(p.ContentType, "application/json") {
		return true
	}
	trimmed := strings.TrimSpace(p.Body)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// Source returns the provenance tag stamped onto candidates extracted from
// this payload, in "mechanism/pageN" form.
func (p *Payload) Source() string {
	return p.Mechanism + "/page" + strconv.Itoa(p.PageIndex)
}
