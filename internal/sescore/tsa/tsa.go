// Package tsa obtains trusted time values bound to a document hash from a
// list of timestamp authorities, degrading to an explicitly-flagged local
// timestamp when none is reachable.
//
// The wire token is a JSON blob, a stand-in for a real RFC 3161 response;
// callers must treat it as opaque.
package tsa

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/firmaleg/sescore/internal/sescore/logger"
)

// SourceLocalFallback marks a timestamp generated locally because no
// authority was reachable. Verified is always false for this source.
const SourceLocalFallback = "local_fallback"

// Authority is one timestamp endpoint, tried in configuration order.
type Authority struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Record is the timestamp bound to one signature. Created once at signing
// time and immutable thereafter. Verified=false is a legitimate state
// (authority unreachable), not an error.
type Record struct {
	Value        time.Time `json:"value"`
	Source       string    `json:"source"`
	Token        []byte    `json:"token,omitempty"`
	Verified     bool      `json:"verified"`
	SerialNumber string    `json:"serialNumber,omitempty"`
}

// RedundantResult is the join of concurrent requests to every authority.
type RedundantResult struct {
	Records  []Record `json:"records"`
	Verified []string `json:"verified"` // authority names that answered
}

// TokenVerification reports whether a token still binds its original hash.
type TokenVerification struct {
	Valid     bool       `json:"valid"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// token is the JSON structure exchanged with an authority.
type token struct {
	HashedMessage string    `json:"hashedMessage"`
	HashAlgorithm string    `json:"hashAlgorithm"`
	GenTime       time.Time `json:"genTime"`
	SerialNumber  string    `json:"serialNumber"`
	Authority     string    `json:"authority"`
	Nonce         string    `json:"nonce"`
}

type request struct {
	HashedMessage string `json:"hashedMessage"`
	HashAlgorithm string `json:"hashAlgorithm"`
	Nonce         string `json:"nonce"`
}

// Client queries timestamp authorities with a short per-attempt timeout.
type Client struct {
	authorities    []Authority
	httpClient     *http.Client
	attemptTimeout time.Duration
}

// NewClient builds a client over the ordered authority list.
func NewClient(authorities []Authority, attemptTimeout time.Duration) *Client {
	if attemptTimeout <= 0 {
		attemptTimeout = 5 * time.Second
	}
	return &Client{
		authorities:    authorities,
		httpClient:     &http.Client{Timeout: attemptTimeout},
		attemptTimeout: attemptTimeout,
	}
}

// GetTimestamp tries each authority in order and returns the first verified
// record. It never fails: when every authority is unreachable it returns a
// locally generated record with Source=local_fallback and Verified=false.
func (c *Client) GetTimestamp(ctx context.Context, documentHash string) Record {
	log := logger.L()
	for _, a := range c.authorities {
		rec, err := c.request(ctx, a, documentHash)
		if err != nil {
			log.Warnw("timestamp authority failed", "authority", a.Name, "err", err)
			continue
		}
		log.Debugw("timestamp obtained", "authority", a.Name, "serial", rec.SerialNumber)
		return rec
	}
	log.Warnw("all timestamp authorities unreachable, using local fallback",
		"authorities", len(c.authorities))
	return localFallback()
}

// GetRedundantTimestamps queries all authorities concurrently and returns
// every result plus the subset that verified. The overall operation succeeds
// if at least one authority answers; when none does, the single local
// fallback record is returned.
func (c *Client) GetRedundantTimestamps(ctx context.Context, documentHash string) RedundantResult {
	type outcome struct {
		rec  Record
		name string
		err  error
	}

	results := make([]outcome, len(c.authorities))
	var wg sync.WaitGroup
	for i, a := range c.authorities {
		wg.Add(1)
		go func(i int, a Authority) {
			defer wg.Done()
			rec, err := c.request(ctx, a, documentHash)
			results[i] = outcome{rec: rec, name: a.Name, err: err}
		}(i, a)
	}
	wg.Wait()

	var out RedundantResult
	for _, o := range results {
		if o.err != nil {
			logger.L().Warnw("redundant timestamp failed", "authority", o.name, "err", o.err)
			continue
		}
		out.Records = append(out.Records, o.rec)
		out.Verified = append(out.Verified, o.name)
	}
	if len(out.Records) == 0 {
		out.Records = append(out.Records, localFallback())
	}
	return out
}

// VerifyToken parses a token and confirms the hash embedded in it matches
// originalHash.
func VerifyToken(raw []byte, originalHash string) TokenVerification {
	var tok token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return TokenVerification{Valid: false, Error: fmt.Sprintf("parse token: %v", err)}
	}
	if tok.HashedMessage != originalHash {
		return TokenVerification{
			Valid:     false,
			Timestamp: &tok.GenTime,
			Error:     "token hash does not match original document hash",
		}
	}
	ts := tok.GenTime
	return TokenVerification{Valid: true, Timestamp: &ts}
}

func (c *Client) request(ctx context.Context, a Authority, documentHash string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	nonce, err := newNonce()
	if err != nil {
		return Record{}, fmt.Errorf("nonce: %w", err)
	}
	body, err := json.Marshal(request{
		HashedMessage: documentHash,
		HashAlgorithm: "SHA-256",
		Nonce:         nonce,
	})
	if err != nil {
		return Record{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		return Record{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Record{}, fmt.Errorf("authority returned %d: %s", resp.StatusCode, string(snippet))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Record{}, fmt.Errorf("read response: %w", err)
	}

	var tok token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return Record{}, fmt.Errorf("decode token: %w", err)
	}
	if tok.HashedMessage != documentHash {
		return Record{}, fmt.Errorf("authority echoed wrong hash")
	}
	if tok.Nonce != "" && tok.Nonce != nonce {
		return Record{}, fmt.Errorf("nonce mismatch")
	}

	return Record{
		Value:        tok.GenTime.UTC(),
		Source:       a.Name,
		Token:        raw,
		Verified:     true,
		SerialNumber: tok.SerialNumber,
	}, nil
}

func localFallback() Record {
	return Record{
		Value:    time.Now().UTC(),
		Source:   SourceLocalFallback,
		Verified: false,
	}
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
