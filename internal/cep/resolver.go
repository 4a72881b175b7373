// Package cep resolves Brazilian postal codes (CEP) to state codes through an
// external lookup service. Resolution sits on the engine's hot path, so it is
// strictly best-effort: every failure mode degrades to "state unknown" and
// the hard client timeout bounds the worst case.
package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 2 * time.Second

// HTTPResolver queries a ViaCEP-compatible endpoint
// (GET {base}/ws/{cep}/json/) and caches answers for the process lifetime;
// postal-code geography does not change between deployments.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger

	// cache maps an 8-digit CEP to its state code; "" marks a known miss.
	cache sync.Map
}

// NewHTTPResolver creates a resolver against the given base URL.
// A non-positive timeout falls back to the 2s default.
func NewHTTPResolver(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPResolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// StateFor resolves a CEP to a two-letter state code. The boolean is false
// whenever the state could not be determined, for any reason.
func (r *HTTPResolver) StateFor(ctx context.Context, code string) (string, bool) {
	digits := onlyDigits(code)
	if len(digits) != 8 {
		return "", false
	}

	if cached, ok := r.cache.Load(digits); ok {
		state := cached.(string)
		return state, state != ""
	}

	state := r.lookup(ctx, digits)
	r.cache.Store(digits, state)
	return state, state != ""
}

func (r *HTTPResolver) lookup(ctx context.Context, digits string) string {
	url := fmt.Sprintf("%s/ws/%s/json/", r.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug().Err(err).Str("cep", digits).Msg("postal lookup failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Debug().Int("status", resp.StatusCode).Str("cep", digits).Msg("postal lookup non-OK")
		return ""
	}

	var body struct {
		UF    string `json:"uf"`
		Error bool   `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.log.Debug().Err(err).Str("cep", digits).Msg("postal lookup decode failed")
		return ""
	}
	if body.Error {
		return ""
	}
	return body.UF
}

func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// StaticResolver resolves from a fixed CEP-to-state map. Test fixture and
// offline fallback.
type StaticResolver map[string]string

// StateFor looks the digit-normalized code up in the map.
func (s StaticResolver) StateFor(_ context.Context, code string) (string, bool) {
	state, ok := s[onlyDigits(code)]
	return state, ok && state != ""
}
