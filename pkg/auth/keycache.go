package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultKeySetTTL is how long a fetched signing key set is trusted before
// it is refreshed from the provider.
const DefaultKeySetTTL = time.Hour

// maxJWKSBodySize caps the accepted JWKS response body at 1 MB to prevent
// resource exhaustion from a misbehaving endpoint.
const maxJWKSBodySize = 1 << 20

// HTTPClient abstracts the HTTP client used for fetching the provider's
// key set, allowing callers to supply custom timeouts or transports.
// The standard [http.Client] satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrNoUsableKey is reported when the provider's key set contains no key
// matching the token's key id, or the matching key cannot verify the
// token's signing algorithm.
var ErrNoUsableKey = errors.New("auth: no usable signing key")

// ErrKeyFetch wraps failures to reach or parse the provider's key-set
// endpoint. It distinguishes "identity provider unreachable" from "token
// invalid" so boundaries can normalize the two differently.
var ErrKeyFetch = errors.New("auth: signing key set fetch failed")

// keySetEntry is an immutable snapshot of the provider's published keys.
// Snapshots are replaced wholesale on refresh, never mutated in place, so
// concurrent validations can read one without locking.
type keySetEntry struct {
	keys      map[string]any // kid -> *rsa.PublicKey or *ecdsa.PublicKey
	fetchedAt time.Time
}

// KeySetCache fetches and caches JSON Web Key Sets from identity provider
// domains. Each domain's set is cached for a fixed TTL; expiry or a cache
// miss triggers exactly one outbound fetch regardless of how many
// validations are waiting (single-flight), which bounds load on the
// provider independent of request concurrency. A failed fetch propagates
// to every waiter and does not poison the cache: the next call retries.
//
// KeySetCache is safe for concurrent use by multiple goroutines.
type KeySetCache struct {
	ttl    time.Duration
	client HTTPClient

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]*keySetEntry
}

// NewKeySetCache creates a key set cache with the given TTL and HTTP
// client. A zero ttl defaults to [DefaultKeySetTTL]; a nil client defaults
// to an [http.Client] with a 10-second timeout.
func NewKeySetCache(ttl time.Duration, client HTTPClient) *KeySetCache {
	if ttl <= 0 {
		ttl = DefaultKeySetTTL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &KeySetCache{
		ttl:     ttl,
		client:  client,
		entries: make(map[string]*keySetEntry),
	}
}

// SigningKey returns the public key with the given key id from the
// provider domain's key set, fetching the set on a cache miss or after
// the TTL expires. Within a fresh window the cached set is authoritative:
// an unknown kid fails without a refetch, since the kid comes from an
// unverified token header. Rotated keys are picked up when the window
// expires.
//
// Returns [ErrNoUsableKey] when no key matches the kid or the key type
// cannot verify alg, and an error wrapping [ErrKeyFetch] when the
// provider's endpoint cannot be reached or parsed.
func (c *KeySetCache) SigningKey(ctx context.Context, domain, kid, alg string) (any, error) {
	c.mu.RLock()
	entry, ok := c.entries[domain]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < c.ttl {
		key, exists := entry.keys[kid]
		if !exists {
			return nil, fmt.Errorf("%w: key id %q not in set for %s", ErrNoUsableKey, kid, domain)
		}
		return checkKeyUsable(key, alg)
	}

	entry, err := c.refresh(ctx, domain)
	if err != nil {
		return nil, err
	}

	key, exists := entry.keys[kid]
	if !exists {
		return nil, fmt.Errorf("%w: key id %q not in set for %s", ErrNoUsableKey, kid, domain)
	}
	return checkKeyUsable(key, alg)
}

// refresh fetches the domain's key set, deduplicating concurrent callers
// through a single-flight group. The fetch itself runs on a context
// detached from the caller's cancellation so that an abandoned waiter
// never cancels the fetch for the others; every waiter observes the one
// shared outcome.
func (c *KeySetCache) refresh(ctx context.Context, domain string) (*keySetEntry, error) {
	v, err, _ := c.group.Do(domain, func() (any, error) {
		keys, err := c.fetchKeySet(context.WithoutCancel(ctx), domain)
		if err != nil {
			return nil, err
		}
		entry := &keySetEntry{keys: keys, fetchedAt: time.Now()}
		c.mu.Lock()
		c.entries[domain] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*keySetEntry), nil
}

// jwksEndpoint returns the provider's published key-set URL,
// {domain}/oidc/jwks.
func jwksEndpoint(domain string) string {
	return strings.TrimRight(domain, "/") + "/oidc/jwks"
}

// jwksResponse is the JSON structure of the provider's key-set endpoint.
type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

// jwkKey is a single key in a JWKS response. Only the fields needed for
// RSA and EC key reconstruction are included.
type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	// RSA fields
	N string `json:"n"`
	E string `json:"e"`
	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// fetchKeySet GETs the domain's JWKS endpoint and reconstructs a map of
// key id to public key. Malformed individual keys are skipped; a malformed
// response fails the whole fetch.
func (c *KeySetCache) fetchKeySet(ctx context.Context, domain string) (map[string]any, error) {
	url := jwksEndpoint(domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint %s returned status %d", ErrKeyFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	var jwks jwksResponse
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	keys := make(map[string]any, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kid == "" {
			continue
		}
		switch k.Kty {
		case "RSA":
			pubKey, err := parseRSAPublicKey(k.N, k.E)
			if err != nil {
				continue // Skip malformed keys.
			}
			keys[k.Kid] = pubKey
		case "EC":
			pubKey, err := parseECPublicKey(k.Crv, k.X, k.Y)
			if err != nil {
				continue // Skip malformed keys.
			}
			keys[k.Kid] = pubKey
		}
	}
	return keys, nil
}

// checkKeyUsable verifies the key's type can verify the token's signing
// algorithm: RS*/PS* require an RSA key, ES* an ECDSA key.
func checkKeyUsable(key any, alg string) (any, error) {
	algUpper := strings.ToUpper(alg)
	switch key.(type) {
	case *rsa.PublicKey:
		if strings.HasPrefix(algUpper, "RS") || strings.HasPrefix(algUpper, "PS") {
			return key, nil
		}
	case *ecdsa.PublicKey:
		if strings.HasPrefix(algUpper, "ES") {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: key type cannot verify algorithm %q", ErrNoUsableKey, alg)
}

// parseRSAPublicKey constructs an *rsa.PublicKey from base64url-encoded
// modulus (n) and exponent (e) values.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: decode RSA exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// parseECPublicKey constructs an *ecdsa.PublicKey from a curve name and
// base64url-encoded x and y coordinates.
func parseECPublicKey(crv, xBase64, yBase64 string) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("auth: unsupported EC curve %q", crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(xBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: decode EC x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: decode EC y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
