package auth

import (
	"context"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

const testAudience = "sqlground-api"

// testTokenOpts controls how signTestToken deviates from a valid token.
type testTokenOpts struct {
	kid      string
	issuer   string
	audience string
	subject  string
	scope    string
	expires  time.Time
	notBefore time.Time
	key      *rsa.PrivateKey
}

// signTestToken mints an RS256 token. Zero-valued fields get sensible
// valid defaults relative to issuerDomain and signingKey.
func signTestToken(t *testing.T, issuerDomain string, signingKey *rsa.PrivateKey, opts testTokenOpts) string {
	t.Helper()

	if opts.kid == "" {
		opts.kid = "key-1"
	}
	if opts.issuer == "" {
		opts.issuer = issuerDomain + "/oidc"
	}
	if opts.audience == "" {
		opts.audience = testAudience
	}
	if opts.subject == "" {
		opts.subject = "user-1"
	}
	if opts.expires.IsZero() {
		opts.expires = time.Now().Add(time.Hour)
	}
	if opts.key == nil {
		opts.key = signingKey
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    opts.issuer,
			Subject:   opts.subject,
			Audience:  jwt.ClaimStrings{opts.audience},
			ExpiresAt: jwt.NewNumericDate(opts.expires),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Scope: opts.scope,
	}
	if !opts.notBefore.IsZero() {
		claims.NotBefore = jwt.NewNumericDate(opts.notBefore)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = opts.kid

	signed, err := token.SignedString(opts.key)
	require.NoError(t, err)
	return signed
}

// newTestValidator wires a Validator against an httptest JWKS server
// publishing the given key under kid "key-1".
func newTestValidator(t *testing.T, key *rsa.PrivateKey) (*Validator, string) {
	t.Helper()
	srv, _ := newJWKSServer(t, rsaJWK("key-1", &key.PublicKey))
	validator := NewValidator(ValidatorConfig{
		Domain:   srv.URL,
		Audience: testAudience,
	}, NewKeySetCache(0, srv.Client()))
	return validator, srv.URL
}

func TestValidator_ValidToken(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	validator, domain := newTestValidator(t, key)

	token := signTestToken(t, domain, key, testTokenOpts{
		scope: "read:public execute:query",
	})

	cred, err := validator.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", cred.Subject)
	assert.True(t, cred.HasScope(ScopeReadPublic))
	assert.True(t, cred.HasScope(ScopeExecuteQuery))
	assert.False(t, cred.HasScope(ScopeReadAnswer))
}

func TestValidator_NoSubjectClaim(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	validator, domain := newTestValidator(t, key)

	// Machine-to-machine tokens may carry scopes without a sub claim.
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    domain + "/oidc",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scope: "read:public",
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	jwtToken.Header["kid"] = "key-1"
	signed, err := jwtToken.SignedString(key)
	require.NoError(t, err)

	cred, err := validator.Validate(context.Background(), signed)
	require.NoError(t, err)
	assert.Empty(t, cred.Subject)
	assert.True(t, cred.HasScope(ScopeReadPublic))
}

func TestValidator_NoScopeClaim(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	validator, domain := newTestValidator(t, key)

	token := signTestToken(t, domain, key, testTokenOpts{})

	cred, err := validator.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, cred.Scopes())
}

func TestValidator_FailuresCollapseToOneError(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	otherKey := testRSAKey(t)
	validator, domain := newTestValidator(t, key)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signTestToken(t, domain, key, testTokenOpts{
					expires: time.Now().Add(-time.Hour),
				})
			},
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				return signTestToken(t, domain, key, testTokenOpts{
					notBefore: time.Now().Add(time.Hour),
				})
			},
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return signTestToken(t, domain, key, testTokenOpts{
					audience: "someone-else",
				})
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return signTestToken(t, domain, key, testTokenOpts{
					issuer: "https://evil.example.com/oidc",
				})
			},
		},
		{
			name: "signed by unknown key",
			token: func(t *testing.T) string {
				return signTestToken(t, domain, key, testTokenOpts{
					key: otherKey,
				})
			},
		},
		{
			name: "unknown key id",
			token: func(t *testing.T) string {
				return signTestToken(t, domain, key, testTokenOpts{
					kid: "rotated-away",
				})
			},
		},
		{
			name:  "structurally malformed",
			token: func(t *testing.T) string { return "not.a.token" },
		},
		{
			name:  "empty",
			token: func(t *testing.T) string { return "" },
		},
		{
			name: "oversized",
			token: func(t *testing.T) string {
				return strings.Repeat("a", maxTokenSize+1)
			},
		},
		{
			name: "tampered payload",
			token: func(t *testing.T) string {
				valid := signTestToken(t, domain, key, testTokenOpts{})
				parts := strings.Split(valid, ".")
				parts[1] = "eyJzdWIiOiJhdHRhY2tlciJ9"
				return strings.Join(parts, ".")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := validator.Validate(context.Background(), tt.token(t))
			require.Error(t, err)

			appErr, ok := apperrors.AsError(err)
			require.True(t, ok)
			// Every verification failure looks identical from the outside.
			assert.Equal(t, apperrors.CodeInvalidToken, appErr.Code)
			assert.Equal(t, "Invalid token", appErr.Title)
			assert.Equal(t, "The provided credential could not be validated.", appErr.Details)
		})
	}
}

func TestValidator_RejectsAlgNone(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	validator, domain := newTestValidator(t, key)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    domain + "/oidc",
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), signed)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidToken, apperrors.GetCode(err))
}

func TestValidator_MalformedTokenDoesNotFetchKeys(t *testing.T) {
	t.Parallel()

	var fetched bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
		http.Error(w, "should not be called", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	validator := NewValidator(ValidatorConfig{
		Domain:   srv.URL,
		Audience: testAudience,
	}, NewKeySetCache(0, srv.Client()))

	_, err := validator.Validate(context.Background(), "garbage")
	require.Error(t, err)
	assert.False(t, fetched, "malformed tokens must be rejected before any key fetch")
}

func TestValidator_KeyFetchFailureIsInternal(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	validator := NewValidator(ValidatorConfig{
		Domain:   srv.URL,
		Audience: testAudience,
	}, NewKeySetCache(0, srv.Client()))

	token := signTestToken(t, srv.URL, key, testTokenOpts{})

	_, err := validator.Validate(context.Background(), token)
	require.Error(t, err)
	// The provider being unreachable is not the caller's fault: the token
	// was never judged, so this must not read as a token failure.
	assert.Equal(t, apperrors.CodeInternal, apperrors.GetCode(err))
}

func TestValidator_LeewayToleratesSkew(t *testing.T) {
	t.Parallel()

	key := testRSAKey(t)
	validator, domain := newTestValidator(t, key)

	// Expired ten seconds ago, inside the default thirty-second leeway.
	token := signTestToken(t, domain, key, testTokenOpts{
		expires: time.Now().Add(-10 * time.Second),
	})

	_, err := validator.Validate(context.Background(), token)
	assert.NoError(t, err)
}
