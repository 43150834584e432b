package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for auth spans.
const tracerName = "github.com/sqlground/sqlground-core/pkg/auth"

// maxTokenSize caps accepted token length at 8 KB. Real tokens are far
// smaller; anything larger is rejected before any parsing work.
const maxTokenSize = 8192

// DefaultLeeway is the clock-skew allowance applied to time-based claims.
const DefaultLeeway = 30 * time.Second

// ValidatorConfig holds the settings for constructing a [Validator].
type ValidatorConfig struct {
	// Domain is the identity provider's base URL. Tokens must carry the
	// issuer {Domain}/oidc, and signing keys are fetched from
	// {Domain}/oidc/jwks.
	Domain string

	// Audience is the expected "aud" claim value.
	Audience string

	// Leeway is the clock-skew allowance for exp/nbf checks. Zero means
	// DefaultLeeway.
	Leeway time.Duration
}

// Validator verifies bearer tokens issued by a single identity provider
// and produces the [Credential] they carry. Signing keys are resolved
// through a [KeySetCache] so that validation stays local except when the
// key set needs refreshing.
//
// Every way a token can fail verification (bad signature, expiry, wrong
// issuer or audience, unknown key id, malformed structure) is reported
// through the same opaque error so that callers cannot distinguish them.
// Only a failure to reach the identity provider itself surfaces
// differently, as an internal error.
type Validator struct {
	domain   string
	issuer   string
	audience string
	leeway   time.Duration
	keys     *KeySetCache
	tracer   trace.Tracer
}

// NewValidator creates a Validator for the given provider configuration,
// resolving signing keys through keys.
func NewValidator(cfg ValidatorConfig, keys *KeySetCache) *Validator {
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = DefaultLeeway
	}
	return &Validator{
		domain:   cfg.Domain,
		issuer:   jwksIssuer(cfg.Domain),
		audience: cfg.Audience,
		leeway:   leeway,
		keys:     keys,
		tracer:   otel.Tracer(tracerName),
	}
}

// jwksIssuer returns the issuer value the provider stamps on its tokens,
// {domain}/oidc.
func jwksIssuer(domain string) string {
	return strings.TrimRight(domain, "/") + "/oidc"
}

// tokenClaims are the registered claims plus the space-separated scope
// claim carried by provider tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// Validate verifies a raw bearer token and returns the credential it
// represents. The credential's scopes come from the token's "scope"
// claim, split on whitespace.
//
// All verification failures return an error with code INVALID_JWT_TOKEN
// carrying uniform user-facing text; the specific cause is retained
// internally for logging but never serialized. A failure to fetch the
// provider's key set returns an INTERNAL_ERROR instead, since the token
// itself was never judged.
func (v *Validator) Validate(ctx context.Context, rawToken string) (*Credential, error) {
	ctx, span := v.tracer.Start(ctx, "auth.Validate")
	defer span.End()

	if rawToken == "" {
		err := apperrors.InvalidToken(errors.New("empty token"))
		recordSpanError(span, err)
		return nil, err
	}
	if len(rawToken) > maxTokenSize {
		err := apperrors.InvalidToken(fmt.Errorf("token exceeds %d bytes", maxTokenSize))
		recordSpanError(span, err)
		return nil, err
	}

	// Probe the header without verifying so a structurally broken token
	// never triggers a key fetch.
	parser := jwt.NewParser()
	unverified, _, err := parser.ParseUnverified(rawToken, &tokenClaims{})
	if err != nil {
		wrapped := apperrors.InvalidToken(err)
		recordSpanError(span, wrapped)
		return nil, wrapped
	}

	alg, _ := unverified.Header["alg"].(string)
	if alg == "" || alg == "none" {
		wrapped := apperrors.InvalidToken(fmt.Errorf("unacceptable signing algorithm %q", alg))
		recordSpanError(span, wrapped)
		return nil, wrapped
	}
	kid, _ := unverified.Header["kid"].(string)

	key, err := v.keys.SigningKey(ctx, v.domain, kid, alg)
	if err != nil {
		var wrapped error
		if errors.Is(err, ErrKeyFetch) {
			// The provider could not be consulted: the token was never
			// actually judged, so this is not a token failure.
			wrapped = apperrors.WrapInternal(err, "Unable to verify the provided credential.")
		} else {
			wrapped = apperrors.InvalidToken(err)
		}
		recordSpanError(span, wrapped)
		return nil, wrapped
	}

	claims := &tokenClaims{}
	_, err = jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		wrapped := apperrors.InvalidToken(err)
		recordSpanError(span, wrapped)
		return nil, wrapped
	}

	// A missing sub claim is acceptable: the credential stays anonymous
	// and subject-requiring operations reject it themselves.
	cred := NewCredential(claims.Subject, claims.Scope)
	span.SetAttributes(
		attribute.String("auth.subject", cred.Subject),
		attribute.Int("auth.scope_count", len(cred.Scopes())),
	)
	return cred, nil
}

// recordSpanError records err on the span and marks the span status as
// Error. No-op when err is nil.
func recordSpanError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
