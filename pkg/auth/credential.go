package auth

import (
	"sort"
	"strings"
)

// Credential is the validated result of a bearer token: the set of scope
// strings the identity provider granted, plus the subject identifier when
// the token carries one. A Credential exists only for the duration of the
// request that presented the token; it is never persisted.
//
// Credential is immutable after construction and safe for concurrent reads.
type Credential struct {
	// Subject is the token's "sub" claim, or empty if absent.
	Subject string

	scopes map[string]struct{}
}

// NewCredential constructs a Credential from a subject and the raw
// space-delimited scope claim value.
func NewCredential(subject, scopeClaim string) *Credential {
	fields := strings.Fields(scopeClaim)
	scopes := make(map[string]struct{}, len(fields))
	for _, s := range fields {
		scopes[s] = struct{}{}
	}
	return &Credential{Subject: subject, scopes: scopes}
}

// HasScope reports whether the credential was granted the given scope.
func (c *Credential) HasScope(scope Scope) bool {
	_, ok := c.scopes[string(scope)]
	return ok
}

// Scopes returns the granted scopes in sorted order. The returned slice is
// a copy; mutating it does not affect the credential.
func (c *Credential) Scopes() []string {
	out := make([]string, 0, len(c.scopes))
	for s := range c.scopes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
