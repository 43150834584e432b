package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredential_SplitsScopeClaim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scopeClaim string
		expected   []string
	}{
		{
			name:       "single scope",
			scopeClaim: "read:public",
			expected:   []string{"read:public"},
		},
		{
			name:       "multiple scopes",
			scopeClaim: "read:public execute:query read:answer",
			expected:   []string{"execute:query", "read:answer", "read:public"},
		},
		{
			name:       "extra whitespace",
			scopeClaim: "  read:public \t execute:query\n",
			expected:   []string{"execute:query", "read:public"},
		},
		{
			name:       "empty claim",
			scopeClaim: "",
			expected:   []string{},
		},
		{
			name:       "duplicate scopes collapse",
			scopeClaim: "read:public read:public",
			expected:   []string{"read:public"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cred := NewCredential("user-1", tt.scopeClaim)
			assert.Equal(t, "user-1", cred.Subject)
			assert.Equal(t, tt.expected, cred.Scopes())
		})
	}
}

func TestCredential_HasScope(t *testing.T) {
	t.Parallel()

	cred := NewCredential("user-1", "read:public execute:query")

	assert.True(t, cred.HasScope(ScopeReadPublic))
	assert.True(t, cred.HasScope(ScopeExecuteQuery))
	assert.False(t, cred.HasScope(ScopeReadAnswer))
	assert.False(t, cred.HasScope(ScopeWriteResource))
}

func TestCredentialContext_RoundTrip(t *testing.T) {
	t.Parallel()

	cred := NewCredential("user-1", "read:public")
	ctx := ContextWithCredential(context.Background(), cred)

	got := CredentialFromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.Subject)
}

func TestCredentialFromContext_Anonymous(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CredentialFromContext(context.Background()))
}
