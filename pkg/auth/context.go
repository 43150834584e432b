package auth

import "context"

// contextKey is an unexported type used for context keys in this package.
// Using a distinct type prevents collisions with keys from other packages.
type contextKey int

// credentialKey stores the validated Credential in the context.
const credentialKey contextKey = iota

// ContextWithCredential returns a new context with the given Credential
// attached. It is typically called by HTTP middleware after successfully
// validating a bearer token.
func ContextWithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialKey, cred)
}

// CredentialFromContext retrieves the Credential from the context. A nil
// result means the request presented no credential (anonymous caller);
// protected operations must pass that nil straight to [Require], which
// rejects it.
func CredentialFromContext(ctx context.Context) *Credential {
	cred, _ := ctx.Value(credentialKey).(*Credential)
	return cred
}
