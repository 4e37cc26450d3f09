// ABOUTME: Request context key types and constants for the api package.
// ABOUTME: Used by middleware to inject auth state and by handlers to read it.
package api

type contextKey int

const (
	ctxUserID    contextKey = iota // uuid.UUID — authenticated user
	ctxUserEmail                   // string — authenticated user's email from the token
	ctxRole                        // authz.Role — resolved profile role for this request
)
