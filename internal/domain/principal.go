// Package domain holds cross-cutting domain types.
package domain

// Principal is the authenticated caller identity extracted from the bearer
// token. DisplayName and ProfileImage feed the cached participant metadata on
// conversations.
type Principal struct {
	ID           string
	DisplayName  string
	ProfileImage string
}
