// Package users holds registry accounts and the credential check used by
// every mutating endpoint.
package users

// User is a registered account. The password hash never leaves the package.
type User struct {
	Name string `json:"user_name"`
	Mail string `json:"mail"`
}

// CreateCommand carries the fields of a new account.
type CreateCommand struct {
	Name     string
	Password string
	Mail     string
}
