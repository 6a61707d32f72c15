package platform

import "github.com/google/uuid"

// NewRunID returns the identifier for one installer run, carried in every
// log line so interrupted installs can be told apart.
func NewRunID() string {
	return uuid.New().String()
}
