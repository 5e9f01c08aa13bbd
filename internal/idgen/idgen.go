// Package idgen generates document ids. Ids are 24 lowercase hex characters,
// the same shape as a MongoDB ObjectId, so clients see one id format whichever
// store backs the server.
package idgen

import (
	"fmt"
	"regexp"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "0123456789abcdef"
	length   = 24
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// New returns a fresh document id.
func New() (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// Valid reports whether s has the shape of a document id.
func Valid(s string) bool {
	return idPattern.MatchString(s)
}
