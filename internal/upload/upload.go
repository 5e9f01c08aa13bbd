// Package upload stores bootcamp photos on local disk or in an S3-compatible
// bucket.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// ErrInvalidFile marks an upload rejected before it is stored.
var ErrInvalidFile = errors.New("invalid upload")

// Destination stores uploaded files by name. Save returns once the file is
// durably in place.
type Destination interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
}

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// PhotoName returns the stored name for a bootcamp photo: photo_<id><ext>,
// keeping the extension of the client's file name.
func PhotoName(bootcampID, filename string) string {
	ext := path.Ext(strings.ReplaceAll(filename, `\`, "/"))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return "photo_" + bootcampID + strings.ToLower(ext)
}

// CheckImage accepts only image/* content no larger than maxBytes.
func CheckImage(contentType string, size, maxBytes int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: Please upload a file", ErrInvalidFile)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return fmt.Errorf("%w: Please upload an image file", ErrInvalidFile)
	}
	if size > maxBytes {
		return fmt.Errorf("%w: Please upload an image less than %d", ErrInvalidFile, maxBytes)
	}
	return nil
}

// Message returns the client-facing text of an ErrInvalidFile error.
func Message(err error) string {
	return strings.TrimPrefix(err.Error(), ErrInvalidFile.Error()+": ")
}
