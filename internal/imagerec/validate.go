package imagerec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxFileSize is the upload size ceiling.
const MaxFileSize = 10 * 1024 * 1024 // 10 MiB

// allowedTypes maps accepted file extensions to their MIME types.
var allowedTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
}

// ValidationError is a user-facing pre-submission failure. It is always
// produced before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateFile checks the file name and size against the allow-list and
// size ceiling.
func ValidateFile(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedTypes[ext]; !ok {
		return &ValidationError{
			Reason: fmt.Sprintf("unsupported image type %q, allowed: jpeg, jpg, png, gif, bmp", ext),
		}
	}
	if size > MaxFileSize {
		return &ValidationError{
			Reason: fmt.Sprintf("image is %.1f MiB, the limit is 10 MiB", float64(size)/(1024*1024)),
		}
	}
	return nil
}
