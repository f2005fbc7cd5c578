package imaging

import (
	"path/filepath"
	"strings"
)

// imageMIMETypes maps the card image extensions Mannaz processes to their
// MIME types. Anything else in the inbox is ignored by the watcher.
var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// MIMEFromPath derives the MIME type from the file extension. The second
// return value is false for extensions Mannaz does not process.
func MIMEFromPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	mt, ok := imageMIMETypes[ext]
	return mt, ok
}

// IsImagePath reports whether path has a supported card image extension.
func IsImagePath(path string) bool {
	_, ok := MIMEFromPath(path)
	return ok
}
