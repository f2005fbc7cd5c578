// Package imaging implements the raster operations of the card pipeline:
// chunked base64 encoding, MIME type derivation, and lossless-dimension
// rotation of card images.
package imaging

import (
	"encoding/base64"
	"strings"
)

// encodeChunkSize bounds how much input is fed to the encoder per write so
// arbitrarily large card scans never demand one contiguous conversion pass.
const encodeChunkSize = 32 * 1024

// EncodeBase64 converts data to a standard-alphabet base64 string without
// line breaks, streaming the input in fixed-size chunks.
func EncodeBase64(data []byte) string {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(data)))

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	for off := 0; off < len(data); off += encodeChunkSize {
		end := off + encodeChunkSize
		if end > len(data) {
			end = len(data)
		}
		// strings.Builder never fails; the encoder only propagates writer errors.
		_, _ = enc.Write(data[off:end])
	}
	_ = enc.Close()

	return sb.String()
}

// DataURL renders the inline-image form the inference API expects.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + EncodeBase64(data)
}
