// Package image converts a captured photo into an embeddable reference.
// A real deployment would upload to object storage; the documented behavior
// here is a data URI, or a placeholder when nothing was captured.
package image

import (
	"encoding/base64"
	"net/http"

	"cleanghana/internal/report"
)

// MaxAttachmentBytes bounds what we are willing to inline. Larger captures
// fall back to the placeholder rather than bloating the record.
const MaxAttachmentBytes = 1 << 20

// EncodeAttachment turns raw image bytes into a data URI, sniffing the MIME
// type from content. Empty or oversized input yields the placeholder.
func EncodeAttachment(data []byte) string {
	if len(data) == 0 || len(data) > MaxAttachmentBytes {
		return report.PlaceholderImageRef
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
