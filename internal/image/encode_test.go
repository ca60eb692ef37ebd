package image

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cleanghana/internal/report"
)

func TestEncodeAttachment_EmptyYieldsPlaceholder(t *testing.T) {
	assert.Equal(t, report.PlaceholderImageRef, EncodeAttachment(nil))
	assert.Equal(t, report.PlaceholderImageRef, EncodeAttachment([]byte{}))
}

func TestEncodeAttachment_OversizedYieldsPlaceholder(t *testing.T) {
	big := make([]byte, MaxAttachmentBytes+1)
	assert.Equal(t, report.PlaceholderImageRef, EncodeAttachment(big))
}

func TestEncodeAttachment_SniffsPNG(t *testing.T) {
	// Minimal PNG header is enough for content sniffing.
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	ref := EncodeAttachment(png)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"), ref)
}

func TestEncodeAttachment_UnknownBytesStillEmbedded(t *testing.T) {
	ref := EncodeAttachment([]byte{0x01, 0x02, 0x03})
	assert.True(t, strings.HasPrefix(ref, "data:"), ref)
	assert.Contains(t, ref, ";base64,")
}
