package document

import (
	"encoding/base64"
	"strings"

	"github.com/docuflow/docuflow/internal/apperr"
)

// DecodeBase64PDF accepts the wire form of a PDF payload: either raw base64
// or a data-URI prefixed string ("data:application/pdf;base64,...").
func DecodeBase64PDF(payload string) ([]byte, error) {
	b64 := payload
	if i := strings.Index(b64, "base64,"); i >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(data) == 0 {
		return nil, apperr.Validation("pdf payload is not valid base64", map[string]string{"PDFBase64": "must be a base64 encoded pdf"})
	}
	return data, nil
}

// decodeDataURIImage decodes a data-URI image payload. Non-image values
// report ok = false and are stored as literals.
func decodeDataURIImage(payload string) ([]byte, bool) {
	if !strings.HasPrefix(payload, "data:image/") {
		return nil, false
	}
	i := strings.Index(payload, "base64,")
	if i < 0 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload[i+len("base64,"):])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
