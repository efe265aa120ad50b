package api

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// IsDataPayload reports whether the media reference embeds its content as a
// base64 data: URL instead of pointing at a fetchable location.
func IsDataPayload(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeDataPayload decodes a base64 data: URL into its raw bytes and media
// type, e.g. "data:image/png;base64,iVBOR..." -> (png bytes, "image/png").
func DecodeDataPayload(ref string) ([]byte, string, error) {
	if !IsDataPayload(ref) {
		return nil, "", fmt.Errorf("not a data payload: %q", truncate(ref, 40))
	}

	meta, encoded, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data payload: missing comma separator")
	}

	mediaType := meta
	isBase64 := false
	if rest, found := strings.CutSuffix(meta, ";base64"); found {
		mediaType = rest
		isBase64 = true
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if !isBase64 {
		return nil, "", fmt.Errorf("unsupported data payload encoding in %q", meta)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decoding base64 payload: %w", err)
	}
	return data, mediaType, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
