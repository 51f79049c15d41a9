package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func extractPlainText(payload []byte) (Result, error) {
	text := strings.TrimSpace(decodeTextBytes(payload))
	if text == "" {
		return Result{}, errEmptyText()
	}
	return Result{Text: text, Source: SourcePlainText}, nil
}

// decodeTextBytes tries encodings in order: strict UTF-8, UTF-16, Latin-1,
// then lossy UTF-8 as a last resort.
func decodeTextBytes(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}

	if len(payload)%2 == 0 {
		utf16Decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if decoded, err := utf16Decoder.Bytes(payload); err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
			return string(decoded)
		}
	}

	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(payload); err == nil {
		return string(decoded)
	}

	return string(bytes.ToValidUTF8(payload, nil))
}
