package exchange

// hygiene.go cleans up raw upload bytes before they reach a parser.
// Spreadsheet tools on Windows prepend a UTF-8 BOM and legacy exports
// occasionally contain stray Latin-1 bytes; neither should break an import.

import (
	"bytes"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with U+FFFD. Valid input is
// returned as is.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}

	return buf.Bytes()
}

// cleanText applies both transforms in order.
func cleanText(data []byte) []byte {
	return sanitizeUTF8(stripBOM(data))
}
