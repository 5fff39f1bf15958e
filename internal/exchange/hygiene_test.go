package exchange

import (
	"bytes"
	"testing"
)

func TestStripBOM(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"with bom", []byte("\xEF\xBB\xBFID,Name"), []byte("ID,Name")},
		{"without bom", []byte("ID,Name"), []byte("ID,Name")},
		{"partial bom", []byte("\xEF\xBBID"), []byte("\xEF\xBBID")},
		{"bom only", []byte("\xEF\xBB\xBF"), []byte{}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripBOM(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("stripBOM(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "hello", "hello"},
		{"valid multibyte", "café 日本", "café 日本"},
		{"latin1 byte", "caf\xe9", "caf�"},
		{"truncated sequence", "ab\xe6\x97", "ab��"},
		{"mixed", "\xffok\xfe", "�ok�"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(sanitizeUTF8([]byte(tt.in))); got != tt.want {
				t.Errorf("sanitizeUTF8(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText([]byte("\xEF\xBB\xBFName\n\xff\n"))
	if string(got) != "Name\n�\n" {
		t.Errorf("cleanText = %q", got)
	}
}
