// Package encoding provides text encoding utilities for mesh names.
package encoding

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DecodeName converts a name stored in the given charset (any WHATWG label,
// e.g. "euc-kr", "shift_jis", "windows-1252") to UTF-8. An empty charset or
// "utf-8" returns the input unchanged.
func DecodeName(data []byte, charset string) (string, error) {
	data = TrimNullBytes(data)
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(data), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding %s name: %w", charset, err)
	}
	return string(result), nil
}

// FileName turns a mesh name into a safe file name stem: NFC-normalized,
// with path separators and other reserved characters replaced by '_'.
func FileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(TrimNullString([]byte(name))))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "mesh"
	}
	return name
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// TrimNullString removes trailing null bytes and converts to string.
func TrimNullString(data []byte) string {
	return string(TrimNullBytes(data))
}
