package script

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var (
	ErrUnknownEncoding = errors.New("unknown text encoding")
	// ErrNoKey is returned for obfuscated data when no key is configured.
	ErrNoKey = errors.New("script is obfuscated and no key is configured")
)

// Encoding はスクリプトファイルの文字コード
type Encoding string

const (
	Auto        Encoding = "auto"
	UTF8        Encoding = "utf-8"
	Windows1252 Encoding = "windows-1252"
	ShiftJIS    Encoding = "shift-jis"
)

// ParseEncoding は設定値から Encoding を得る。空文字列は Auto
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "utf-8", "utf8":
		return UTF8, nil
	case "windows-1252", "cp1252", "latin1":
		return Windows1252, nil
	case "shift-jis", "shift_jis", "sjis", "cp932":
		return ShiftJIS, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, s)
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case Windows1252:
		return charmap.Windows1252
	case ShiftJIS:
		return japanese.ShiftJIS
	}
	return nil
}

// obfuscationMark prefixes XOR-obfuscated resources.
var obfuscationMark = []byte{0xFF, 0xFF}

// IsObfuscated reports whether data carries the XOR obfuscation mark.
func IsObfuscated(data []byte) bool {
	return bytes.HasPrefix(data, obfuscationMark)
}

// ParseKey parses a hex-encoded obfuscation key; spaces are ignored.
func ParseKey(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid obfuscation key: %w", err)
	}
	return key, nil
}

// Codec converts between file bytes and script text.
type Codec struct {
	Encoding Encoding
	// Key removes the XOR obfuscation some games apply to text resources.
	Key []byte
}

// Decode strips the obfuscation if present and converts data to UTF-8.
func (c Codec) Decode(data []byte) (string, error) {
	if IsObfuscated(data) {
		if len(c.Key) == 0 {
			return "", ErrNoKey
		}
		plain := make([]byte, len(data)-len(obfuscationMark))
		for i, b := range data[len(obfuscationMark):] {
			plain[i] = b ^ c.Key[i%len(c.Key)]
		}
		data = plain
	}

	enc := c.Encoding
	if enc == "" || enc == Auto {
		if utf8.Valid(data) {
			return string(data), nil
		}
		enc = Windows1252
	}
	if enc == UTF8 {
		if !utf8.Valid(data) {
			return "", errors.New("invalid UTF-8 text")
		}
		return string(data), nil
	}
	cm := enc.codec()
	if cm == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, enc)
	}
	out, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), nil
}

// Encode converts text to the configured encoding. Output is never
// obfuscated; Auto writes UTF-8.
func (c Codec) Encode(text string) ([]byte, error) {
	switch c.Encoding {
	case "", Auto, UTF8:
		return []byte(text), nil
	}
	cm := c.Encoding.codec()
	if cm == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, c.Encoding)
	}
	out, _, err := transform.Bytes(cm.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.Encoding, err)
	}
	return out, nil
}
