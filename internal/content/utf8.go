package content

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// ErrInvalidUTF8 is returned when a body without a declared charset is not
// valid UTF-8.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// utf8BOM is the UTF-8 byte order mark that some servers prepend to bodies.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		return bytes.TrimPrefix(input, utf8BOM), nil
	}
}

// UTF8Transformer converts input to UTF-8 using the charset parameter of
// contentType and strips the BOM. Without a charset parameter the input must
// already be UTF-8.
func UTF8Transformer(contentType string) TransformerFunc {
	label := charsetParam(contentType)

	return func(input []byte) ([]byte, error) {
		if label != "" {
			enc, name := charset.Lookup(label)
			if enc == nil {
				return nil, fmt.Errorf("unsupported charset %q", label)
			}
			if name != "utf-8" {
				decoded, err := enc.NewDecoder().Bytes(input)
				if err != nil {
					return nil, fmt.Errorf("failed to decode %s to UTF-8: %w", name, err)
				}
				input = decoded
			}
		}
		input = bytes.TrimPrefix(input, utf8BOM)
		if !utf8.Valid(input) {
			return nil, ErrInvalidUTF8
		}
		return input, nil
	}
}

func charsetParam(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
