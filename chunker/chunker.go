// Package chunker splits raw document text into bounded, overlapping
// token-window chunks for embedding and indexing.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"resumerag/types"
)

// Split tokenizes text by whitespace and emits chunks of up to chunkSize
// tokens joined by single spaces. Consecutive chunks overlap by overlap
// tokens. When maxLength > 0 no chunk exceeds maxLength UTF-8 bytes: a
// window that is too long is shrunk one token at a time, and a single
// token longer than maxLength is truncated on a rune boundary and emitted
// as its own chunk. The window always advances, so Split terminates for
// every input, and every source token appears in at least one chunk in
// original order.
func Split(text string, chunkSize, overlap, maxLength int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", types.ErrInvalidArgument, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", types.ErrInvalidArgument, overlap)
	}

	tokens := strings.Fields(text)
	var chunks []string

	start := 0
	for start < len(tokens) {
		end := min(start+chunkSize, len(tokens))
		chunk := strings.Join(tokens[start:end], " ")

		if maxLength > 0 && len(chunk) > maxLength {
			for end > start && len(chunk) > maxLength {
				end--
				chunk = strings.Join(tokens[start:end], " ")
			}

			if end == start {
				// Single token longer than maxLength; truncate to fit.
				chunk = trimToMaxBytes(tokens[start], maxLength)
				if chunk != "" {
					chunks = append(chunks, chunk)
				}
				start++
				continue
			}
		}

		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// The next window starts relative to the (possibly shrunk) end,
		// never moving backward or stalling.
		if overlap > 0 {
			nextStart := end - overlap
			if nextStart <= start {
				start = end
			} else {
				start = nextStart
			}
		} else {
			start = end
		}
	}

	return chunks, nil
}

// trimToMaxBytes cuts s to at most maxBytes UTF-8 bytes without splitting
// a multi-byte code point; a trailing partial rune is dropped.
func trimToMaxBytes(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	b := []byte(s[:maxBytes])
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}
