package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrExtractionFailed means the raw text yielded no parseable JSON object.
// Callers recover by normalizing an empty object; the pipeline never aborts
// on a bad extractor response.
var ErrExtractionFailed = errors.New("extract: no parseable JSON object in response")

var unicodeEscape = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)

// DecodeResponse pulls the first well-formed JSON object out of raw
// extractor output. The text may carry surrounding prose, fenced code
// markers and escaped-unicode sequences; fenced content is searched first,
// then the whole text.
func DecodeResponse(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrExtractionFailed
	}
	text = unescapeUnicode(text)

	candidates := fencedBlocks(text)
	candidates = append(candidates, text)

	for _, c := range candidates {
		if obj, ok := parseFirstObject(c); ok {
			return obj, nil
		}
	}
	return nil, ErrExtractionFailed
}

// unescapeUnicode resolves backslash-escaped \uXXXX sequences in place.
// Best effort: sequences that do not decode to a valid rune are left alone.
func unescapeUnicode(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	return unicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		r := rune(code)
		if !strconv.IsPrint(r) && r != '\n' && r != '\t' {
			return m
		}
		return string(r)
	})
}

// fencedBlocks returns the contents of every ``` fenced span, with any
// language tag on the opening line dropped.
func fencedBlocks(s string) []string {
	var blocks []string
	for {
		start := strings.Index(s, "```")
		if start < 0 {
			break
		}
		s = s[start+3:]
		end := strings.Index(s, "```")
		if end < 0 {
			// unterminated fence: take the rest
			blocks = append(blocks, stripLanguageTag(s))
			break
		}
		blocks = append(blocks, stripLanguageTag(s[:end]))
		s = s[end+3:]
	}
	return blocks
}

func stripLanguageTag(block string) string {
	if nl := strings.IndexByte(block, '\n'); nl >= 0 {
		head := strings.TrimSpace(block[:nl])
		if head != "" && !strings.ContainsAny(head, "{}") {
			return block[nl+1:]
		}
	}
	return block
}

// parseFirstObject scans for balanced {...} spans and strict-parses each
// until one decodes. Brace counting is string-aware so braces inside JSON
// strings do not unbalance the span.
func parseFirstObject(s string) (map[string]any, bool) {
	for from := 0; from < len(s); {
		open := strings.IndexByte(s[from:], '{')
		if open < 0 {
			return nil, false
		}
		open += from
		span, ok := balancedSpan(s[open:])
		if !ok {
			return nil, false
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(span), &obj); err == nil {
			return obj, true
		}
		from = open + 1
	}
	return nil, false
}

func balancedSpan(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
