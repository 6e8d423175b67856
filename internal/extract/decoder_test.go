package extract

import (
	"errors"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantVal string
	}{
		{
			name:    "clean object",
			raw:     `{"vendor": "Acme"}`,
			wantKey: "vendor",
			wantVal: "Acme",
		},
		{
			name:    "fenced with language tag",
			raw:     "Here you go:\n```json\n{\"vendor\": \"Acme\"}\n```\nAnything else?",
			wantKey: "vendor",
			wantVal: "Acme",
		},
		{
			name:    "fenced without language tag",
			raw:     "```\n{\"vendor\": \"Acme\"}\n```",
			wantKey: "vendor",
			wantVal: "Acme",
		},
		{
			name:    "prose preamble and trailer",
			raw:     `The extracted data is {"vendor": "Acme"} as requested.`,
			wantKey: "vendor",
			wantVal: "Acme",
		},
		{
			name:    "braces inside string values",
			raw:     `{"notes": "use {promo} code", "vendor": "Acme"}`,
			wantKey: "vendor",
			wantVal: "Acme",
		},
		{
			name:    "escaped unicode",
			raw:     "{\"vendor\": \"Caf\\u00e9 Royal\"}",
			wantKey: "vendor",
			wantVal: "Café Royal",
		},
		{
			name:    "unterminated fence",
			raw:     "```json\n{\"vendor\": \"Acme\"}",
			wantKey: "vendor",
			wantVal: "Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeResponse(tt.raw)
			if err != nil {
				t.Fatalf("DecodeResponse() error = %v", err)
			}
			got, ok := obj[tt.wantKey].(string)
			if !ok || got != tt.wantVal {
				t.Errorf("obj[%q] = %v, want %q", tt.wantKey, obj[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestDecodeResponseFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t "},
		{"no object", "I could not read the document, sorry."},
		{"unbalanced braces", `{"vendor": "Acme"`},
		{"array only", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(tt.raw)
			if !errors.Is(err, ErrExtractionFailed) {
				t.Errorf("DecodeResponse() error = %v, want ErrExtractionFailed", err)
			}
		})
	}
}

func TestDecodeResponseSkipsMalformedSpans(t *testing.T) {
	// The first balanced span is not valid JSON; the scanner must move on
	// to the real object instead of giving up.
	raw := `{broken} {"vendor": "Acme"}`
	obj, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if obj["vendor"] != "Acme" {
		t.Errorf("vendor = %v, want Acme", obj["vendor"])
	}
}
