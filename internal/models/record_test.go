package models

import (
	"encoding/json"
	"testing"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		in   string
		want DocumentType
	}{
		{"invoice", DocumentTypeInvoice},
		{"Tax Invoice", DocumentTypeInvoice},
		{"RECEIPT", DocumentTypeReceipt},
		{"cheque", DocumentTypeCheck},
		{"check", DocumentTypeCheck},
		{"bank statement", DocumentTypeUnknown},
		{"", DocumentTypeUnknown},
	}

	for _, tt := range tests {
		if got := ParseDocumentType(tt.in); got != tt.want {
			t.Errorf("ParseDocumentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumericJSON(t *testing.T) {
	type wrapper struct {
		V Numeric `json:"v"`
	}

	tests := []struct {
		name string
		in   Numeric
		json string
	}{
		{"known", Num(12.5), `{"v":12.5}`},
		{"known integer", Num(40), `{"v":40}`},
		{"unknown is null not zero", Unknown(), `{"v":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(wrapper{V: tt.in})
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.json {
				t.Errorf("Marshal = %s, want %s", data, tt.json)
			}

			var back wrapper
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back.V != tt.in {
				t.Errorf("round trip = %+v, want %+v", back.V, tt.in)
			}
		})
	}
}

func TestNumericUnmarshalTolerant(t *testing.T) {
	var n Numeric
	if err := json.Unmarshal([]byte(`"18.40"`), &n); err != nil {
		t.Fatal(err)
	}
	if !n.Known || n.Value != 18.4 {
		t.Errorf("numeric string = %+v, want known 18.4", n)
	}

	if err := json.Unmarshal([]byte(`"n/a"`), &n); err != nil {
		t.Fatal(err)
	}
	if n.Known {
		t.Errorf("unparsable string should become unknown, got %+v", n)
	}
}
