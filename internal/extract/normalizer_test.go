package extract

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"ledgerlens/internal/models"
)

func TestNormalizeDefaults(t *testing.T) {
	rec := Normalize(map[string]any{}, DefaultOptions())

	if rec.DocID == "" {
		t.Error("DocID should be assigned when absent")
	}
	if rec.Vendor != "" || rec.InvoiceNumber != "" || rec.Notes != "" {
		t.Error("string fields should default to empty")
	}
	if rec.Total.Known || rec.Tax.Known || rec.Amount.Known {
		t.Error("numeric fields should default to unknown, not zero")
	}
	if rec.DocumentType != models.DocumentTypeUnknown {
		t.Errorf("DocumentType = %q, want unknown", rec.DocumentType)
	}
	if rec.Items == nil || len(rec.Items) != 0 {
		t.Error("items should default to an empty, non-nil slice")
	}
}

func TestNormalizeAliases(t *testing.T) {
	tests := []struct {
		name  string
		doc   map[string]any
		check func(t *testing.T, rec models.CanonicalRecord)
	}{
		{
			name: "vat fills tax",
			doc:  map[string]any{"vat": "9.50"},
			check: func(t *testing.T, rec models.CanonicalRecord) {
				if !rec.Tax.Known || rec.Tax.Value != 9.5 {
					t.Errorf("Tax = %+v, want 9.5", rec.Tax)
				}
			},
		},
		{
			name: "grand_total fills total",
			doc:  map[string]any{"grand_total": 120.0},
			check: func(t *testing.T, rec models.CanonicalRecord) {
				if !rec.Total.Known || rec.Total.Value != 120 {
					t.Errorf("Total = %+v, want 120", rec.Total)
				}
			},
		},
		{
			name: "merchant fills vendor",
			doc:  map[string]any{"merchant": "Corner Store"},
			check: func(t *testing.T, rec models.CanonicalRecord) {
				if rec.Vendor != "Corner Store" {
					t.Errorf("Vendor = %q, want Corner Store", rec.Vendor)
				}
			},
		},
		{
			name: "canonical key wins over alias",
			doc:  map[string]any{"total": "80", "grand_total": "99"},
			check: func(t *testing.T, rec models.CanonicalRecord) {
				if rec.Total.Value != 80 {
					t.Errorf("Total = %v, want 80", rec.Total.Value)
				}
			},
		},
		{
			name: "uppercase keys resolve",
			doc:  map[string]any{"Vendor": "Acme", "TOTAL": "42"},
			check: func(t *testing.T, rec models.CanonicalRecord) {
				if rec.Vendor != "Acme" || rec.Total.Value != 42 {
					t.Errorf("Vendor=%q Total=%v", rec.Vendor, rec.Total.Value)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(tt.doc, DefaultOptions()))
		})
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want models.Numeric
	}{
		{"plain float", 42.5, models.Num(42.5)},
		{"currency string", "$1,234.56", models.Num(1234.56)},
		{"euro prefix", "€99.00", models.Num(99)},
		{"negative", "-15.25", models.Num(-15.25)},
		{"not available", "N/A", models.Unknown()},
		{"empty string", "", models.Unknown()},
		{"nil", nil, models.Unknown()},
		{"words only", "twelve", models.Unknown()},
		{"trailing percent", "8.5%", models.Num(8.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceNumeric(tt.in); got != tt.want {
				t.Errorf("CoerceNumeric(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizePercentConversion(t *testing.T) {
	doc := map[string]any{
		"subtotal": "200.00",
		"tax":      "10%",
		"discount": "5%",
	}

	rec := Normalize(doc, Options{ConvertPercents: true})
	if rec.Tax.Value != 20 {
		t.Errorf("Tax = %v, want 20 (10%% of subtotal)", rec.Tax.Value)
	}
	if rec.Discount.Value != 10 {
		t.Errorf("Discount = %v, want 10 (5%% of subtotal)", rec.Discount.Value)
	}

	// Disabled conversion keeps the bare parsed number.
	rec = Normalize(doc, Options{})
	if rec.Tax.Value != 10 {
		t.Errorf("Tax = %v, want 10 with conversion disabled", rec.Tax.Value)
	}
}

func TestNormalizePercentWithoutBase(t *testing.T) {
	// No subtotal and no amount: conversion is ambiguous and skipped.
	rec := Normalize(map[string]any{"tax": "10%"}, DefaultOptions())
	if rec.Tax.Value != 10 {
		t.Errorf("Tax = %v, want raw 10 when no base exists", rec.Tax.Value)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{"lowercase code", map[string]any{"currency": "usd"}, "USD"},
		{"unrecognized code kept", map[string]any{"currency": "xyz"}, "XYZ"},
		{"inferred from total", map[string]any{"total": "$12.00"}, "USD"},
		{"inferred from subtotal euro", map[string]any{"subtotal": "€40"}, "EUR"},
		{
			"inferred from item price",
			map[string]any{"items": []any{map[string]any{"item": "Tea", "price": "£2.50"}}},
			"GBP",
		},
		{"nothing to infer", map[string]any{"total": "12.00"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(tt.doc, DefaultOptions())
			if rec.Currency != tt.want {
				t.Errorf("Currency = %q, want %q", rec.Currency, tt.want)
			}
		})
	}
}

func TestNormalizeItems(t *testing.T) {
	doc := map[string]any{
		"items": []any{
			map[string]any{"item": "Widget", "qty": "3", "price": "$5.00", "total": "15.00"},
			map[string]any{"description": "Gadget", "quantity": 2.0, "unit_price": 7.5, "line_total": 15.0},
			map[string]any{"qty": "4"}, // nameless, dropped
			"not an object",
		},
	}

	rec := Normalize(doc, DefaultOptions())
	if len(rec.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(rec.Items))
	}
	if rec.Items[0].Name != "Widget" || rec.Items[0].Qty.Value != 3 || rec.Items[0].Price.Value != 5 {
		t.Errorf("Items[0] = %+v", rec.Items[0])
	}
	if rec.Items[1].Name != "Gadget" || rec.Items[1].Total.Value != 15 {
		t.Errorf("Items[1] = %+v", rec.Items[1])
	}
}

func TestNormalizeItemsFromJSONString(t *testing.T) {
	doc := map[string]any{
		"items": `[{"item": "Stamp", "qty": 10, "price": 0.6, "total": 6}]`,
	}
	rec := Normalize(doc, DefaultOptions())
	if len(rec.Items) != 1 || rec.Items[0].Name != "Stamp" || rec.Items[0].Qty.Value != 10 {
		t.Errorf("Items = %+v, want unwrapped Stamp row", rec.Items)
	}
}

func TestNormalizeResponseFailure(t *testing.T) {
	raw := "Sorry, the image is unreadable."
	rec, err := NormalizeResponse(raw, DefaultOptions())
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("error = %v, want ErrExtractionFailed", err)
	}
	if rec.DocID == "" {
		t.Error("defaulted record should still get a DocID")
	}
	if rec.RawText != raw {
		t.Errorf("RawText = %q, want original text retained", rec.RawText)
	}
	if rec.Total.Known {
		t.Error("defaulted record should have unknown total")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := "```json\n" + `{
		"invoice_number": "INV-7",
		"merchant": "Acme Office Supply",
		"date": "2024-03-12",
		"grand_total": "$1,274.40",
		"vat": "94.40",
		"currency": "usd",
		"items": [{"description": "Toner", "quantity": "6", "unit_price": "$90.00", "amount": "540.00"}],
		"document_type": "Invoice"
	}` + "\n```"

	first, err := NormalizeResponse(raw, DefaultOptions())
	if err != nil {
		t.Fatalf("NormalizeResponse() error = %v", err)
	}

	// Feeding a record's own JSON form back through the pipeline must not
	// change it.
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := NormalizeResponse(string(encoded), DefaultOptions())
	if err != nil {
		t.Fatalf("NormalizeResponse(round trip) error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
