package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DocumentType classifies a processed financial document.
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeReceipt DocumentType = "receipt"
	DocumentTypeCheck   DocumentType = "check"
	DocumentTypeUnknown DocumentType = "unknown"
)

// ParseDocumentType maps free-form extractor output onto the document type
// enum. Anything unrecognized collapses to unknown.
func ParseDocumentType(s string) DocumentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "tax invoice", "bill":
		return DocumentTypeInvoice
	case "receipt", "sales receipt", "cash receipt":
		return DocumentTypeReceipt
	case "check", "cheque":
		return DocumentTypeCheck
	default:
		return DocumentTypeUnknown
	}
}

// Numeric is a decimal field coerced out of untrusted extractor output.
// Known reports whether coercion produced a usable number; an unknown value
// stays distinct from zero so aggregation can exclude it instead of
// counting it as 0.
type Numeric struct {
	Value float64
	Known bool
}

// Num wraps a known decimal value.
func Num(v float64) Numeric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Numeric{}
	}
	return Numeric{Value: v, Known: true}
}

// Unknown is the explicit failed-coercion marker.
func Unknown() Numeric { return Numeric{} }

// MarshalJSON renders a known value as a JSON number and an unknown value
// as null, which round-trips back to the same Numeric.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Known {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = Numeric{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = Numeric{}
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Num(f)
		} else {
			*n = Numeric{}
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = Numeric{}
		return nil
	}
	*n = Num(f)
	return nil
}

// LineItem is one entry of a document's item table.
type LineItem struct {
	Name  string  `json:"item"`
	Qty   Numeric `json:"qty"`
	Price Numeric `json:"price"`
	Total Numeric `json:"total"`
}

// CanonicalRecord is the schema-complete representation of one processed
// document. Every key of the extraction schema is always present: string
// fields default to "", numeric fields to the unknown marker, items to an
// empty sequence. Records are immutable once they leave the normalizer.
type CanonicalRecord struct {
	DocID           string       `json:"doc_id"`
	InvoiceNumber   string       `json:"invoice_number"`
	CheckNumber     string       `json:"check_number"`
	PONumber        string       `json:"po_number"`
	Vendor          string       `json:"vendor"`
	VendorAddress   string       `json:"vendor_address"`
	CustomerName    string       `json:"customer_name"`
	CustomerAddress string       `json:"customer_address"`
	Date            string       `json:"date"`
	DueDate         string       `json:"due_date"`
	PaymentDate     string       `json:"payment_date"`
	Amount          Numeric      `json:"amount"`
	Subtotal        Numeric      `json:"subtotal"`
	Tax             Numeric      `json:"tax"`
	Discount        Numeric      `json:"discount"`
	Total           Numeric      `json:"total"`
	Currency        string       `json:"currency"`
	PaymentMethod   string       `json:"payment_method"`
	AccountNumber   string       `json:"account_number"`
	RoutingNumber   string       `json:"routing_number"`
	BankName        string       `json:"bank_name"`
	DocumentType    DocumentType `json:"document_type"`
	Notes           string       `json:"notes"`
	Items           []LineItem   `json:"items"`
	RawText         string       `json:"text"`
}
