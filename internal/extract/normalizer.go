package extract

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ledgerlens/internal/models"
)

// Options tune the best-effort transformations of the normalizer. The
// zero value disables them all; DefaultOptions matches production behavior.
type Options struct {
	// ConvertPercents rewrites a percentage tax/discount into an absolute
	// value when a known base amount is available. When the base is
	// ambiguous the raw normalized value is kept.
	ConvertPercents bool
}

func DefaultOptions() Options {
	return Options{ConvertPercents: true}
}

// fieldAliases maps each canonical key to the alternate spellings the
// extractor is known to produce. An alias fills the canonical field only
// when the canonical key is absent or empty, and never survives in the
// output: the record's key set is fixed.
var fieldAliases = map[string][]string{
	"invoice_number": {"invoice_no", "invoice_id", "inv_number"},
	"check_number":   {"check_no", "cheque_number"},
	"po_number":      {"purchase_order", "purchase_order_number"},
	"vendor":         {"vendor_name", "merchant", "merchant_name", "seller", "supplier"},
	"vendor_address": {"merchant_address", "seller_address"},
	"customer_name":  {"customer", "buyer", "bill_to"},
	"date":           {"invoice_date", "issue_date", "transaction_date"},
	"due_date":       {"payment_due", "payment_due_date"},
	"payment_date":   {"paid_date", "date_paid"},
	"amount":         {"amount_paid", "paid_amount"},
	"subtotal":       {"sub_total", "net_amount"},
	"tax":            {"vat", "tax_amount", "sales_tax", "gst"},
	"discount":       {"discount_amount"},
	"total":          {"grand_total", "total_amount", "amount_due", "total_due"},
	"currency":       {"currency_code"},
	"payment_method": {"payment_type", "method_of_payment"},
	"account_number": {"account_no", "acct_number"},
	"routing_number": {"routing_no", "aba_number"},
	"bank_name":      {"bank"},
	"notes":          {"note", "memo", "comments"},
}

var itemAliases = map[string][]string{
	"item":  {"name", "description", "product"},
	"qty":   {"quantity", "count"},
	"price": {"unit_price", "rate"},
	"total": {"line_total", "amount"},
}

// NormalizeResponse runs the full decode + normalize pipeline on one raw
// extractor response. A decode failure is not fatal: the returned record is
// fully defaulted and ErrExtractionFailed is reported alongside it so the
// caller can log the degradation. The raw text is always retained on the
// record for downstream retrieval.
func NormalizeResponse(raw string, opts Options) (models.CanonicalRecord, error) {
	doc, err := DecodeResponse(raw)
	if err != nil {
		doc = map[string]any{}
	}
	rec := Normalize(doc, opts)
	if rec.RawText == "" {
		rec.RawText = strings.TrimSpace(raw)
	}
	return rec, err
}

// Normalize maps a decoded object onto the full record schema: default
// fill, alias resolution, numeric coercion, currency inference and
// line-item cleanup. Unknown input keys are dropped. The output always
// carries every canonical key.
func Normalize(doc map[string]any, opts Options) models.CanonicalRecord {
	in := lowerKeys(doc)

	rec := models.CanonicalRecord{
		DocID:           stringField(in, "doc_id"),
		InvoiceNumber:   stringField(in, "invoice_number"),
		CheckNumber:     stringField(in, "check_number"),
		PONumber:        stringField(in, "po_number"),
		Vendor:          stringField(in, "vendor"),
		VendorAddress:   stringField(in, "vendor_address"),
		CustomerName:    stringField(in, "customer_name"),
		CustomerAddress: stringField(in, "customer_address"),
		Date:            stringField(in, "date"),
		DueDate:         stringField(in, "due_date"),
		PaymentDate:     stringField(in, "payment_date"),
		Amount:          numericField(in, "amount"),
		Subtotal:        numericField(in, "subtotal"),
		Tax:             numericField(in, "tax"),
		Discount:        numericField(in, "discount"),
		Total:           numericField(in, "total"),
		Currency:        stringField(in, "currency"),
		PaymentMethod:   stringField(in, "payment_method"),
		AccountNumber:   stringField(in, "account_number"),
		RoutingNumber:   stringField(in, "routing_number"),
		BankName:        stringField(in, "bank_name"),
		DocumentType:    models.ParseDocumentType(stringField(in, "document_type")),
		Notes:           stringField(in, "notes"),
		Items:           normalizeItems(rawField(in, "items")),
		RawText:         stringField(in, "text"),
	}

	if opts.ConvertPercents {
		if base, ok := percentBase(rec); ok {
			if rec.Tax.Known && isPercentValue(rawField(in, "tax")) {
				rec.Tax = models.Num(round2(base * rec.Tax.Value / 100))
			}
			if rec.Discount.Known && isPercentValue(rawField(in, "discount")) {
				rec.Discount = models.Num(round2(base * rec.Discount.Value / 100))
			}
		}
	}

	rec.Currency = normalizeCurrency(rec.Currency, in)

	if rec.DocID == "" {
		rec.DocID = uuid.New().String()
	}
	return rec
}

// lowerKeys builds a case-insensitive view of the decoded object. Keys are
// visited in sorted order so a casing collision resolves the same way on
// every run.
func lowerKeys(doc map[string]any) map[string]any {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(doc))
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, exists := out[lk]; !exists {
			out[lk] = doc[k]
		}
	}
	return out
}

// rawField resolves a canonical key through its alias chain, returning the
// first present value.
func rawField(in map[string]any, key string) any {
	if v, ok := in[key]; ok && !isEmptyValue(v) {
		return v
	}
	for _, alias := range fieldAliases[key] {
		if v, ok := in[alias]; ok && !isEmptyValue(v) {
			return v
		}
	}
	if v, ok := in[key]; ok {
		return v
	}
	return nil
}

func isEmptyValue(v any) bool {
	s, ok := v.(string)
	return v == nil || (ok && strings.TrimSpace(s) == "")
}

func stringField(in map[string]any, key string) string {
	return stringify(rawField(in, key))
}

func numericField(in map[string]any, key string) models.Numeric {
	return CoerceNumeric(rawField(in, key))
}

// stringify renders a scalar as a trimmed string. Extractors occasionally
// emit numbers where the schema says string (invoice numbers, dates).
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// CoerceNumeric cleans an untrusted scalar into a decimal. For strings,
// everything except digits, one leading minus and one decimal point is
// stripped before parsing. Anything that still does not parse becomes the
// explicit unknown marker, never zero.
func CoerceNumeric(v any) models.Numeric {
	switch t := v.(type) {
	case float64:
		return models.Num(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return models.Num(f)
		}
		return models.Unknown()
	case string:
		return coerceNumericString(t)
	default:
		return models.Unknown()
	}
}

func coerceNumericString(s string) models.Numeric {
	var b strings.Builder
	seenDot := false
	seenDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			seenDigit = true
		case r == '.' && !seenDot:
			b.WriteRune(r)
			seenDot = true
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	if !seenDigit {
		return models.Unknown()
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return models.Unknown()
	}
	return models.Num(f)
}

// isPercentValue reports whether the raw input for a field was written as a
// percentage, e.g. "8.5%".
func isPercentValue(v any) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, "%")
}

// percentBase picks the base amount for percent-to-absolute conversion:
// subtotal when known, otherwise amount. No known base means the
// conversion is ambiguous and is skipped.
func percentBase(rec models.CanonicalRecord) (float64, bool) {
	if rec.Subtotal.Known {
		return rec.Subtotal.Value, true
	}
	if rec.Amount.Known {
		return rec.Amount.Value, true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeItems applies default-fill and coercion per line item. The
// extractor sometimes returns the item table as a JSON-encoded string;
// that is unwrapped first. Items without a usable name are garbage rows
// and are dropped.
func normalizeItems(v any) []models.LineItem {
	list, ok := v.([]any)
	if !ok {
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
			var parsed []any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				list = parsed
			}
		}
	}
	items := make([]models.LineItem, 0, len(list))
	for _, entry := range list {
		m, isMap := entry.(map[string]any)
		if !isMap {
			continue
		}
		in := lowerKeys(m)
		item := models.LineItem{
			Name:  stringify(itemField(in, "item")),
			Qty:   CoerceNumeric(itemField(in, "qty")),
			Price: CoerceNumeric(itemField(in, "price")),
			Total: CoerceNumeric(itemField(in, "total")),
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func itemField(in map[string]any, key string) any {
	if v, ok := in[key]; ok && !isEmptyValue(v) {
		return v
	}
	for _, alias := range itemAliases[key] {
		if v, ok := in[alias]; ok && !isEmptyValue(v) {
			return v
		}
	}
	return nil
}
