package analytics

import (
	"errors"
	"fmt"

	"ledgerlens/internal/models"
)

// ErrUnknownReport is returned for a report name outside the catalog.
var ErrUnknownReport = errors.New("analytics: unknown report")

// NoDataMessage marks a sentinel report computed over an empty or fully
// unusable collection.
const NoDataMessage = "no data"

// Table is the uniform report output: a small ordered table with a fixed
// column set per report. Sentinel reports set Message instead of rows.
type Table struct {
	Report  string           `json:"report"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Message string           `json:"message,omitempty"`
}

// Catalog is the fixed set of named reports the aggregator can produce.
// It holds configuration only; every run is a pure read of the snapshot
// passed in.
type Catalog struct {
	topN int
}

func NewCatalog(topN int) *Catalog {
	if topN <= 0 {
		topN = 5
	}
	return &Catalog{topN: topN}
}

var reportNames = []string{
	"monthly_summary",
	"top_vendors",
	"top_items",
	"vendor_invoice_counts",
	"average_invoice_amount",
	"all_vendors",
	"highest_revenue_item",
	"most_frequent_item",
	"first_transaction_date",
	"total_tax_collected",
	"total_discount_given",
	"payment_method_distribution",
	"currency_usage",
	"most_common_bank",
	"invoices_missing_due_dates",
}

// Names lists the catalog in its fixed order.
func (c *Catalog) Names() []string {
	out := make([]string, len(reportNames))
	copy(out, reportNames)
	return out
}

// Run computes one named report over a snapshot of records.
func (c *Catalog) Run(name string, recs []models.CanonicalRecord) (*Table, error) {
	t := &Table{Report: name, Rows: []map[string]any{}}
	switch name {
	case "monthly_summary":
		t.Columns = []string{"month", "total"}
		for _, row := range MonthlySummary(recs) {
			t.Rows = append(t.Rows, map[string]any{"month": row.Month, "total": row.Total})
		}
	case "top_vendors":
		t.Columns = []string{"vendor", "total_spent"}
		for _, row := range TopVendors(recs, c.topN) {
			t.Rows = append(t.Rows, map[string]any{"vendor": row.Vendor, "total_spent": row.TotalSpent})
		}
	case "top_items":
		t.Columns = []string{"item", "total_sold", "total_revenue"}
		for _, row := range TopItems(recs, c.topN) {
			t.Rows = append(t.Rows, map[string]any{
				"item": row.Item, "total_sold": row.QtySold, "total_revenue": row.Revenue,
			})
		}
	case "vendor_invoice_counts":
		t.Columns = []string{"vendor", "invoice_count"}
		for _, row := range VendorInvoiceCounts(recs) {
			t.Rows = append(t.Rows, map[string]any{"vendor": row.Vendor, "invoice_count": row.Invoices})
		}
	case "average_invoice_amount":
		t.Columns = []string{"average_total"}
		if avg, ok := AverageInvoiceAmount(recs); ok {
			t.Rows = append(t.Rows, map[string]any{"average_total": avg})
		} else {
			t.Message = NoDataMessage
		}
	case "all_vendors":
		t.Columns = []string{"vendor"}
		for _, vendor := range AllVendors(recs) {
			t.Rows = append(t.Rows, map[string]any{"vendor": vendor})
		}
	case "highest_revenue_item":
		t.Columns = []string{"item", "revenue"}
		if item, ok := HighestRevenueItem(recs); ok {
			t.Rows = append(t.Rows, map[string]any{"item": item.Item, "revenue": item.Revenue})
		} else {
			t.Message = NoDataMessage
		}
	case "most_frequent_item":
		t.Columns = []string{"item", "quantity"}
		if item, ok := MostFrequentItem(recs); ok {
			t.Rows = append(t.Rows, map[string]any{"item": item.Item, "quantity": item.QtySold})
		} else {
			t.Message = NoDataMessage
		}
	case "first_transaction_date":
		t.Columns = []string{"first_transaction"}
		if first, ok := FirstTransactionDate(recs); ok {
			t.Rows = append(t.Rows, map[string]any{"first_transaction": first.Format("2006-01-02")})
		} else {
			t.Message = NoDataMessage
		}
	case "total_tax_collected":
		t.Columns = []string{"total_tax"}
		t.Rows = append(t.Rows, map[string]any{"total_tax": TotalTaxCollected(recs)})
	case "total_discount_given":
		t.Columns = []string{"total_discount"}
		t.Rows = append(t.Rows, map[string]any{"total_discount": TotalDiscountGiven(recs)})
	case "payment_method_distribution":
		t.Columns = []string{"payment_method", "count"}
		for _, row := range PaymentMethodDistribution(recs) {
			t.Rows = append(t.Rows, map[string]any{"payment_method": row.Key, "count": row.Count})
		}
	case "currency_usage":
		t.Columns = []string{"currency", "count"}
		for _, row := range CurrencyUsage(recs) {
			t.Rows = append(t.Rows, map[string]any{"currency": row.Key, "count": row.Count})
		}
	case "most_common_bank":
		t.Columns = []string{"bank_name", "count"}
		if bank, ok := MostCommonBank(recs); ok {
			t.Rows = append(t.Rows, map[string]any{"bank_name": bank.Key, "count": bank.Count})
		} else {
			t.Message = NoDataMessage
		}
	case "invoices_missing_due_dates":
		t.Columns = []string{"doc_id", "invoice_number", "vendor", "date", "due_date"}
		for _, rec := range InvoicesMissingDueDates(recs) {
			t.Rows = append(t.Rows, map[string]any{
				"doc_id":         rec.DocID,
				"invoice_number": rec.InvoiceNumber,
				"vendor":         rec.Vendor,
				"date":           rec.Date,
				"due_date":       rec.DueDate,
			})
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}
	return t, nil
}
