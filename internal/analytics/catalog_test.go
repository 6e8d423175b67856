package analytics

import (
	"errors"
	"reflect"
	"testing"

	"ledgerlens/internal/models"
)

func TestCatalogNames(t *testing.T) {
	c := NewCatalog(5)
	names := c.Names()
	if len(names) != 15 {
		t.Fatalf("len(Names()) = %d, want 15", len(names))
	}
	// Every listed report must actually run.
	for _, name := range names {
		if _, err := c.Run(name, nil); err != nil {
			t.Errorf("Run(%q) error = %v", name, err)
		}
	}
}

func TestCatalogUnknownReport(t *testing.T) {
	c := NewCatalog(5)
	_, err := c.Run("net_worth", nil)
	if !errors.Is(err, ErrUnknownReport) {
		t.Errorf("error = %v, want ErrUnknownReport", err)
	}
}

func TestCatalogEmptyCollection(t *testing.T) {
	c := NewCatalog(5)

	// Sentinel reports flag the absence of data.
	for _, name := range []string{
		"average_invoice_amount",
		"highest_revenue_item",
		"most_frequent_item",
		"first_transaction_date",
		"most_common_bank",
	} {
		table, err := c.Run(name, nil)
		if err != nil {
			t.Fatalf("Run(%q) error = %v", name, err)
		}
		if table.Message != NoDataMessage || len(table.Rows) != 0 {
			t.Errorf("Run(%q) = %+v, want empty rows with %q message", name, table, NoDataMessage)
		}
	}

	// Sum reports produce an explicit zero instead.
	table, err := c.Run("total_tax_collected", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 || table.Rows[0]["total_tax"] != 0.0 {
		t.Errorf("total_tax_collected over nothing = %+v, want single zero row", table.Rows)
	}

	// Grouping reports just return no rows.
	table, err = c.Run("monthly_summary", nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows == nil || len(table.Rows) != 0 || table.Message != "" {
		t.Errorf("monthly_summary over nothing = %+v, want empty rows, no message", table)
	}
}

func TestCatalogTopVendorsTable(t *testing.T) {
	recs := []models.CanonicalRecord{
		{Vendor: "B", Amount: models.Num(350)},
		{Vendor: "A", Amount: models.Num(100)},
	}

	table, err := NewCatalog(5).Run("top_vendors", recs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"vendor", "total_spent"}) {
		t.Errorf("Columns = %v", table.Columns)
	}
	want := []map[string]any{
		{"vendor": "B", "total_spent": 350.0},
		{"vendor": "A", "total_spent": 100.0},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", table.Rows, want)
	}
}

func TestCatalogTopNBound(t *testing.T) {
	recs := make([]models.CanonicalRecord, 0, 10)
	vendors := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, v := range vendors {
		recs = append(recs, models.CanonicalRecord{Vendor: v, Amount: models.Num(float64(i + 1))})
	}

	table, err := NewCatalog(3).Run("top_vendors", recs)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 3 {
		t.Errorf("len(Rows) = %d, want 3", len(table.Rows))
	}
}

func TestCatalogMissingDueDatesTable(t *testing.T) {
	recs := []models.CanonicalRecord{
		{DocID: "x", InvoiceNumber: "INV-1", Vendor: "Acme", Date: "2024-01-01", DueDate: ""},
		{DocID: "y", DueDate: "2024-02-01"},
	}

	table, err := NewCatalog(5).Run("invoices_missing_due_dates", recs)
	if err != nil {
		t.Fatal(err)
	}
	wantCols := []string{"doc_id", "invoice_number", "vendor", "date", "due_date"}
	if !reflect.DeepEqual(table.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", table.Columns, wantCols)
	}
	if len(table.Rows) != 1 || table.Rows[0]["doc_id"] != "x" {
		t.Errorf("Rows = %+v, want just record x", table.Rows)
	}
}

func TestCatalogRunIsPure(t *testing.T) {
	recs := []models.CanonicalRecord{
		{Vendor: "A", Date: "2024-01-01", Total: models.Num(10), Amount: models.Num(10)},
		{Vendor: "B", Date: "2024-01-02", Total: models.Num(20), Amount: models.Num(20)},
	}
	snapshot := make([]models.CanonicalRecord, len(recs))
	copy(snapshot, recs)

	c := NewCatalog(5)
	for _, name := range c.Names() {
		first, err := c.Run(name, recs)
		if err != nil {
			t.Fatalf("Run(%q) error = %v", name, err)
		}
		second, err := c.Run(name, recs)
		if err != nil {
			t.Fatalf("Run(%q) error = %v", name, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Run(%q) not deterministic", name)
		}
	}
	if !reflect.DeepEqual(recs, snapshot) {
		t.Error("reports must not mutate the input records")
	}
}
