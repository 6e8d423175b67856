package analytics

import (
	"reflect"
	"testing"

	"ledgerlens/internal/models"
)

func rec(mutate func(*models.CanonicalRecord)) models.CanonicalRecord {
	r := models.CanonicalRecord{}
	mutate(&r)
	return r
}

func TestMonthlySummary(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Date = "2024-02-10"; r.Total = models.Num(50) }),
		rec(func(r *models.CanonicalRecord) { r.Date = "2024-01-05"; r.Total = models.Num(100) }),
		rec(func(r *models.CanonicalRecord) { r.Date = "2024-01-20"; r.Total = models.Num(25) }),
		rec(func(r *models.CanonicalRecord) { r.Date = "not a date"; r.Total = models.Num(999) }),
		rec(func(r *models.CanonicalRecord) { r.Date = "2024-03-01" }), // unknown total
	}

	got := MonthlySummary(recs)
	want := []MonthlyTotal{
		{Month: "2024-01", Total: 125},
		{Month: "2024-02", Total: 50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonthlySummary() = %+v, want %+v", got, want)
	}
}

func TestTopVendors(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Vendor = "A"; r.Amount = models.Num(100) }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "B"; r.Amount = models.Num(350) }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = ""; r.Amount = models.Num(999) }),
		// amount unknown: falls back to total
		rec(func(r *models.CanonicalRecord) { r.Vendor = "C"; r.Total = models.Num(200) }),
	}

	got := TopVendors(recs, 5)
	want := []VendorSpend{
		{Vendor: "B", TotalSpent: 350},
		{Vendor: "C", TotalSpent: 200},
		{Vendor: "A", TotalSpent: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopVendors() = %+v, want %+v", got, want)
	}
}

func TestTopVendorsTieKeepsFirstSeen(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Vendor = "Zeta"; r.Amount = models.Num(100) }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "Alpha"; r.Amount = models.Num(100) }),
	}

	got := TopVendors(recs, 5)
	if len(got) != 2 || got[0].Vendor != "Zeta" || got[1].Vendor != "Alpha" {
		t.Errorf("tie should keep first-seen order, got %+v", got)
	}
}

func TestTopVendorsLimit(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Vendor = "A"; r.Amount = models.Num(3) }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "B"; r.Amount = models.Num(2) }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "C"; r.Amount = models.Num(1) }),
	}
	if got := TopVendors(recs, 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := TopVendors(recs, 0); len(got) != 3 {
		t.Errorf("n<=0 should return full ranking, len = %d", len(got))
	}
}

func TestTopItems(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) {
			r.Items = []models.LineItem{
				{Name: "Pen", Qty: models.Num(10), Total: models.Num(20)},
				{Name: "Notebook", Qty: models.Num(2), Total: models.Num(30)},
			}
		}),
		rec(func(r *models.CanonicalRecord) {
			r.Items = []models.LineItem{
				{Name: "Pen", Qty: models.Num(5), Total: models.Num(10)},
			}
		}),
	}

	got := TopItems(recs, 5)
	want := []ItemStat{
		{Item: "Pen", QtySold: 15, Revenue: 30},
		{Item: "Notebook", QtySold: 2, Revenue: 30},
	}
	// Equal revenue: Pen was seen first and stays first.
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopItems() = %+v, want %+v", got, want)
	}
}

func TestHighestRevenueAndMostFrequentItem(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) {
			r.Items = []models.LineItem{
				{Name: "Pen", Qty: models.Num(100), Total: models.Num(50)},
				{Name: "Laptop", Qty: models.Num(1), Total: models.Num(1200)},
			}
		}),
	}

	top, ok := HighestRevenueItem(recs)
	if !ok || top.Item != "Laptop" {
		t.Errorf("HighestRevenueItem() = %+v, %v; want Laptop", top, ok)
	}

	freq, ok := MostFrequentItem(recs)
	if !ok || freq.Item != "Pen" {
		t.Errorf("MostFrequentItem() = %+v, %v; want Pen", freq, ok)
	}

	if _, ok := HighestRevenueItem(nil); ok {
		t.Error("HighestRevenueItem(nil) should report no data")
	}
}

func TestVendorInvoiceCounts(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Vendor = "A"; r.InvoiceNumber = "1" }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "A"; r.InvoiceNumber = "2" }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "B"; r.InvoiceNumber = "3" }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "A" }), // no invoice number
	}

	got := VendorInvoiceCounts(recs)
	want := []VendorCount{
		{Vendor: "A", Invoices: 2},
		{Vendor: "B", Invoices: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("VendorInvoiceCounts() = %+v, want %+v", got, want)
	}
}

func TestAverageInvoiceAmount(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Total = models.Num(100) }),
		rec(func(r *models.CanonicalRecord) { r.Total = models.Num(200) }),
		rec(func(r *models.CanonicalRecord) {}), // unknown, excluded from mean
	}

	avg, ok := AverageInvoiceAmount(recs)
	if !ok || avg != 150 {
		t.Errorf("AverageInvoiceAmount() = %v, %v; want 150", avg, ok)
	}

	if _, ok := AverageInvoiceAmount(nil); ok {
		t.Error("empty collection should report no data")
	}
}

func TestAllVendors(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Vendor = "Zeta" }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "Alpha" }),
		rec(func(r *models.CanonicalRecord) { r.Vendor = "Zeta" }),
		rec(func(r *models.CanonicalRecord) {}),
	}

	got := AllVendors(recs)
	want := []string{"Alpha", "Zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllVendors() = %v, want %v", got, want)
	}
}

func TestFirstTransactionDate(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Date = "2024-05-01" }),
		rec(func(r *models.CanonicalRecord) { r.Date = "March 3, 2023" }),
		rec(func(r *models.CanonicalRecord) { r.Date = "garbled" }),
	}

	first, ok := FirstTransactionDate(recs)
	if !ok || first.Format("2006-01-02") != "2023-03-03" {
		t.Errorf("FirstTransactionDate() = %v, %v; want 2023-03-03", first, ok)
	}

	if _, ok := FirstTransactionDate(nil); ok {
		t.Error("no parseable dates should report no data")
	}
}

func TestTotalTaxAndDiscount(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.Tax = models.Num(5); r.Discount = models.Num(2) }),
		rec(func(r *models.CanonicalRecord) { r.Tax = models.Num(3) }),
		rec(func(r *models.CanonicalRecord) {}),
	}

	if got := TotalTaxCollected(recs); got != 8 {
		t.Errorf("TotalTaxCollected() = %v, want 8", got)
	}
	if got := TotalDiscountGiven(recs); got != 2 {
		t.Errorf("TotalDiscountGiven() = %v, want 2", got)
	}
	if got := TotalTaxCollected(nil); got != 0 {
		t.Errorf("TotalTaxCollected(nil) = %v, want 0", got)
	}
}

func TestPaymentMethodDistribution(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.PaymentMethod = "card" }),
		rec(func(r *models.CanonicalRecord) { r.PaymentMethod = "cash" }),
		rec(func(r *models.CanonicalRecord) { r.PaymentMethod = "card" }),
		rec(func(r *models.CanonicalRecord) { r.PaymentMethod = "" }),
	}

	got := PaymentMethodDistribution(recs)
	want := []KeyCount{
		{Key: "card", Count: 2},
		{Key: "cash", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PaymentMethodDistribution() = %+v, want %+v", got, want)
	}
}

func TestMostCommonBank(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.BankName = "First National" }),
		rec(func(r *models.CanonicalRecord) { r.BankName = "Commerce" }),
		rec(func(r *models.CanonicalRecord) { r.BankName = "First National" }),
	}

	bank, ok := MostCommonBank(recs)
	if !ok || bank.Key != "First National" || bank.Count != 2 {
		t.Errorf("MostCommonBank() = %+v, %v", bank, ok)
	}

	if _, ok := MostCommonBank(nil); ok {
		t.Error("no bank names should report no data")
	}
}

func TestInvoicesMissingDueDates(t *testing.T) {
	recs := []models.CanonicalRecord{
		rec(func(r *models.CanonicalRecord) { r.DocID = "a"; r.DueDate = "2024-04-01" }),
		rec(func(r *models.CanonicalRecord) { r.DocID = "b"; r.DueDate = "" }),
		rec(func(r *models.CanonicalRecord) { r.DocID = "c"; r.DueDate = "whenever" }),
	}

	got := InvoicesMissingDueDates(recs)
	if len(got) != 2 || got[0].DocID != "b" || got[1].DocID != "c" {
		t.Errorf("InvoicesMissingDueDates() = %+v, want b then c", got)
	}
}
