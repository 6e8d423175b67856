// Package analytics computes the report catalog over a snapshot of
// canonical records. Every report is a pure function: it never mutates the
// records, holds no state between calls, and degrades to an empty table or
// a no-data result on an empty collection. Rows whose grouping or
// aggregation field failed coercion are excluded from the affected report
// only; they never make a report fail.
package analytics

import (
	"sort"
	"strings"
	"time"

	"ledgerlens/internal/models"
)

type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type VendorSpend struct {
	Vendor     string  `json:"vendor"`
	TotalSpent float64 `json:"total_spent"`
}

type ItemStat struct {
	Item    string  `json:"item"`
	QtySold float64 `json:"total_sold"`
	Revenue float64 `json:"total_revenue"`
}

type VendorCount struct {
	Vendor   string `json:"vendor"`
	Invoices int    `json:"invoice_count"`
}

type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// group accumulates values per key while remembering first-seen order,
// which is the tie-break for every ranked report.
type group[T any] struct {
	order  []string
	values map[string]T
}

func newGroup[T any]() *group[T] {
	return &group[T]{values: make(map[string]T)}
}

func (g *group[T]) update(key string, fn func(T) T) {
	if _, seen := g.values[key]; !seen {
		g.order = append(g.order, key)
	}
	g.values[key] = fn(g.values[key])
}

// MonthlySummary sums document totals per issue month, ascending by month.
// Records with an unparsable issue date or an unknown total are skipped.
func MonthlySummary(recs []models.CanonicalRecord) []MonthlyTotal {
	g := newGroup[float64]()
	for _, rec := range recs {
		t, ok := parseDate(rec.Date)
		if !ok || !rec.Total.Known {
			continue
		}
		total := rec.Total.Value
		g.update(t.Format("2006-01"), func(sum float64) float64 { return sum + total })
	}
	out := make([]MonthlyTotal, 0, len(g.order))
	for _, month := range g.order {
		out = append(out, MonthlyTotal{Month: month, Total: g.values[month]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// recordSpend is the value a record contributes to vendor spending: the
// amount field when known, else the document total. Records where both are
// unknown contribute nothing.
func recordSpend(rec models.CanonicalRecord) (float64, bool) {
	if rec.Amount.Known {
		return rec.Amount.Value, true
	}
	if rec.Total.Known {
		return rec.Total.Value, true
	}
	return 0, false
}

// TopVendors ranks vendors by total spend, descending; ties keep
// first-seen order. n <= 0 returns the full ranking.
func TopVendors(recs []models.CanonicalRecord, n int) []VendorSpend {
	g := newGroup[float64]()
	for _, rec := range recs {
		if rec.Vendor == "" {
			continue
		}
		spend, ok := recordSpend(rec)
		if !ok {
			continue
		}
		g.update(rec.Vendor, func(sum float64) float64 { return sum + spend })
	}
	out := make([]VendorSpend, 0, len(g.order))
	for _, vendor := range g.order {
		out = append(out, VendorSpend{Vendor: vendor, TotalSpent: g.values[vendor]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	return limit(out, n)
}

func itemStats(recs []models.CanonicalRecord) []ItemStat {
	g := newGroup[ItemStat]()
	for _, rec := range recs {
		for _, item := range rec.Items {
			name := item.Name
			if name == "" {
				continue
			}
			qty, total := item.Qty, item.Total
			g.update(name, func(s ItemStat) ItemStat {
				s.Item = name
				if qty.Known {
					s.QtySold += qty.Value
				}
				if total.Known {
					s.Revenue += total.Value
				}
				return s
			})
		}
	}
	out := make([]ItemStat, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.values[name])
	}
	return out
}

// TopItems ranks line items by summed revenue, descending; ties keep
// first-seen order.
func TopItems(recs []models.CanonicalRecord, n int) []ItemStat {
	out := itemStats(recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return limit(out, n)
}

// VendorInvoiceCounts counts documents carrying an invoice number per
// vendor, descending.
func VendorInvoiceCounts(recs []models.CanonicalRecord) []VendorCount {
	g := newGroup[int]()
	for _, rec := range recs {
		if rec.Vendor == "" || rec.InvoiceNumber == "" {
			continue
		}
		g.update(rec.Vendor, func(c int) int { return c + 1 })
	}
	out := make([]VendorCount, 0, len(g.order))
	for _, vendor := range g.order {
		out = append(out, VendorCount{Vendor: vendor, Invoices: g.values[vendor]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Invoices > out[j].Invoices })
	return out
}

// AverageInvoiceAmount is the mean of known document totals. ok is false
// when no record has a known total.
func AverageInvoiceAmount(recs []models.CanonicalRecord) (float64, bool) {
	var sum float64
	var count int
	for _, rec := range recs {
		if rec.Total.Known {
			sum += rec.Total.Value
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// AllVendors lists distinct vendors in ascending lexicographic order.
func AllVendors(recs []models.CanonicalRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range recs {
		if rec.Vendor == "" {
			continue
		}
		if _, ok := seen[rec.Vendor]; ok {
			continue
		}
		seen[rec.Vendor] = struct{}{}
		out = append(out, rec.Vendor)
	}
	sort.Strings(out)
	return out
}

// HighestRevenueItem returns the line item with the largest summed
// revenue; the first-seen item wins a tie. ok is false with no item data.
func HighestRevenueItem(recs []models.CanonicalRecord) (ItemStat, bool) {
	stats := itemStats(recs)
	if len(stats) == 0 {
		return ItemStat{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if s.Revenue > best.Revenue {
			best = s
		}
	}
	return best, true
}

// MostFrequentItem returns the line item with the largest summed quantity;
// the first-seen item wins a tie.
func MostFrequentItem(recs []models.CanonicalRecord) (ItemStat, bool) {
	stats := itemStats(recs)
	if len(stats) == 0 {
		return ItemStat{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if s.QtySold > best.QtySold {
			best = s
		}
	}
	return best, true
}

// FirstTransactionDate is the earliest parseable issue date.
func FirstTransactionDate(recs []models.CanonicalRecord) (time.Time, bool) {
	var first time.Time
	found := false
	for _, rec := range recs {
		t, ok := parseDate(rec.Date)
		if !ok {
			continue
		}
		if !found || t.Before(first) {
			first = t
			found = true
		}
	}
	return first, found
}

// TotalTaxCollected sums known tax values; zero when none are known.
func TotalTaxCollected(recs []models.CanonicalRecord) float64 {
	var sum float64
	for _, rec := range recs {
		if rec.Tax.Known {
			sum += rec.Tax.Value
		}
	}
	return sum
}

// TotalDiscountGiven sums known discount values; zero when none are known.
func TotalDiscountGiven(recs []models.CanonicalRecord) float64 {
	var sum float64
	for _, rec := range recs {
		if rec.Discount.Known {
			sum += rec.Discount.Value
		}
	}
	return sum
}

func countByKey(recs []models.CanonicalRecord, key func(models.CanonicalRecord) string) []KeyCount {
	g := newGroup[int]()
	for _, rec := range recs {
		k := strings.TrimSpace(key(rec))
		if k == "" {
			continue
		}
		g.update(k, func(c int) int { return c + 1 })
	}
	out := make([]KeyCount, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, KeyCount{Key: k, Count: g.values[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// PaymentMethodDistribution counts documents per payment method, descending.
func PaymentMethodDistribution(recs []models.CanonicalRecord) []KeyCount {
	return countByKey(recs, func(r models.CanonicalRecord) string { return r.PaymentMethod })
}

// CurrencyUsage counts documents per currency code, descending.
func CurrencyUsage(recs []models.CanonicalRecord) []KeyCount {
	return countByKey(recs, func(r models.CanonicalRecord) string { return r.Currency })
}

// MostCommonBank returns the most referenced bank name; the first-seen
// bank wins a tie.
func MostCommonBank(recs []models.CanonicalRecord) (KeyCount, bool) {
	counts := countByKey(recs, func(r models.CanonicalRecord) string { return r.BankName })
	if len(counts) == 0 {
		return KeyCount{}, false
	}
	// countByKey sorts descending with first-seen tie-break already applied
	return counts[0], true
}

// InvoicesMissingDueDates filters records whose due date is empty or does
// not parse, preserving input order and the records' original field values.
func InvoicesMissingDueDates(recs []models.CanonicalRecord) []models.CanonicalRecord {
	var out []models.CanonicalRecord
	for _, rec := range recs {
		if _, ok := parseDate(rec.DueDate); !ok {
			out = append(out, rec)
		}
	}
	return out
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
