package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Input and output column names
const (
	ColProduct     = "Product"
	ColDescription = "Description"
	ColUPC         = "UPC"
	ColSize        = "Size"
	ColStore       = "Store"
	ColQty         = "Qty"

	ColGrandTotal = "Grand Total"
	GrandSumLabel = "Grand Sum"
)

// IdentityColumns are the row key of the pivot, in output order
var IdentityColumns = []string{ColProduct, ColDescription, ColUPC, ColSize}

// RequiredColumns must all be present before a dataset is aggregated
var RequiredColumns = []string{ColProduct, ColDescription, ColUPC, ColSize, ColStore, ColQty}

// IdentityKey identifies one output row
type IdentityKey struct {
	Product     string `json:"product"`
	Description string `json:"description"`
	UPC         string `json:"upc"`
	Size        string `json:"size"`
}

// Fields returns the key in IdentityColumns order
func (k IdentityKey) Fields() []string {
	return []string{k.Product, k.Description, k.UPC, k.Size}
}

// IsBlank reports whether every identity field is empty
func (k IdentityKey) IsBlank() bool {
	return k.Product == "" && k.Description == "" && k.UPC == "" && k.Size == ""
}

// Less orders keys field by field, lexicographically
func (k IdentityKey) Less(o IdentityKey) bool {
	a, b := k.Fields(), o.Fields()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (k IdentityKey) String() string {
	return strings.Join(k.Fields(), " | ")
}

// TableRow is one row of the pivot: a cell per store column plus its total
type TableRow struct {
	Key        IdentityKey       `json:"key"`
	Stores     []decimal.Decimal `json:"stores"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
}

// AggregatedTable is the Store-by-Product pivot of one dataset.
// Data rows are dense over Stores; GrandSum is always the trailing row.
type AggregatedTable struct {
	Dataset     string     `json:"dataset"`
	Stores      []string   `json:"stores"`
	Data        []TableRow `json:"data"`
	GrandSum    TableRow   `json:"grand_sum"`
	SkippedRows int        `json:"skipped_rows"`
}

// Header returns the ordered output columns
func (t *AggregatedTable) Header() []string {
	header := make([]string, 0, len(IdentityColumns)+len(t.Stores)+1)
	header = append(header, IdentityColumns...)
	header = append(header, t.Stores...)
	return append(header, ColGrandTotal)
}

// StoreIndex returns the position of a store column, or -1
func (t *AggregatedTable) StoreIndex(store string) int {
	for i, s := range t.Stores {
		if s == store {
			return i
		}
	}
	return -1
}

// Cell returns the value of a data row in a store column
func (t *AggregatedTable) Cell(row int, store string) (decimal.Decimal, bool) {
	idx := t.StoreIndex(store)
	if idx < 0 || row < 0 || row >= len(t.Data) {
		return decimal.Zero, false
	}
	return t.Data[row].Stores[idx], true
}

// AllRows returns the data rows followed by the Grand Sum row
func (t *AggregatedTable) AllRows() []TableRow {
	rows := make([]TableRow, 0, len(t.Data)+1)
	rows = append(rows, t.Data...)
	return append(rows, t.GrandSum)
}

// Rows renders every row, Grand Sum included, as text in Header order
func (t *AggregatedTable) Rows() [][]string {
	out := make([][]string, 0, len(t.Data)+1)
	for _, r := range t.AllRows() {
		line := make([]string, 0, len(IdentityColumns)+len(r.Stores)+1)
		line = append(line, r.Key.Fields()...)
		for _, v := range r.Stores {
			line = append(line, v.String())
		}
		out = append(out, append(line, r.GrandTotal.String()))
	}
	return out
}

// Check verifies the Grand Total and Grand Sum invariants
func (t *AggregatedTable) Check() error {
	colSums := make([]decimal.Decimal, len(t.Stores))
	total := decimal.Zero

	for _, r := range t.Data {
		if len(r.Stores) != len(t.Stores) {
			return &InvariantError{Dataset: t.Dataset, Key: r.Key.String(), Column: "stores",
				Want: decimal.NewFromInt(int64(len(t.Stores))), Got: decimal.NewFromInt(int64(len(r.Stores)))}
		}
		rowSum := decimal.Zero
		for i, v := range r.Stores {
			rowSum = rowSum.Add(v)
			colSums[i] = colSums[i].Add(v)
		}
		if !rowSum.Equal(r.GrandTotal) {
			return &InvariantError{Dataset: t.Dataset, Key: r.Key.String(), Column: ColGrandTotal, Want: rowSum, Got: r.GrandTotal}
		}
		total = total.Add(r.GrandTotal)
	}

	if len(t.GrandSum.Stores) != len(t.Stores) {
		return &InvariantError{Dataset: t.Dataset, Key: GrandSumLabel, Column: "stores",
			Want: decimal.NewFromInt(int64(len(t.Stores))), Got: decimal.NewFromInt(int64(len(t.GrandSum.Stores)))}
	}
	for i, want := range colSums {
		if got := t.GrandSum.Stores[i]; !want.Equal(got) {
			return &InvariantError{Dataset: t.Dataset, Key: GrandSumLabel, Column: t.Stores[i], Want: want, Got: got}
		}
	}
	if !total.Equal(t.GrandSum.GrandTotal) {
		return &InvariantError{Dataset: t.Dataset, Key: GrandSumLabel, Column: ColGrandTotal, Want: total, Got: t.GrandSum.GrandTotal}
	}
	return nil
}
