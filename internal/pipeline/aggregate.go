package pipeline

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"stock-pivot/internal/model"
)

// ErrBlankKey means a quantity has no Store or no identity to be summed under
var ErrBlankKey = errors.New("quantity without a pivot key")

// cellKey addresses one (row, store column) cell of the pivot
type cellKey struct {
	key   model.IdentityKey
	store string
}

// Aggregate pivots a validated dataset into a Store-by-Product table.
//
// Duplicate (IdentityKey, Store) records are summed. Every identity gets a
// cell for every store seen anywhere in the dataset, zero when nothing
// contributed. Data rows are sorted by IdentityKey and store columns by
// name, so identical input always yields an identical table.
//
// A quantity is never dropped silently: a record with a Qty but a blank
// Store, or a blank whole IdentityKey, is a *model.CellError. Such records
// without a Qty carry nothing to sum and are skipped and counted instead.
// Partially blank keys are ordinary keys.
func Aggregate(ds *model.Dataset) (*model.AggregatedTable, error) {
	sums := make(map[cellKey]decimal.Decimal)
	identities := make(map[model.IdentityKey]struct{})
	stores := make(map[string]struct{})
	skipped := 0

	for i, rec := range ds.Rows {
		row := ds.RowNumber(i)

		qty, present, err := parseQty(rec[model.ColQty])
		if err != nil {
			return nil, &model.CellError{Dataset: ds.Name, Row: row, Column: model.ColQty, Value: rec[model.ColQty], Err: err}
		}

		store, err := CanonicalText(rec[model.ColStore])
		if err != nil {
			return nil, &model.CellError{Dataset: ds.Name, Row: row, Column: model.ColStore, Value: rec[model.ColStore], Err: err}
		}

		key, col, err := identityOf(rec)
		if err != nil {
			return nil, &model.CellError{Dataset: ds.Name, Row: row, Column: col, Value: rec[col], Err: err}
		}

		if store == "" || key.IsBlank() {
			if !present {
				skipped++
				continue
			}
			col := model.ColStore
			if store != "" {
				col = model.ColProduct
			}
			return nil, &model.CellError{Dataset: ds.Name, Row: row, Column: col, Value: rec[col], Err: ErrBlankKey}
		}

		identities[key] = struct{}{}
		stores[store] = struct{}{}
		if present {
			ck := cellKey{key: key, store: store}
			sums[ck] = sums[ck].Add(qty)
		}
	}

	table := &model.AggregatedTable{
		Dataset:     ds.Name,
		Stores:      sortedStores(stores),
		SkippedRows: skipped,
	}

	keys := make([]model.IdentityKey, 0, len(identities))
	for k := range identities {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	table.Data = make([]model.TableRow, 0, len(keys))
	for _, k := range keys {
		r := model.TableRow{Key: k, Stores: make([]decimal.Decimal, len(table.Stores)), GrandTotal: decimal.Zero}
		for i, store := range table.Stores {
			v, ok := sums[cellKey{key: k, store: store}]
			if !ok {
				v = decimal.Zero
			}
			r.Stores[i] = v
			r.GrandTotal = r.GrandTotal.Add(v)
		}
		table.Data = append(table.Data, r)
	}

	table.GrandSum = grandSum(table)
	return table, nil
}

// grandSum builds the trailing column-wise totals row
func grandSum(t *model.AggregatedTable) model.TableRow {
	sum := model.TableRow{
		Key:        model.IdentityKey{Product: model.GrandSumLabel},
		Stores:     make([]decimal.Decimal, len(t.Stores)),
		GrandTotal: decimal.Zero,
	}
	for i := range sum.Stores {
		sum.Stores[i] = decimal.Zero
	}
	for _, r := range t.Data {
		for i, v := range r.Stores {
			sum.Stores[i] = sum.Stores[i].Add(v)
		}
		sum.GrandTotal = sum.GrandTotal.Add(r.GrandTotal)
	}
	return sum
}

func sortedStores(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
