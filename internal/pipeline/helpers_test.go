package pipeline

import (
	"github.com/shopspring/decimal"

	"stock-pivot/internal/model"
)

func rec(product, desc, upc, size string, store, qty interface{}) model.GenericRecord {
	return model.GenericRecord{
		model.ColProduct:     product,
		model.ColDescription: desc,
		model.ColUPC:         upc,
		model.ColSize:        size,
		model.ColStore:       store,
		model.ColQty:         qty,
	}
}

func dataset(name string, rows ...model.GenericRecord) *model.Dataset {
	return &model.Dataset{
		Name:    name,
		Columns: append([]string(nil), model.RequiredColumns...),
		Rows:    rows,
	}
}

func num(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
