package seed

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/carpetgrid/internal/grid"
)

func TestConvert(t *testing.T) {
	id := uuid.MustParse("3f1c1a52-8d4e-4c55-9b59-0c6a3e0e9a11")
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"numeric", pgtype.Numeric{Int: big.NewInt(24375), Exp: -1, Valid: true}, 2437.5},
		{"null numeric", pgtype.Numeric{}, nil},
		{"text", pgtype.Text{String: "FloorCo", Valid: true}, "FloorCo"},
		{"null text", pgtype.Text{}, nil},
		{"date", pgtype.Date{Time: day, Valid: true}, "2024-07-01"},
		{"time", day, "2024-07-01"},
		{"bool", true, "Yes"},
		{"pg bool", pgtype.Bool{Bool: false, Valid: true}, "No"},
		{"int32", int32(24), 24.0},
		{"int64", int64(-3), -3.0},
		{"float32", float32(1.5), 1.5},
		{"uuid", [16]byte(id), id.String()},
		{"bytes", []byte("raw"), "raw"},
		{"string", "S-1001", "S-1001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.in))
		})
	}
}

func TestParseTables(t *testing.T) {
	got, err := ParseTables("products:inventory.products, sales : sales_records,home")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"products": "inventory.products",
		"sales":    "sales_records",
		"home":     "home",
	}, got)

	empty, err := ParseTables("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"products:drop table", "products:a,products:b", ":x", "p:1abc"} {
		_, err := ParseTables(bad)
		assert.Error(t, err, bad)
	}
}

func TestColumnKey(t *testing.T) {
	schema := grid.MustNormalize([]grid.ColumnSpec{
		{Key: "productName", Label: "Product Name"},
		{Key: "stockLevel", Label: "Stock Level", Numeric: true},
	})

	assert.Equal(t, "productName", columnKey(schema, "productName"))
	assert.Equal(t, "stockLevel", columnKey(schema, "stock_level"))
	assert.Equal(t, "supplier_code", columnKey(schema, "supplier_code"))
	assert.Equal(t, "stock_level", columnKey(nil, "stock_level"))
}

func TestLoadUnknownPage(t *testing.T) {
	p := New(nil, Config{Tables: map[string]string{"products": "products"}})
	assert.True(t, p.Has("products"))
	assert.False(t, p.Has("sales"))

	_, err := p.Load(testCtx(t), "sales", nil)
	assert.ErrorIs(t, err, ErrNoTable)
}
