package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceItemAmountCents(t *testing.T) {
	item := InvoiceItem{Quantity: 3, UnitPriceCents: 2550}
	assert.Equal(t, int64(7650), item.AmountCents())
}

func TestInvoiceItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    InvoiceItem
		wantErr bool
	}{
		{
			name: "valid labor line",
			item: InvoiceItem{Kind: InvoiceItemKindLabor, Description: "Compressor swap", Quantity: 2, UnitPriceCents: 12000},
		},
		{
			name: "free line is allowed",
			item: InvoiceItem{Kind: InvoiceItemKindOther, Description: "Warranty credit", Quantity: 1, UnitPriceCents: 0},
		},
		{
			name:    "unknown kind",
			item:    InvoiceItem{Kind: "misc", Description: "Compressor swap", Quantity: 1, UnitPriceCents: 100},
			wantErr: true,
		},
		{
			name:    "missing description",
			item:    InvoiceItem{Kind: InvoiceItemKindPart, Quantity: 1, UnitPriceCents: 100},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			item:    InvoiceItem{Kind: InvoiceItemKindPart, Description: "Run capacitor", Quantity: 0, UnitPriceCents: 100},
			wantErr: true,
		},
		{
			name:    "negative unit price",
			item:    InvoiceItem{Kind: InvoiceItemKindPart, Description: "Run capacitor", Quantity: 1, UnitPriceCents: -50},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvoiceRecalculate(t *testing.T) {
	inv := Invoice{
		TaxCents: 800,
		Items: []InvoiceItem{
			{Kind: InvoiceItemKindLabor, Quantity: 1, UnitPriceCents: 12000},
			{Kind: InvoiceItemKindPart, Quantity: 2, UnitPriceCents: 4500},
		},
	}
	inv.Recalculate()

	assert.Equal(t, int64(21000), inv.SubtotalCents)
	assert.Equal(t, int64(21800), inv.TotalCents)
}

func TestInvoiceRecalculateNoItems(t *testing.T) {
	inv := Invoice{TaxCents: 500, SubtotalCents: 999, TotalCents: 999}
	inv.Recalculate()

	assert.Zero(t, inv.SubtotalCents)
	assert.Equal(t, int64(500), inv.TotalCents)
}
