package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductValidate(t *testing.T) {
	valid := Product{Name: "Stratocaster", Price: 150000, Stock: 0, Category: "ギター"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		edit  func(*Product)
		field string
	}{
		{"blank name", func(p *Product) { p.Name = "  " }, "name"},
		{"zero price", func(p *Product) { p.Price = 0 }, "price"},
		{"negative stock", func(p *Product) { p.Stock = -1 }, "stock"},
		{"no category", func(p *Product) { p.Category = "" }, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)
			var verr *ValidationError
			err := p.Validate()
			assert.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHasStock(t *testing.T) {
	p := Product{Stock: 1}
	assert.True(t, p.HasStock(1))
	assert.False(t, p.HasStock(3))
	assert.False(t, p.HasStock(0))
}

func TestNormalizeLines(t *testing.T) {
	got := NormalizeLines([]StockLine{
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	})
	assert.Equal(t, []StockLine{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 4}}, got)
}
