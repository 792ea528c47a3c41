package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name             string
		page, size       string
		wantPage, wantSz int
		wantOffset       int
	}{
		{"defaults", "", "", 1, 20, 0},
		{"second page", "2", "10", 2, 10, 10},
		{"clamped size", "1", "500", 1, 100, 0},
		{"garbage", "x", "-3", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePagination(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSz, p.Limit())
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}

	p := ParsePagination("1", "10").WithTotal(25)
	assert.EqualValues(t, 3, p.Pages)
}
