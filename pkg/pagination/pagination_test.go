package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/orders", 1, 20, 0},
		{"explicit values", "/orders?page=3&limit=50", 3, 50, 100},
		{"zero page falls back", "/orders?page=0", 1, 20, 0},
		{"negative page falls back", "/orders?page=-2", 1, 20, 0},
		{"non-numeric page falls back", "/orders?page=abc", 1, 20, 0},
		{"limit above cap falls back", "/orders?limit=500", 1, 20, 0},
		{"limit at cap accepted", "/orders?limit=100", 1, 100, 0},
		{"zero limit falls back", "/orders?limit=0", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestNewResult(t *testing.T) {
	items := []string{"a", "b", "c"}
	res := NewResult(items, 45, Params{Page: 2, Limit: 20, Offset: 20})

	assert.Equal(t, items, res.Items)
	assert.Equal(t, 45, res.Meta.TotalCount)
	assert.Equal(t, 3, res.Meta.TotalPages)
	assert.True(t, res.Meta.HasNext)
	assert.True(t, res.Meta.HasPrev)
}

func TestNewResult_LastPage(t *testing.T) {
	res := NewResult([]string{"z"}, 41, Params{Page: 3, Limit: 20, Offset: 40})

	assert.Equal(t, 3, res.Meta.TotalPages)
	assert.False(t, res.Meta.HasNext)
	assert.True(t, res.Meta.HasPrev)
}

func TestNewResult_Empty(t *testing.T) {
	res := NewResult([]string{}, 0, DefaultParams())

	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Meta.TotalPages)
	assert.False(t, res.Meta.HasNext)
	assert.False(t, res.Meta.HasPrev)
}
