package pagination

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClamps(t *testing.T) {
	tests := []struct {
		name            string
		page, perPage   int
		wantPage, wantP int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative page", -3, 20, 1, 20},
		{"per page above max", 2, 500, 2, 100},
		{"per page negative", 1, -1, 1, 10},
		{"in range", 4, 25, 4, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantP, p.PerPage)
		})
	}
}

func TestHugePageKeepsOffsetPositive(t *testing.T) {
	for _, perPage := range []int{1, 10, MaxPerPage} {
		p := New(math.MaxInt, perPage)
		assert.Positive(t, p.Offset())
		assert.LessOrEqual(t, p.Offset(), math.MaxInt-perPage)
	}

	p := Parse(strconv.Itoa(math.MaxInt), "100")
	assert.Positive(t, p.Offset())

	meta := NewMeta(p, 25)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
}

func TestParse(t *testing.T) {
	p := Parse("abc", "")
	assert.Equal(t, Params{Page: 1, PerPage: 10}, p)

	p = Parse("3", "15")
	assert.Equal(t, 30, p.Offset())
	assert.Equal(t, 15, p.Limit())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(New(3, 10), 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
	assert.EqualValues(t, 25, meta.TotalItems)

	meta = NewMeta(New(1, 10), 25)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)

	meta = NewMeta(New(1, 10), 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)

	meta = NewMeta(New(2, 10), 20)
	assert.Equal(t, 2, meta.TotalPages)
	assert.False(t, meta.HasNext)
}
