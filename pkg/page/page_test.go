package page

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"salesflow/pkg/apperr"
)

func TestFromQueryDefaults(t *testing.T) {
	r, err := FromQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Request{Page: 1, Size: DefaultSize}, r)
	assert.Equal(t, 0, r.Offset())
}

func TestFromQueryRejectsOutOfRange(t *testing.T) {
	for _, q := range []url.Values{
		{"page": {"0"}},
		{"size": {"0"}},
		{"size": {"101"}},
		{"page": {"x"}},
	} {
		_, err := FromQuery(q)
		assert.ErrorIs(t, err, apperr.ErrValidation, "query %v", q)
	}
}

func TestNewRejectsOverflowingPage(t *testing.T) {
	_, err := New(math.MaxInt, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = FromQuery(url.Values{"page": {"9223372036854775807"}, "size": {"10"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	last := math.MaxInt/MaxSize + 1
	r, err := New(last, MaxSize)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Offset(), 0)
}

func TestWindowClamps(t *testing.T) {
	tests := []struct {
		n, offset, limit int
		from, to         int
	}{
		{n: 5, offset: 0, limit: 2, from: 0, to: 2},
		{n: 5, offset: 4, limit: 2, from: 4, to: 5},
		{n: 5, offset: 9, limit: 2, from: 5, to: 5},
		{n: 5, offset: -3, limit: 2, from: 0, to: 2},
		{n: 5, offset: 2, limit: 0, from: 2, to: 5},
		{n: 5, offset: math.MaxInt - 1, limit: MaxSize, from: 5, to: 5},
		{n: 5, offset: 1, limit: math.MaxInt, from: 1, to: 5},
	}
	for _, tt := range tests {
		from, to := Window(tt.n, tt.offset, tt.limit)
		assert.Equal(t, [2]int{tt.from, tt.to}, [2]int{from, to}, "%+v", tt)
	}
}

func TestOffset(t *testing.T) {
	r, err := New(3, 20)
	require.NoError(t, err)
	assert.Equal(t, 40, r.Offset())
	assert.Equal(t, 20, r.Limit())
}

func TestPagesLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 5000).Draw(t, "total")
		size := rapid.IntRange(1, MaxSize).Draw(t, "size")

		pages := Pages(total, size)
		if (pages-1)*size >= total && total > 0 {
			t.Fatalf("too many pages: total=%d size=%d pages=%d", total, size, pages)
		}
		if pages*size < total {
			t.Fatalf("too few pages: total=%d size=%d pages=%d", total, size, pages)
		}

		seen := 0
		for p := 1; p <= pages; p++ {
			r, err := New(p, size)
			if err != nil {
				t.Fatal(err)
			}
			from, to := Window(total, r.Offset(), r.Limit())
			seen += to - from
		}
		if seen != total {
			t.Fatalf("walked %d items, want %d", seen, total)
		}
	})
}

func TestNewResultNeverNilItems(t *testing.T) {
	r, _ := New(1, 10)
	res := NewResult[int](r, nil, 0)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 0, res.Pages)
}
