package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePaging_ClampsBounds(t *testing.T) {
	req := require.New(t)

	page, limit := NormalizePaging(0, 0)
	req.Equal(1, page)
	req.Equal(DefaultPageLimit, limit)

	page, limit = NormalizePaging(-3, 1000)
	req.Equal(1, page)
	req.Equal(MaxPageLimit, limit)

	page, limit = NormalizePaging(4, 25)
	req.Equal(4, page)
	req.Equal(25, limit)
}

func TestNewPage_ComputesTotals(t *testing.T) {
	req := require.New(t)

	page := NewPage([]int{1, 2, 3}, 1, 3, 7)
	req.Equal(3, page.TotalPages)
	req.EqualValues(7, page.TotalResults)

	empty := NewPage[int](nil, 1, 10, 0)
	req.NotNil(empty.Results)
	req.Empty(empty.Results)
	req.Zero(empty.TotalPages)
}
