package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetabonding_API_ParsePage(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		query string
		want  page
	}{
		{"", page{limit: defaultPageLimit}},
		{"?limit=5&offset=2", page{limit: 5, offset: 2}},
		{"?limit=5000", page{limit: maxPageLimit}},
		{"?limit=0&offset=-1", page{limit: defaultPageLimit}},
		{"?limit=x&offset=y", page{limit: defaultPageLimit}},
	} {
		got := parsePage(httptest.NewRequest("GET", "/api/projects"+tc.query, nil))
		require.Equal(t, tc.want, got, tc.query)
	}
}

func TestMetabonding_API_PageBounds(t *testing.T) {
	t.Parallel()

	from, to := page{limit: 2, offset: 1}.bounds(5)
	require.Equal(t, [2]int{1, 3}, [2]int{from, to})

	from, to = page{limit: 10, offset: 3}.bounds(5)
	require.Equal(t, [2]int{3, 5}, [2]int{from, to})

	from, to = page{limit: 10, offset: 9}.bounds(5)
	require.Equal(t, [2]int{5, 5}, [2]int{from, to})
}
