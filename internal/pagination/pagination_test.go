package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name           string
		totalCount     int64
		page           int
		pageSize       int
		expectedTotal  int64
		expectedPage   int
		expectedSize   int
		expectedPages  int
		expectedHasPrev bool
		expectedHasNext bool
	}{
		{
			name:           "Basic pagination",
			totalCount:     100,
			page:           1,
			pageSize:       10,
			expectedTotal:  100,
			expectedPage:   1,
			expectedSize:   10,
			expectedPages:  10,
			expectedHasPrev: false,
			expectedHasNext: true,
		},
		{
			name:           "Middle page",
			totalCount:     100,
			page:           5,
			pageSize:       10,
			expectedTotal:  100,
			expectedPage:   5,
			expectedSize:   10,
			expectedPages:  10,
			expectedHasPrev: true,
			expectedHasNext: true,
		},
		{
			name:           "Last page",
			totalCount:     100,
			page:           10,
			pageSize:       10,
			expectedTotal:  100,
			expectedPage:   10,
			expectedSize:   10,
			expectedPages:  10,
			expectedHasPrev: true,
			expectedHasNext: false,
		},
		{
			name:           "Partial last page",
			totalCount:     95,
			page:           10,
			pageSize:       10,
			expectedTotal:  95,
			expectedPage:   10,
			expectedSize:   10,
			expectedPages:  10,
			expectedHasPrev: true,
			expectedHasNext: false,
		},
		{
			name:           "Empty result set",
			totalCount:     0,
			page:           1,
			pageSize:       10,
			expectedTotal:  0,
			expectedPage:   1,
			expectedSize:   10,
			expectedPages:  0,
			expectedHasPrev: false,
			expectedHasNext: false,
		},
		{
			name:           "Single result",
			totalCount:     1,
			page:           1,
			pageSize:       10,
			expectedTotal:  1,
			expectedPage:   1,
			expectedSize:   10,
			expectedPages:  1,
			expectedHasPrev: false,
			expectedHasNext: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(tt.totalCount, tt.page, tt.pageSize)

			assert.Equal(t, tt.expectedTotal, result.TotalCount)
			assert.Equal(t, tt.expectedPage, result.CurrentPage)
			assert.Equal(t, tt.expectedSize, result.PageSize)
			assert.Equal(t, tt.expectedPages, result.TotalPages)
			assert.Equal(t, tt.expectedHasPrev, result.HasPrevious)
			assert.Equal(t, tt.expectedHasNext, result.HasNext)
		})
	}
}

func TestCalculateOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		expected int
	}{
		{"First page", 1, 10, 0},
		{"Second page", 2, 10, 10},
		{"Large page", 100, 25, 2475},
		{"Invalid page defaults to first", 0, 10, 0},
		{"Invalid page size defaults to ten", 3, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateOffset(tt.page, tt.pageSize))
		})
	}
}
