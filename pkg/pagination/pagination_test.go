package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name           string
		queryString    string
		expectedLimit  int
		expectedOffset int
	}{
		{"no params uses defaults", "", DefaultLimit, DefaultOffset},
		{"valid limit and offset", "limit=10&offset=20", 10, 20},
		{"zero limit uses default", "limit=0", DefaultLimit, DefaultOffset},
		{"negative limit uses default", "limit=-10", DefaultLimit, DefaultOffset},
		{"limit exceeds max", "limit=200", MaxLimit, DefaultOffset},
		{"limit exactly at max", "limit=100", 100, DefaultOffset},
		{"negative offset uses default", "offset=-10", DefaultLimit, DefaultOffset},
		{"non-numeric values use defaults", "limit=abc&offset=xyz", DefaultLimit, DefaultOffset},
		{"ignores unrelated params", "status=pending&limit=15&offset=30", 15, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/?"+tt.queryString, nil)

			params := ParseParams(c)

			if params.Limit != tt.expectedLimit {
				t.Errorf("Limit = %d, want %d", params.Limit, tt.expectedLimit)
			}
			if params.Offset != tt.expectedOffset {
				t.Errorf("Offset = %d, want %d", params.Offset, tt.expectedOffset)
			}
		})
	}
}

func TestBuildMeta(t *testing.T) {
	tests := []struct {
		name               string
		limit              int
		offset             int
		total              int64
		expectedTotalPages int
	}{
		{"exact pages", 20, 0, 100, 5},
		{"partial last page", 10, 0, 25, 3},
		{"no items", 10, 0, 0, 0},
		{"zero limit", 0, 0, 100, 0},
		{"limit greater than total", 50, 0, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := BuildMeta(tt.limit, tt.offset, tt.total)

			if meta.Limit != tt.limit || meta.Offset != tt.offset || meta.Total != tt.total {
				t.Errorf("meta = %+v, want limit=%d offset=%d total=%d", meta, tt.limit, tt.offset, tt.total)
			}
			if meta.TotalPages != tt.expectedTotalPages {
				t.Errorf("TotalPages = %d, want %d", meta.TotalPages, tt.expectedTotalPages)
			}
		})
	}
}

func TestHasMore(t *testing.T) {
	if !HasMore(0, 10, 100) {
		t.Error("first page of 100 should have more")
	}
	if HasMore(90, 10, 100) {
		t.Error("last page should not have more")
	}
	if HasMore(0, 10, 0) {
		t.Error("empty set should not have more")
	}
}

func TestGetCurrentPage(t *testing.T) {
	if page := GetCurrentPage(0, 10); page != 1 {
		t.Errorf("page = %d, want 1", page)
	}
	if page := GetCurrentPage(20, 10); page != 3 {
		t.Errorf("page = %d, want 3", page)
	}
	if page := GetCurrentPage(10, 0); page != 1 {
		t.Errorf("page = %d, want 1", page)
	}
}
