package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: 20, Offset: 0}},
		{"explicit", "?page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"limit capped", "?limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
		{"invalid values", "?page=-2&limit=abc", Params{Page: 1, Limit: 20, Offset: 0}},
		{"search trimmed", "?search=%20acme%20", Params{Page: 1, Limit: 20, Offset: 0, Search: "acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/items"+tt.query, nil)
			assert.Equal(t, tt.want, Parse(c))
		})
	}
}
