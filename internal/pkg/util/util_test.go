package util

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type sample struct {
	Name string `validate:"min=3,max=5"`
}

func TestValidateDTO(t *testing.T) {
	if err := ValidateDTO(&sample{Name: "abcd"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := ValidateDTO(&sample{Name: "a"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		t.Fatalf("expected ValidationErrors in chain, got %T", err)
	}
}

func TestGetPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query              string
		page, size, offset int
	}{
		{"", 1, DefaultPageSize, 0},
		{"?page=3&page_size=10", 3, 10, 20},
		{"?page=-1&page_size=1000", 1, MaxPageSize, 0},
		{"?page=x&page_size=y", 1, DefaultPageSize, 0},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/rooms"+tc.query, nil)

		page, size, limit, offset := GetPagination(c)
		if page != tc.page || size != tc.size || limit != tc.size || offset != tc.offset {
			t.Fatalf("%q: got page=%d size=%d limit=%d offset=%d", tc.query, page, size, limit, offset)
		}
	}
}
