package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{name: "standard", header: "Bearer abc.def.ghi", token: "abc.def.ghi", ok: true},
		{name: "case insensitive scheme", header: "bearer tok", token: "tok", ok: true},
		{name: "missing header", header: "", ok: false},
		{name: "wrong scheme", header: "Token abc", ok: false},
		{name: "empty token", header: "Bearer   ", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}

			token, ok := bearerToken(c)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.token, token)
			}
		})
	}
}
