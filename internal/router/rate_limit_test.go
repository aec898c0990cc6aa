package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/donatehub-next/internal/config"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":" Operator "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("username")(c)
	if key != "operator|1.2.3.4" {
		t.Fatalf("key want operator|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Operator") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestKeyByIPAndParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got string
	r := gin.New()
	r.POST("/donations/:id/otp/verify", func(c *gin.Context) {
		got = KeyByIPAndParam("id")(c)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodPost, "/donations/42/otp/verify", nil)
	req.RemoteAddr = "5.6.7.8:1000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got != "42|5.6.7.8" {
		t.Fatalf("key want 42|5.6.7.8 got %s", got)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	rule := RuleFromConfig("otp_verify", config.RateLimitConfig{WindowSeconds: 60, MaxAttempts: 1, BlockSeconds: 60})
	r.Use(RateLimitMiddleware(nil, rule, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass through, got %d %s", i, w.Code, w.Body.String())
		}
	}
}

func TestAbortRateLimitedMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	abortRateLimited(c, RateLimitRule{WindowSeconds: 30}, 0)

	if !c.IsAborted() {
		t.Fatalf("context should be aborted")
	}
	if !strings.Contains(w.Body.String(), `"status_code":429`) || !strings.Contains(w.Body.String(), "30 seconds") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
