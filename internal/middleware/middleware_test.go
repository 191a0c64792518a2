package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/config"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, echo.Map{"uid": p.UserID, "role": p.Role})
}

func serve(t *testing.T, h echo.HandlerFunc, header string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/", h, mws...)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, key string, uid uint64, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(key, uid, role, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", token(t, secret, 7, model.RoleCustomer, time.Minute), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong key", token(t, "other", 7, model.RoleCustomer, time.Minute), http.StatusUnauthorized},
		{"expired", token(t, secret, 7, model.RoleCustomer, -time.Minute), http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, whoami, tc.header, JWTAuth(secret))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestSubjectID(t *testing.T) {
	tests := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{"42", 42, true},
		{float64(42), 42, true},
		{"0", 0, false},
		{"x", 0, false},
		{float64(1.5), 0, false},
		{nil, 0, false},
	}
	for _, tc := range tests {
		got, ok := subjectID(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("subjectID(%v) = %d, %v", tc.in, got, ok)
		}
	}
}

func TestRequireRole(t *testing.T) {
	admin := token(t, secret, 1, model.RoleAdmin, time.Minute)
	customer := token(t, secret, 2, model.RoleCustomer, time.Minute)
	mws := []echo.MiddlewareFunc{JWTAuth(secret), RequireRole(model.RoleAdmin)}

	if rec := serve(t, whoami, admin, mws...); rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
	if rec := serve(t, whoami, customer, mws...); rec.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, RequestIDFrom(c)) }, RequestID())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(HeaderRequestID)
	if len(id) != 36 || rec.Body.String() != id {
		t.Fatalf("generated id = %q, body = %q", id, rec.Body)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Header().Get(HeaderRequestID) != "abc" {
		t.Fatalf("id not propagated: %q", rec.Header().Get(HeaderRequestID))
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/orders")
	c.Set(ctxUserID, "7")

	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:ip:10.0.0.1"},
		{"user", "rl:user:7"},
		{"user_route", "rl:user:7:route:POST /v1/orders"},
		{"ip_user_route", "rl:ip:10.0.0.1:user:7:route:POST /v1/orders"},
	}
	for _, tc := range tests {
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tc.strategy}, c)
		if got != tc.want {
			t.Errorf("%s: key = %q, want %q", tc.strategy, got, tc.want)
		}
	}
}

func TestDisabledLimiterAndCachePassThrough(t *testing.T) {
	rec := serve(t, func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, "",
		RateLimit(config.RateLimitConfig{Enabled: true}, nil, nil),
		ResponseCache(config.CacheConfig{Enabled: true}, nil, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCacheKeyIgnoresQueryForRouteStrategy(t *testing.T) {
	e := echo.New()
	mk := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/products")
		return c
	}
	route := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
	if cacheKey(route, mk("/v1/products?a=1")) != cacheKey(route, mk("/v1/products?a=2")) {
		t.Fatal("route strategy must ignore the query")
	}
	rq := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	if cacheKey(rq, mk("/v1/products?a=1")) == cacheKey(rq, mk("/v1/products?a=2")) {
		t.Fatal("route_query strategy must include the query")
	}
}
