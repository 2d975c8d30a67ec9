package checkout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"BuildStore/internal/cart"
	"BuildStore/internal/checkout"
)

func newRouter() http.Handler {
	cs := &cart.Server{Jar: cart.NewCookieJar(false), Log: zap.NewNop()}
	r := cs.Routes()
	(&checkout.Server{Cart: cs, ShopName: "Build Computers", Phone: "5550100"}).Register(r)
	return r
}

func cartCookie(t *testing.T, c cart.Cart) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := cart.NewCookieJar(false).Save(rec, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies=%d", len(cookies))
	}
	return cookies[0]
}

func get(t *testing.T, h http.Handler, path string, ck *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSummaryEndpoint(t *testing.T) {
	h := newRouter()

	rec := get(t, h, "/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var s checkout.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Items != 0 || s.Total != "0.00" {
		t.Fatalf("empty summary=%+v", s)
	}

	ck := cartCookie(t, cart.Cart{{ID: "p4", Name: "Mechanical Keyboard", Price: "$49.90", Quantity: 2}})
	rec = get(t, h, "/summary", ck)
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Items != 2 || s.Lines != 1 || s.Total != "99.80" {
		t.Fatalf("summary=%+v", s)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	h := newRouter()

	rec := get(t, h, "/checkout", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cart is empty") {
		t.Fatalf("body=%s", rec.Body.String())
	}

	ck := cartCookie(t, cart.Cart{{ID: "p3", Name: "Ultrabook 14", Price: "$899.00", Quantity: 1}})
	rec = get(t, h, "/checkout", ck)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var out struct {
		Message string `json:"message"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(out.URL, "https://wa.me/5550100?text=Order%20from%20Build%20Computers") {
		t.Fatalf("url=%s", out.URL)
	}
	if !strings.HasSuffix(out.Message, "Total: $899.00") {
		t.Fatalf("message=%q", out.Message)
	}
}
