package storefront_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BuildStore/internal/auth"
	"BuildStore/internal/cart"
	"BuildStore/internal/catalog"
	"BuildStore/internal/checkout"
	"BuildStore/internal/storefront"
)

const (
	jwtSecret    = "test-secret-test-secret-test-secret!"
	metricsToken = "scrape-me"
)

func newStorefrontTS(t *testing.T) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	log := zap.NewNop()

	creds, err := auth.NewCredentials("admin", "admin123")
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}

	cartSrv := &cart.Server{Jar: cart.NewCookieJar(false), Log: log, Metrics: cart.NewMetrics(reg)}

	h := storefront.NewHandler(
		storefront.Deps{
			Catalog: &catalog.Server{
				Store:  catalog.NewMemStore(catalog.DefaultProducts()...),
				Log:    log,
				Events: catalog.NopPublisher{},
			},
			Cart:     cartSrv,
			Checkout: &checkout.Server{Cart: cartSrv, ShopName: "Build Computers", Phone: "5550100"},
			Admin: &auth.Server{
				Log:      log,
				Creds:    creds,
				JWT:      auth.NewTokenMaker(jwtSecret),
				TokenTTL: time.Hour,
			},
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        "storefront",
			Registry:       reg,
			MetricsEnabled: true,
			MetricsToken:   metricsToken,
		},
	)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

type cartBody struct {
	Cart []cart.Item `json:"cart"`
}

func TestStorefront_ShopperFlow(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	var products []catalog.Product
	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products?q=gaming", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d", resp.StatusCode)
		}
		if err := json.Unmarshal(raw, &products); err != nil {
			t.Fatalf("decode products: %v body=%s", err, string(raw))
		}
		if len(products) != 1 || products[0].ID != "p1" {
			t.Fatalf("products=%+v", products)
		}
	}

	p := products[0]
	for i := 0; i < 2; i++ {
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/cart/add", map[string]any{
			"id": p.ID, "name": p.Name, "price": p.Price, "category": p.Category, "image": p.Image,
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/cart", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("read status=%d", resp.StatusCode)
		}
		var cb cartBody
		if err := json.Unmarshal(raw, &cb); err != nil {
			t.Fatalf("decode cart: %v", err)
		}
		if len(cb.Cart) != 1 || cb.Cart[0].Quantity != 2 {
			t.Fatalf("cart=%+v", cb.Cart)
		}
	}

	{
		_, raw := doJSON(t, c, http.MethodGet, ts.URL+"/cart/summary", nil, nil)
		var s checkout.Summary
		if err := json.Unmarshal(raw, &s); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		if s.Items != 2 || s.Total != "2400.00" {
			t.Fatalf("summary=%+v", s)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/cart/checkout", nil, nil)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "https://wa.me/5550100?text=") {
			t.Fatalf("checkout status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/cart/clear", nil, nil)
		if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(raw)) != `{"ok":true}` {
			t.Fatalf("clear status=%d body=%s", resp.StatusCode, string(raw))
		}

		_, raw = doJSON(t, c, http.MethodGet, ts.URL+"/cart", nil, nil)
		if strings.TrimSpace(string(raw)) != `{"cart":[]}` {
			t.Fatalf("after clear body=%s", string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/cart/add", nil, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("GET /cart/add status=%d", resp.StatusCode)
		}
		if !strings.Contains(string(raw), `"Method not allowed"`) {
			t.Fatalf("405 body=%s", string(raw))
		}
	}
}

func TestStorefront_AdminFlow(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	{
		resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/admin/products", map[string]any{
			"name": "Gaming Chair", "price": "$150", "image": "/images/chair.png",
		}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("unauthenticated create status=%d", resp.StatusCode)
		}
	}

	var accessToken string
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/login", map[string]any{
			"username": "admin",
			"password": "admin123",
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode login: %v body=%s", err, string(raw))
		}
		if lr.AccessToken == "" {
			t.Fatalf("empty access_token")
		}
		accessToken = lr.AccessToken
	}
	bearer := map[string]string{"Authorization": "Bearer " + accessToken}

	var created catalog.Product
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/products", map[string]any{
			"name": "Gaming Chair", "price": "$150", "category": "Supplies", "image": "/images/chair.png",
		}, bearer)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", resp.StatusCode, string(raw))
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode product: %v", err)
		}
		if !strings.HasPrefix(created.ID, "p_") || created.Category != "supplies" {
			t.Fatalf("created=%+v", created)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products?q=chair", nil, nil)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), created.ID) {
			t.Fatalf("search status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/admin/whoami", nil, bearer)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), `"role":"admin"`) {
			t.Fatalf("whoami status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, _ := doJSON(t, c, http.MethodDelete, ts.URL+"/admin/products/"+created.ID, nil, bearer)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete status=%d", resp.StatusCode)
		}

		resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/products/"+created.ID, nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("get deleted status=%d", resp.StatusCode)
		}
	}
}

func TestStorefront_OpsEndpoints(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, c, http.MethodGet, ts.URL+path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", path, resp.StatusCode)
		}
	}

	doJSON(t, c, http.MethodGet, ts.URL+"/cart", nil, nil)

	resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{
		"Authorization": "Bearer " + metricsToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
	for _, want := range []string{"http_requests_total", `cart_operations_total{op="read",result="ok"} 1`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", resp.StatusCode)
	}
}
