package public

import (
	"context"
	"encoding/json"
	"github.com/andesco/odata-valet/deploy/config"
	"github.com/andesco/odata-valet/internal/api_service/adapter/api_client/valet"
	"github.com/andesco/odata-valet/internal/api_service/adapter/ratelimit"
	"github.com/andesco/odata-valet/internal/api_service/service"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

const twoDays = `{
	"observations": [
		{"d": "2025-06-12", "FXUSDCAD": {"v": "1.3571"}, "FXCADUSD": {"v": "0.7369"}},
		{"d": "2025-06-13", "FXUSDCAD": {"v": "1.3598"}}
	]
}`

type upstream struct {
	*httptest.Server
	calls atomic.Int32
	last  atomic.Value
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()

	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.last.Store(r.URL.String())
		handler(w, r)
	}))
	t.Cleanup(u.Close)

	return u
}

func jsonBody(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPServer: config.HTTPServer{Port: "0", Timeout: 5 * time.Second, IdleTimeout: 5 * time.Second},
	}
}

func newTestAPI(t *testing.T, up *upstream, cfg *config.Config, timeout time.Duration, opts ...Option) *httptest.Server {
	t.Helper()

	client := valet.NewHTTPClient(up.URL, up.Client())
	svc := service.NewService(client,
		service.WithClock(func() time.Time { return testNow }),
		service.WithTimeout(timeout),
	)

	api := httptest.NewServer(NewServer(svc, cfg, opts...).Server.Handler)
	t.Cleanup(api.Close)

	return api
}

func get(t *testing.T, url string, header ...string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func decodeError(t *testing.T, body string) ErrorResponse {
	t.Helper()

	var e ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &e), body)
	return e
}

func TestExchangeRates_Feed(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	resp, body := get(t, api.URL+"/ExchangeRates?currencies=USD&years=5")

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/atom+xml;type=feed", resp.Header.Get("Content-Type"))
	assert.Equal(t, "2.0", resp.Header.Get("DataServiceVersion"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	assert.Equal(t, int32(1), up.calls.Load())
	assert.Equal(t,
		"/observations/FXUSDCAD,FXCADUSD/json?end_date=2025-06-15&start_date=2020-06-08",
		up.last.Load())

	feed, err := gofeed.NewParser().ParseString(body)
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, api.URL+"/ExchangeRates(1)", feed.Items[0].GUID)
	assert.Equal(t, "Exchange Rates 2025-06-13", feed.Items[1].Title)
	require.NotNil(t, feed.UpdatedParsed)
	assert.True(t, testNow.Equal(*feed.UpdatedParsed))

	assert.Contains(t, body, `<d:Id m:type="Edm.Int32">1</d:Id>`)
	assert.Contains(t, body, `<d:Date m:type="Edm.DateTime">2025-06-12T00:00:00</d:Date>`)
	assert.Contains(t, body, `<d:USD_CAD m:type="Edm.Decimal">1.3571</d:USD_CAD>`)
	assert.Contains(t, body, `<d:CAD_USD m:type="Edm.Decimal">0.7369</d:CAD_USD>`)
	assert.Contains(t, body, `<d:Id m:type="Edm.Int32">2</d:Id>`)
	assert.Contains(t, body, `<d:CAD_USD m:type="Edm.Decimal">0.0000</d:CAD_USD>`)
}

func TestExchangeRates_TrailingSlashAndPublicBaseURL(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.HTTPServer.PublicBaseURL = "https://rates.example.com/"

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, cfg, time.Second)

	resp, body := get(t, api.URL+"/ExchangeRates/?currencies=USD&start=2025-06-01&end=2025-06-14&padding=false")

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `xml:base="https://rates.example.com/"`)
	assert.Contains(t, body, `<id>https://rates.example.com/ExchangeRates(2)</id>`)
	assert.Equal(t,
		"/observations/FXUSDCAD,FXCADUSD/json?end_date=2025-06-14&start_date=2025-06-01",
		up.last.Load())
}

func TestExchangeRates_Padding(t *testing.T) {
	t.Parallel()

	const twoObservations = `{
	"observations": [
		{"d": "2024-01-01", "FXUSDCAD": {"v": "1.35"}, "FXCADUSD": {"v": "0.74"}},
		{"d": "2024-06-01", "FXUSDCAD": {"v": "1.35"}, "FXCADUSD": {"v": "0.74"}}
	]
}`

	tests := []struct {
		name      string
		query     string
		wantStart string
	}{
		{name: "unpadded", query: "currencies=USD&years=1&padding=false", wantStart: "2024-06-15"},
		{name: "padded by default", query: "currencies=USD&years=1", wantStart: "2024-06-08"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			up := newUpstream(t, jsonBody(http.StatusOK, twoObservations))
			api := newTestAPI(t, up, testConfig(), time.Second)

			resp, body := get(t, api.URL+"/ExchangeRates?"+tt.query)

			require.Equal(t, http.StatusOK, resp.StatusCode, body)
			assert.Equal(t, int32(1), up.calls.Load())
			assert.Equal(t,
				"/observations/FXUSDCAD,FXCADUSD/json?end_date=2025-06-15&start_date="+tt.wantStart,
				up.last.Load())

			feed, err := gofeed.NewParser().ParseString(body)
			require.NoError(t, err)
			require.Len(t, feed.Items, 2)
			assert.Equal(t, api.URL+"/ExchangeRates(1)", feed.Items[0].GUID)
			assert.Equal(t, api.URL+"/ExchangeRates(2)", feed.Items[1].GUID)

			assert.Contains(t, body, `<d:Id m:type="Edm.Int32">1</d:Id>`)
			assert.Contains(t, body, `<d:Date m:type="Edm.DateTime">2024-01-01T00:00:00</d:Date>`)
			assert.Contains(t, body, `<d:Id m:type="Edm.Int32">2</d:Id>`)
			assert.Contains(t, body, `<d:Date m:type="Edm.DateTime">2024-06-01T00:00:00</d:Date>`)
			assert.Equal(t, 2, strings.Count(body, `<d:USD_CAD m:type="Edm.Decimal">1.35</d:USD_CAD>`))
			assert.Equal(t, 2, strings.Count(body, `<d:CAD_USD m:type="Edm.Decimal">0.74</d:CAD_USD>`))
		})
	}
}

func TestExchangeRates_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{name: "missing currencies", query: "years=5", wantCode: "missing_currencies"},
		{name: "missing period", query: "currencies=USD", wantCode: "missing_period"},
		{name: "inverted range", query: "currencies=USD&start=2025-12-31&end=2025-01-01", wantCode: "inverted_range"},
		{name: "bad date", query: "currencies=USD&start=2025-13-01&end=2025-12-31", wantCode: "invalid_date"},
		{name: "bad count", query: "currencies=USD&weeks=0", wantCode: "invalid_period"},
		{name: "bad code", query: "currencies=US%22D&weeks=1", wantCode: "invalid_currency"},
		{name: "code starting with digit", query: "currencies=1AB&years=1", wantCode: "invalid_currency"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
			api := newTestAPI(t, up, testConfig(), time.Second)

			resp, body := get(t, api.URL+"/ExchangeRates?"+tt.query)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, int32(0), up.calls.Load(), "no upstream call on invalid input")

			e := decodeError(t, body)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.NotEmpty(t, e.Error)
			assert.True(t, e.Example != "" || len(e.Examples) > 0)
		})
	}
}

func TestExchangeRates_MissingCurrenciesBody(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	_, body := get(t, api.URL+"/ExchangeRates?years=5")

	e := decodeError(t, body)
	assert.Equal(t, "Missing required parameter: currencies", e.Error)
	assert.Equal(t, "currencies", e.Parameter)
	assert.Equal(t, "/ExchangeRates?currencies=USD&years=5", e.Example)
}

func TestExchangeRates_Empty(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, `{"observations": []}`))
	api := newTestAPI(t, up, testConfig(), time.Second)

	resp, body := get(t, api.URL+"/ExchangeRates?currencies=USD&weeks=1")

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/atom+xml;type=feed", resp.Header.Get("Content-Type"))

	feed, err := gofeed.NewParser().ParseString(body)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
	assert.Equal(t, api.URL+"/ExchangeRates", feed.FeedLink)
}

func TestExchangeRates_UpstreamError(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusNotFound, `{"message": "Series FXXYZCAD not found."}`))
	api := newTestAPI(t, up, testConfig(), time.Second)

	resp, body := get(t, api.URL+"/ExchangeRates?currencies=XYZ&weeks=1")

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "upstream_error", e.Code)
	assert.Contains(t, e.Error, "Series FXXYZCAD not found.")
}

func TestExchangeRates_UpstreamTimeout(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	api := newTestAPI(t, up, testConfig(), 50*time.Millisecond)

	resp, body := get(t, api.URL+"/ExchangeRates?currencies=USD&weeks=1")

	require.Equal(t, http.StatusGatewayTimeout, resp.StatusCode, body)
	assert.Equal(t, "upstream_timeout", decodeError(t, body).Code)
}

func TestRoot_ContentNegotiation(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	tests := []struct {
		name        string
		accept      string
		wantType    string
		wantVersion string
		wantBody    string
	}{
		{
			name:        "atom service document",
			accept:      "application/atomsvc+xml",
			wantType:    "application/xml",
			wantVersion: "3.0",
			wantBody:    `<collection href="ExchangeRates">`,
		},
		{
			name:        "atom feed client",
			accept:      "application/atom+xml,application/xml",
			wantType:    "application/xml",
			wantVersion: "3.0",
			wantBody:    `xml:base="` + api.URL + `/"`,
		},
		{
			name:     "browser",
			accept:   "text/html,application/xhtml+xml,application/atom+xml",
			wantType: "text/html; charset=utf-8",
			wantBody: "<!DOCTYPE html>",
		},
		{
			name:     "no accept header",
			wantType: "text/html; charset=utf-8",
			wantBody: "<!DOCTYPE html>",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, body := get(t, api.URL+"/", "Accept", tt.accept)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantVersion, resp.Header.Get("DataServiceVersion"))
			assert.Contains(t, body, tt.wantBody)
		})
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	resp, body := get(t, api.URL+"/$metadata?currencies=USD,EUR")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	for _, col := range []string{"USD_CAD", "CAD_USD", "EUR_CAD", "CAD_EUR"} {
		assert.Contains(t, body, `<Property Name="`+col+`" Type="Edm.Decimal"></Property>`)
	}

	resp, body = get(t, api.URL+"/$metadata")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `Name="USD_CAD"`)
	assert.NotContains(t, body, `Name="EUR_CAD"`)

	for _, codes := range []string{"%3Cscript%3E", "1AB", "USD,2EU"} {
		resp, body = get(t, api.URL+"/$metadata?currencies="+codes)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, codes)
		assert.Equal(t, "invalid_currency", decodeError(t, body).Code, codes)
	}

	assert.Equal(t, int32(0), up.calls.Load())
}

func TestCORS(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	t.Run("plain options", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, api.URL+"/ExchangeRates", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
	})

	t.Run("browser preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, api.URL+"/ExchangeRates", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://sheets.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodGet)
	})

	t.Run("not found", func(t *testing.T) {
		resp, _ := get(t, api.URL+"/nope", "Origin", "https://sheets.example.com")
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	resp, body := get(t, api.URL+"/Rates")

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "Not Found", e.Error)
	assert.Equal(t, "not_found", e.Code)
	assert.NotEmpty(t, e.Examples)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))

	api := newTestAPI(t, up, testConfig(), time.Second)
	resp, body := get(t, api.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	api = newTestAPI(t, up, testConfig(), time.Second, WithPinger(stubPinger{}))
	resp, body = get(t, api.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","redis":"ok"}`, body)

	api = newTestAPI(t, up, testConfig(), time.Second, WithPinger(stubPinger{err: errors.New("connection refused")}))
	resp, body = get(t, api.URL+"/healthz")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"degraded","redis":"unavailable"}`, body)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	l, err := ratelimit.New("1-M", nil)
	require.NoError(t, err)

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second, WithLimiter(l))

	resp, _ := get(t, api.URL+"/ExchangeRates?currencies=USD&weeks=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, api.URL+"/ExchangeRates?currencies=USD&weeks=1")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decodeError(t, body).Code)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, _ = get(t, api.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health checks are not limited")
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	up := newUpstream(t, jsonBody(http.StatusOK, twoDays))
	api := newTestAPI(t, up, testConfig(), time.Second)

	get(t, api.URL+"/ExchangeRates?currencies=USD&weeks=1")

	resp, body := get(t, api.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body, "odata_valet_upstream_requests_total"))
	assert.True(t, strings.Contains(body, "odata_valet_feed_entries"))
}
