package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CostCast/internal/domain/models"
	"CostCast/internal/service/ratelimit"
	xhttp "CostCast/pkg/http"

	"github.com/labstack/echo/v4"
)

type fakeEstimator struct {
	got    models.EstimateRequest
	points []models.ProductValuePoint
	err    error
}

func (f *fakeEstimator) Estimate(_ context.Context, req models.EstimateRequest) ([]models.ProductValuePoint, error) {
	f.got = req
	return f.points, f.err
}

func newTestServer(est Estimator, rate RateLimit) *xhttp.Server {
	return serverFor(NewEstimateHandler(nil, est, ratelimit.New(), rate))
}

func serverFor(h *EstimateHandler) *xhttp.Server {
	srv, err := xhttp.NewServer(xhttp.ServerConfig{}, nil, h)
	if err != nil {
		panic(err)
	}
	return srv
}

func do(srv *xhttp.Server, target string) *httptest.ResponseRecorder {
	return doWith(srv, httptest.NewRequest(http.MethodGet, target, nil))
}

func doWith(srv *xhttp.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) xhttp.Envelope {
	t.Helper()
	var body xhttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestStatusAndHelp(t *testing.T) {
	srv := newTestServer(&fakeEstimator{}, RateLimit{})

	rec := do(srv, "/status")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"Status":"Service Running"}` {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}

	rec = do(srv, "/help")
	var help map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &help); err != nil {
		t.Fatalf("help body: %v", err)
	}
	if help["months"] == "" || help["p_nonalloy_cast"] == "" {
		t.Fatalf("help = %v", help)
	}
}

func TestCalculateReturnsBareArray(t *testing.T) {
	est := &fakeEstimator{points: []models.ProductValuePoint{
		{DS: "2023-03", TotalProductValue: 1016.5},
		{DS: "2023-04", TotalProductValue: 1118},
	}}
	srv := newTestServer(est, RateLimit{})

	rec := do(srv, "/calculate?st37=1000&p_st37=500&labour=8&months=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", rec.Code, rec.Body.String())
	}
	var out []models.ProductValuePoint
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("body is not an array: %v", err)
	}
	if len(out) != 2 || out[0].DS != "2023-03" || out[0].TotalProductValue != 1016.5 {
		t.Fatalf("out = %+v", out)
	}

	st := est.got.Materials[models.MaterialST37]
	if st.Quantity == nil || *st.Quantity != 1000 || st.SpotPrice == nil || *st.SpotPrice != 500 {
		t.Fatalf("st37 binding = %+v", st)
	}
	if lab := est.got.Materials[models.MaterialLabour]; lab.Quantity == nil || *lab.Quantity != 8 {
		t.Fatalf("labour binding = %+v", lab)
	}
	if est.got.Horizon == nil || *est.got.Horizon != 2 {
		t.Fatalf("months binding = %v", est.got.Horizon)
	}
	if est.got.RequestID == "" || est.got.RequestID != rec.Header().Get("X-Request-ID") {
		t.Fatalf("request id not propagated")
	}

	// trailing slash form
	if rec := do(srv, "/calculate/?copper=1"); rec.Code != http.StatusOK {
		t.Fatalf("trailing slash: %d", rec.Code)
	}
	if est.got.Horizon != nil {
		t.Fatalf("months must stay unset when omitted")
	}
}

func TestCalculateRejectsNegativeQuantity(t *testing.T) {
	srv := newTestServer(&fakeEstimator{}, RateLimit{})
	rec := do(srv, "/calculate?st37=-5")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if len(body.Data) != 1 || body.Data[0].Code != "ERR_GT" || body.Data[0].Field != "st37" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCalculateRejectsNonFiniteNumbers(t *testing.T) {
	est := &fakeEstimator{points: []models.ProductValuePoint{{DS: "2023-03", TotalProductValue: 1}}}
	srv := newTestServer(est, RateLimit{})
	cases := map[string]string{
		"/calculate?st37=Inf&months=2":      "st37",
		"/calculate?st37=1&p_st37=Inf":      "p_st37",
		"/calculate?copper=%2BInf":          "copper",
		"/calculate?labour=NaN":             "labour",
		"/calculate?st37=1&p_st37=infinity": "p_st37",
	}
	for target, field := range cases {
		rec := do(srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: code = %d body=%s", target, rec.Code, rec.Body.String())
		}
		body := decodeEnvelope(t, rec)
		if len(body.Data) != 1 || body.Data[0].Field != field {
			t.Fatalf("%s: body = %s", target, rec.Body.String())
		}
	}
}

func TestCalculateMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{models.NewValidationError(models.MaterialST37, "weight for st37 is missing while its spot price is provided"), http.StatusBadRequest, "ERR_VALIDATION"},
		{models.NewComputationError("", "forecast horizon must be at least 1 month, got 0"), http.StatusBadRequest, "ERR_COMPUTATION"},
		{models.NewOracleError(models.MaterialCopper, "model artifact higher_copper is not loaded", nil), http.StatusBadGateway, "ERR_ORACLE"},
		{models.NewUnavailableError("estimate did not finish in time", context.DeadlineExceeded), http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
	}
	for _, tc := range cases {
		srv := newTestServer(&fakeEstimator{err: tc.err}, RateLimit{})
		rec := do(srv, "/calculate?st37=1")
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d", tc.code, rec.Code)
		}
		body := decodeEnvelope(t, rec)
		if len(body.Data) != 1 || body.Data[0].Code != tc.code || body.Status != tc.status {
			t.Fatalf("%s: body = %s", tc.code, rec.Body.String())
		}
	}
}

func TestValidationMessageReachesClient(t *testing.T) {
	err := models.NewValidationError(models.MaterialST37, "weight for st37 is missing while its spot price is provided")
	srv := newTestServer(&fakeEstimator{err: err}, RateLimit{})
	rec := do(srv, "/calculate?p_st37=500")
	if !strings.Contains(rec.Body.String(), "weight for st37 is missing while its spot price is provided") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestPlotReturnsSVG(t *testing.T) {
	est := &fakeEstimator{points: []models.ProductValuePoint{
		{DS: "2023-03", TotalProductValue: 10},
		{DS: "2023-04", TotalProductValue: 12},
	}}
	srv := newTestServer(est, RateLimit{})
	rec := do(srv, "/plot?st37=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Fatalf("body is not svg")
	}
}

func TestRateLimit(t *testing.T) {
	est := &fakeEstimator{points: []models.ProductValuePoint{{DS: "2023-03", TotalProductValue: 1}}}
	srv := newTestServer(est, RateLimit{Capacity: 1, RefillPerSec: 0.001})

	if rec := do(srv, "/calculate?st37=1"); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := do(srv, "/calculate?st37=1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
	if rec := do(srv, "/status"); rec.Code != http.StatusOK {
		t.Fatalf("status must not be limited: %d", rec.Code)
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	est := &fakeEstimator{points: []models.ProductValuePoint{{DS: "2023-03", TotalProductValue: 1}}}
	srv := newTestServer(est, RateLimit{Capacity: 1, RefillPerSec: 0.001})

	limited := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/calculate?st37=1", nil)
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("10.0.0.%d", i))
		if rec := doWith(srv, req); rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 4 {
		t.Fatalf("limited = %d of 5, want 4", limited)
	}
}

func TestReadyReportsChecks(t *testing.T) {
	h := NewEstimateHandler(nil, &fakeEstimator{}, nil, RateLimit{})
	h.AddCheck("clickhouse", func(context.Context) error { return nil })
	srv := serverFor(h)
	if rec := do(srv, "/ready"); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d %s", rec.Code, rec.Body.String())
	}

	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rec := do(srv, "/ready")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("not ready: %d %s", rec.Code, rec.Body.String())
	}
}
