package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/provider"
)

type constProvider struct{ value interface{} }

func (c constProvider) BoolVariation(string, interface{}) interface{}   { return c.value }
func (c constProvider) StringVariation(string, interface{}) interface{} { return c.value }
func (c constProvider) NumberVariation(string, interface{}) interface{} { return c.value }
func (c constProvider) JSONVariation(string, interface{}) interface{}   { return c.value }

func newTestServer(t *testing.T, p provider.IProvider) (*httptest.Server, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	server, err := NewServer(provider.NewValidatingClient(p), sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return ts, reader
}

func get(t *testing.T, ts *httptest.Server, path string, def string) (*http.Response, map[string]interface{}) {
	t.Helper()
	u := ts.URL + path
	if def != "" {
		u += "?default=" + url.QueryEscape(def)
	}
	res, err := http.Get(u)
	require.NoError(t, err)
	defer res.Body.Close()

	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res, body
}

func evaluationCount(t *testing.T, reader *sdkmetric.ManualReader, outcome string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("outcome"); ok && v.AsString() == outcome {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestResolve_NoopBool_ReturnsDefault(t *testing.T) {
	ts, reader := newTestServer(t, provider.NewNoopProvider())

	res, body := get(t, ts, "/flags/bool/my_flag", "true")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "my_flag", body["flagKey"])
	assert.Equal(t, "bool", body["kind"])
	assert.Equal(t, true, body["value"])
	assert.Equal(t, int64(1), evaluationCount(t, reader, "success"))
}

func TestResolve_JSONDefault_RoundTrips(t *testing.T) {
	ts, _ := newTestServer(t, provider.NewNoopProvider())

	_, body := get(t, ts, "/flags/json/cfg", `{"a": 1}`)

	assert.Equal(t, map[string]interface{}{"a": float64(1)}, body["value"])
}

func TestResolve_WrongResultType_BadRequest(t *testing.T) {
	ts, reader := newTestServer(t, constProvider{value: "0.5"})

	res, body := get(t, ts, "/flags/number/rate", "0")

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, model.TypeMismatchErrorCode, body["errorCode"])
	assert.Equal(t, int64(1), evaluationCount(t, reader, model.TypeMismatchErrorCode))
}

func TestResolve_WrongDefaultType_BadRequest(t *testing.T) {
	ts, _ := newTestServer(t, provider.NewNoopProvider())

	res, body := get(t, ts, "/flags/string/name", "12")

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, model.TypeMismatchErrorCode, body["errorCode"])
}

func TestResolve_UnknownKind_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, provider.NewNoopProvider())

	res, body := get(t, ts, "/flags/date/f", "")

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, model.FlagKindNotFoundErrorCode, body["errorCode"])
}

func TestResolve_InvalidDefault_ParseError(t *testing.T) {
	ts, _ := newTestServer(t, provider.NewNoopProvider())

	res, body := get(t, ts, "/flags/json/f", "{not json")

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, model.ParseErrorCode, body["errorCode"])
}

type snapshotProvider struct {
	constProvider
	doc string
}

func (s snapshotProvider) Snapshot() string { return s.doc }

func TestSnapshot_LocalProvider_ReturnsDocument(t *testing.T) {
	ts, _ := newTestServer(t, snapshotProvider{doc: `{"flags":{"a":{"state":"ENABLED"}},"metadata":{}}`})

	res, body := get(t, ts, "/flags", "")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.Contains(t, body["flags"], "a")
}

func TestSnapshot_RemoteProvider_NotImplemented(t *testing.T) {
	ts, _ := newTestServer(t, provider.NewNoopProvider())

	res, body := get(t, ts, "/flags", "")

	assert.Equal(t, http.StatusNotImplemented, res.StatusCode)
	assert.Equal(t, model.GeneralErrorCode, body["errorCode"])
}

func TestHealthz_OK(t *testing.T) {
	ts, _ := newTestServer(t, provider.NewNoopProvider())

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServe_NoConfiguration_Error(t *testing.T) {
	svc := &HTTPService{}

	err := svc.Serve(context.Background(), provider.NewValidatingClient(provider.NewNoopProvider()))
	assert.Error(t, err)
}

func TestServe_ContextCancelled_Returns(t *testing.T) {
	svc := &HTTPService{HTTPServiceConfiguration: &HTTPServiceConfiguration{Port: 0}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Serve(ctx, provider.NewValidatingClient(provider.NewNoopProvider()))
	assert.NoError(t, err)
}
