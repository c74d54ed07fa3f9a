package widget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/store"
	"go-chi-calculator/internal/testutil"
	"go-chi-calculator/internal/theme"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, NewRegistry(store.NewMemory(), theme.Light, zap.NewNop()))
	return &testServer{t: t, handler: r}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	return testutil.Do(s.handler, method, path, body)
}

func (s *testServer) create() string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/calculator/sessions", "")
	testutil.CheckResponseCode(s.t, http.StatusCreated, w.Code)

	var view View
	testutil.DecodeJSONBody(s.t, w.Body, &view)
	if view.Display != "0" || view.Equation != "" {
		s.t.Fatalf("unexpected initial view %+v", view)
	}
	return view.SessionID
}

func (s *testServer) view(w *httptest.ResponseRecorder) View {
	s.t.Helper()
	testutil.CheckResponseCode(s.t, http.StatusOK, w.Code)
	var view View
	testutil.DecodeJSONBody(s.t, w.Body, &view)
	return view
}

func TestHandlersSingleKeys(t *testing.T) {
	srv := newTestServer(t)
	base := "/calculator/sessions/" + srv.create()

	srv.view(srv.do(http.MethodPost, base+"/digit", `{"digit":"6"}`))

	view := srv.view(srv.do(http.MethodPost, base+"/operator", `{"operator":"×"}`))
	if view.Equation != "6 ×" {
		t.Fatalf("expected equation %q, got %q", "6 ×", view.Equation)
	}

	for _, d := range []string{"0", ".", "4"} {
		srv.view(srv.do(http.MethodPost, base+"/digit", `{"digit":"`+d+`"}`))
	}

	view = srv.view(srv.do(http.MethodPost, base+"/equals", ""))
	if view.Display != "2.4" || view.Equation != "" {
		t.Fatalf("unexpected view after equals %+v", view)
	}

	view = srv.view(srv.do(http.MethodPost, base+"/toggle-sign", ""))
	if view.Display != "-2.4" {
		t.Fatalf("expected -2.4, got %q", view.Display)
	}

	view = srv.view(srv.do(http.MethodPost, base+"/clear", ""))
	if view.Display != "0" {
		t.Fatalf("expected 0 after clear, got %q", view.Display)
	}

	view = srv.view(srv.do(http.MethodGet, base, ""))
	if view.Display != "0" {
		t.Fatalf("expected GET to return current view, got %+v", view)
	}
}

func TestHandlersKeysScenarios(t *testing.T) {
	tests := []struct {
		keys    string
		display string
	}{
		{keys: "2+3=", display: "5"},
		{keys: "1.5×2.5=", display: "3.75"},
		{keys: "1337", display: "L33T!"},
		{keys: "6×0.4=", display: "2.4"},
		{keys: "0.0003", display: "0.0003"},
		{keys: "1+2+3=", display: "6"},
	}

	srv := newTestServer(t)
	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			base := "/calculator/sessions/" + srv.create()
			w := srv.do(http.MethodPost, base+"/keys", `{"keys":"`+tc.keys+`"}`)
			testutil.CheckResponseCode(t, http.StatusOK, w.Code)

			var resp KeysResponse
			testutil.DecodeJSONBody(t, w.Body, &resp)
			if resp.Display != tc.display {
				t.Fatalf("expected display %q, got %q", tc.display, resp.Display)
			}
			if len(resp.Steps) == 0 || resp.Steps[len(resp.Steps)-1].Display != tc.display {
				t.Fatalf("expected steps to end at %q, got %+v", tc.display, resp.Steps)
			}
		})
	}
}

func TestHandlersChainShowsFoldedValue(t *testing.T) {
	srv := newTestServer(t)
	base := "/calculator/sessions/" + srv.create()

	w := srv.do(http.MethodPost, base+"/keys", `{"keys":"1+2+"}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp KeysResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Display != "3" || resp.Equation != "3 +" {
		t.Fatalf("unexpected view %+v", resp.View)
	}
}

func TestHandlersTheme(t *testing.T) {
	srv := newTestServer(t)
	base := "/calculator/sessions/" + srv.create()

	view := srv.view(srv.do(http.MethodPut, base+"/theme", `{"theme":"dark"}`))
	if view.Theme != theme.Dark {
		t.Fatalf("expected dark, got %v", view.Theme)
	}

	view = srv.view(srv.do(http.MethodPut, base+"/theme", `{"theme":"toggle"}`))
	if view.Theme != theme.Light {
		t.Fatalf("expected light after toggle, got %v", view.Theme)
	}
}

func TestHandlersErrors(t *testing.T) {
	srv := newTestServer(t)
	base := "/calculator/sessions/" + srv.create()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "invalid session", method: http.MethodPost, path: "/calculator/sessions/nope/equals"},
		{name: "invalid body", method: http.MethodPost, path: base + "/digit", body: `{`},
		{name: "unknown digit", method: http.MethodPost, path: base + "/digit", body: `{"digit":"a"}`},
		{name: "multi-char digit", method: http.MethodPost, path: base + "/digit", body: `{"digit":"12"}`},
		{name: "unknown operator", method: http.MethodPost, path: base + "/operator", body: `{"operator":"%"}`},
		{name: "unknown theme", method: http.MethodPut, path: base + "/theme", body: `{"theme":"sepia"}`},
		{name: "unknown key", method: http.MethodPost, path: base + "/keys", body: `{"keys":"1%"}`},
		{name: "no keys", method: http.MethodPost, path: base + "/keys", body: `{"keys":""}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := srv.do(tc.method, tc.path, tc.body)
			testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

			if msg := testutil.DecodeError(t, w.Body); msg == "" {
				t.Fatal("expected error message in body")
			}
		})
	}
}

func TestHandlersLogKeypress(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	oldLogger := observability.Logger
	observability.Logger = zap.New(core)
	t.Cleanup(func() { observability.Logger = oldLogger })

	srv := newTestServer(t)
	base := "/calculator/sessions/" + srv.create()
	srv.view(srv.do(http.MethodPost, base+"/digit", `{"digit":"7"}`))

	entries := logs.FilterMessage("calculator key pressed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 keypress log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "digit" || fields["display"] != "7" {
		t.Fatalf("unexpected log fields %#v", fields)
	}
}

func TestHandlersGetIsNotAKeypress(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	core, logs := observer.New(zap.InfoLevel)
	oldLogger := observability.Logger
	observability.Logger = zap.New(core)
	t.Cleanup(func() { observability.Logger = oldLogger })

	srv := newTestServer(t)
	base := "/calculator/sessions/" + srv.create()
	srv.view(srv.do(http.MethodPost, base+"/digit", `{"digit":"4"}`))

	view := srv.view(srv.do(http.MethodGet, base, ""))
	if view.Display != "4" {
		t.Fatalf("expected display %q, got %q", "4", view.Display)
	}

	if n := logs.FilterMessage("calculator key pressed").Len(); n != 1 {
		t.Fatalf("expected 1 keypress log entry, got %d", n)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	if got := keypresses(rm); got != 1 {
		t.Fatalf("expected 1 keypress recorded, got %d", got)
	}
}

func keypresses(rm metricdata.ResourceMetrics) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "calculator.keypresses.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}
