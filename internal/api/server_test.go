package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandloom/shopify-insights/internal/config"
	"github.com/brandloom/shopify-insights/internal/hash/sha256"
	"github.com/brandloom/shopify-insights/internal/insights"
	publishermemory "github.com/brandloom/shopify-insights/internal/publisher/memory"
	storagememory "github.com/brandloom/shopify-insights/internal/storage/memory"
)

type fakeService struct {
	bc  *insights.BrandContext
	err error
}

func (s *fakeService) GetInsights(_ context.Context, _ string) (*insights.BrandContext, error) {
	return s.bc, s.err
}

type fakeIDGen struct{ ids []string }

func (g *fakeIDGen) NewID() (string, error) {
	id := g.ids[0]
	g.ids = g.ids[1:]
	return id, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func testConfig() config.Config {
	return config.Config{
		Server:   config.ServerConfig{Port: 8080},
		Pipeline: config.PipelineConfig{BudgetSeconds: 5},
		Storage:  config.StorageConfig{ContentType: "application/json"},
		PubSub:   config.PubSubConfig{TopicName: "insights-events"},
	}
}

func newTestServer(service InsightsService) (*Server, *storagememory.SnapshotStore, *publishermemory.Publisher) {
	snapshots := storagememory.NewSnapshotStore()
	publisher := publishermemory.New()
	server := NewServer(
		service,
		snapshots,
		storagememory.NewBlobStore(),
		publisher,
		sha256.New(),
		&fakeIDGen{ids: []string{"snap-1", "snap-2"}},
		&fakeClock{now: time.Unix(1000, 0)},
		testConfig(),
		zap.NewNop(),
	)
	return server, snapshots, publisher
}

func postInsights(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/insights", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_GetInsights_Succeeds(t *testing.T) {
	bc := insights.NewBrandContext("https://shop.example.com")
	bc.BrandName = "Glow Brand"
	bc.ExtractedAt = time.Unix(500, 0).UTC()
	server, snapshots, publisher := newTestServer(&fakeService{bc: bc})

	rec := postInsights(t, server, `{"website_url":"shop.example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got insights.BrandContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Glow Brand", got.BrandName)

	saved, err := snapshots.LatestSnapshot(context.Background(), "https://shop.example.com")
	require.NoError(t, err)
	require.Equal(t, "snap-1", saved.ID)
	require.NotEmpty(t, saved.ContentHash)
	require.NotEmpty(t, saved.BlobURI)
	require.NotNil(t, saved.Context)

	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "insights-events", msgs[0].Topic)
}

func TestServer_GetInsights_ErrorMapping(t *testing.T) {
	cases := []struct {
		kind insights.PipelineErrorKind
		want int
	}{
		{insights.ErrKindStoreUnreachable, http.StatusNotFound},
		{insights.ErrKindNotShopify, http.StatusBadRequest},
		{insights.ErrKindTimeout, http.StatusGatewayTimeout},
		{insights.ErrKindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			server, snapshots, _ := newTestServer(&fakeService{
				err: insights.NewPipelineError(tc.kind, "https://shop.example.com", nil),
			})
			rec := postInsights(t, server, `{"website_url":"shop.example.com"}`)
			require.Equal(t, tc.want, rec.Code)
			require.Contains(t, rec.Body.String(), "error")

			_, err := snapshots.LatestSnapshot(context.Background(), "https://shop.example.com")
			require.Error(t, err, "failed runs must not persist snapshots")
		})
	}
}

func TestServer_GetInsights_BadRequests(t *testing.T) {
	server, _, _ := newTestServer(&fakeService{})

	rec := postInsights(t, server, `{invalid`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postInsights(t, server, `{"website_url":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "website_url is required")
}

func TestServer_LatestSnapshot(t *testing.T) {
	server, snapshots, _ := newTestServer(&fakeService{})
	require.NoError(t, snapshots.SaveSnapshot(context.Background(), insights.Snapshot{
		ID:       "snap-9",
		StoreURL: "https://shop.example.com",
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/insights/latest?website_url=https%3A%2F%2Fshop.example.com", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "snap-9")

	// Bare hosts and trailing slashes resolve to the same stored root.
	for _, q := range []string{"shop.example.com", "https%3A%2F%2Fshop.example.com%2F"} {
		req = httptest.NewRequest(http.MethodGet, "/v1/insights/latest?website_url="+q, nil)
		rec = httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, q)
		require.Contains(t, rec.Body.String(), "snap-9")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/insights/latest?website_url=https%3A%2F%2Funknown.example.com", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HealthEndpoints(t *testing.T) {
	server, _, _ := newTestServer(&fakeService{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_APIKeyMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "sekret"}
	server := NewServer(
		&fakeService{bc: insights.NewBrandContext("https://shop.example.com")},
		nil, nil, nil, nil,
		&fakeIDGen{ids: []string{"snap-1"}},
		&fakeClock{now: time.Unix(1000, 0)},
		cfg,
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodPost, "/v1/insights", bytes.NewBufferString(`{"website_url":"x.com"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/insights", bytes.NewBufferString(`{"website_url":"x.com"}`))
	req.Header.Set("X-API-Key", "sekret")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequestIDHeader(t *testing.T) {
	server, _, _ := newTestServer(&fakeService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
