package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/redflag/pkg/models/api"
	"github.com/de-tools/redflag/pkg/services/analysis"
	"github.com/de-tools/redflag/pkg/services/patterns"
	"github.com/de-tools/redflag/pkg/services/report"
	"github.com/de-tools/redflag/pkg/services/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine, err := rules.NewEngine(patterns.Default(), rules.DefaultSettings())
	require.NoError(t, err)

	config := Config{
		Addr:            ":8000",
		ShutdownTimeout: time.Second,
		MaxUploadBytes:  1 << 20,
		Version:         "test",
		Dependencies: Dependencies{
			Analysis: analysis.NewService(engine, nil, report.NewAggregator()),
			Logger:   zerolog.New(zerolog.NewTestWriter(t)),
		},
	}
	srv := httptest.NewServer(ConfigureRouter(config))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebAPI_Endpoints(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "Root",
			method:         http.MethodGet,
			path:           "/",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "/api/v1/analyze")
			},
		},
		{
			name:           "Health",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.HealthResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "degraded", resp.Status)
				assert.Equal(t, "test", resp.Version)
			},
		},
		{
			name:           "Analyze",
			method:         http.MethodPost,
			path:           "/api/v1/analyze?document=deal.txt",
			body:           "Section 12. Governing Law. This Agreement is governed by the laws of the Cayman Islands.",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.Report
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "deal.txt", resp.DocumentID)
				assert.Equal(t, 1, resp.TotalFlags)
				assert.Equal(t, 1, resp.CriticalCount)
				assert.Equal(t, 9.0, resp.OverallRiskScore)
				assert.Equal(t, "EXTREME RISK", resp.RiskLevel)
				require.Len(t, resp.Flags, 1)
				assert.Equal(t, "jurisdiction", resp.Flags[0].Category)
			},
		},
		{
			name:           "Analyze_Empty",
			method:         http.MethodPost,
			path:           "/api/v1/analyze",
			body:           "  ",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Metrics",
			method:         http.MethodGet,
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "redflag_analyses_total")
			},
		},
		{
			name:           "MethodNotAllowed",
			method:         http.MethodGet,
			path:           "/api/v1/analyze",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(context.Background(), tc.method, srv.URL+tc.path, bytes.NewBufferString(tc.body))
			require.NoError(t, err)
			if tc.body != "" {
				req.Header.Set("Content-Type", "text/plain")
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")
			if tc.check != nil {
				tc.check(t, body)
			}
		})
	}
}

func TestWebAPI_RequestIDHeaderIsAccepted(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/analyze", strings.NewReader("nothing to see"))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewWebAPI_DefaultShutdownTimeout(t *testing.T) {
	w := NewWebAPI(Config{Addr: ":0", Dependencies: Dependencies{Logger: zerolog.Nop()}})
	assert.Equal(t, defaultShutdownTimeout, w.shutdownTimeout)
}
