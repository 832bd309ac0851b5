package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/redflag/pkg/models/api"
	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/analysis"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Analyze(ctx context.Context, documentID, text string, opts analysis.Options) (domain.Report, error) {
	args := m.Called(ctx, documentID, text, opts)
	return args.Get(0).(domain.Report), args.Error(1)
}

func (m *mockService) Providers() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func sampleReport(documentID string) domain.Report {
	return domain.Report{
		ID:               "r-1",
		DocumentID:       documentID,
		AnalyzedAt:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalFlags:       1,
		CriticalCount:    1,
		OverallRiskScore: 9,
		Findings: []domain.Finding{{
			Category: domain.CategoryJurisdiction,
			Severity: domain.SeverityCritical,
			Title:    "Offshore Jurisdiction: Cayman Islands",
			Score:    9,
			Source:   domain.SourceRuleEngine,
		}},
	}
}

func multipartBody(t *testing.T, field string, files map[string]string, order ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range order {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandler_Analyze_PlainText(t *testing.T) {
	// Given
	svc := new(mockService)
	text := "Governed by the laws of the Cayman Islands."
	expectedOpts := analysis.Options{UseRules: true, UseSemantic: false, Providers: []string{"openai", "claude"}}
	svc.On("Analyze", mock.Anything, "deal.txt", text, expectedOpts).Return(sampleReport("deal.txt"), nil)
	h := NewHandler(svc, 1<<20, "test")

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/analyze?document=deal.txt&use_semantic=false&providers=openai,%20claude,", strings.NewReader(text))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	// When
	h.Analyze(rec, req)

	// Then
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.Report](t, rec)
	assert.Equal(t, "deal.txt", resp.DocumentID)
	assert.Equal(t, "EXTREME RISK", resp.RiskLevel)
	require.Len(t, resp.Flags, 1)
	assert.Equal(t, api.SeverityCritical, resp.Flags[0].Severity)
	svc.AssertExpectations(t)
}

func TestHandler_Analyze_MultipartFile(t *testing.T) {
	svc := new(mockService)
	svc.On("Analyze", mock.Anything, "contract.md", "# Contract", analysis.DefaultOptions()).
		Return(sampleReport("contract.md"), nil)
	h := NewHandler(svc, 1<<20, "test")

	body, contentType := multipartBody(t, "file", map[string]string{"contract.md": "# Contract"}, "contract.md")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Analyze_Errors(t *testing.T) {
	pdfBody, pdfType := multipartBody(t, "file", map[string]string{"deal.pdf": "%PDF-1.7"}, "deal.pdf")
	noFileBody, noFileType := multipartBody(t, "other", map[string]string{"a.txt": "x"}, "a.txt")

	tests := []struct {
		name           string
		path           string
		body           *bytes.Buffer
		contentType    string
		setupMocks     func(svc *mockService)
		expectedStatus int
	}{
		{
			name:           "unsupported file type",
			path:           "/api/v1/analyze",
			body:           pdfBody,
			contentType:    pdfType,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing file field",
			path:           "/api/v1/analyze",
			body:           noFileBody,
			contentType:    noFileType,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid boolean",
			path:           "/api/v1/analyze?use_rules=maybe",
			body:           bytes.NewBufferString("text"),
			contentType:    "text/plain",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid utf-8",
			path:           "/api/v1/analyze",
			body:           bytes.NewBuffer([]byte{0xff, 0xfe, 0xfd}),
			contentType:    "text/plain",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "body too large",
			path:           "/api/v1/analyze",
			body:           bytes.NewBufferString(strings.Repeat("a", 2048)),
			contentType:    "text/plain",
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:        "empty document",
			path:        "/api/v1/analyze",
			body:        bytes.NewBufferString("   "),
			contentType: "text/plain",
			setupMocks: func(svc *mockService) {
				svc.On("Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(domain.Report{}, analysis.ErrEmptyDocument)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "unknown provider",
			path:        "/api/v1/analyze?providers=mistral",
			body:        bytes.NewBufferString("text"),
			contentType: "text/plain",
			setupMocks: func(svc *mockService) {
				svc.On("Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(domain.Report{}, semantic.ErrUnknownProvider)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockService)
			if tc.setupMocks != nil {
				tc.setupMocks(svc)
			}
			h := NewHandler(svc, 1024, "test")
			req := httptest.NewRequest(http.MethodPost, tc.path, tc.body)
			req.Header.Set("Content-Type", tc.contentType)
			rec := httptest.NewRecorder()

			h.Analyze(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			resp := decode[api.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			if tc.setupMocks == nil {
				svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandler_AnalyzeBatch(t *testing.T) {
	// Given one good file, one unsupported file and one the service rejects
	svc := new(mockService)
	svc.On("Analyze", mock.Anything, "a.txt", "alpha", analysis.DefaultOptions()).Return(sampleReport("a.txt"), nil)
	svc.On("Analyze", mock.Anything, "c.txt", "", analysis.DefaultOptions()).Return(domain.Report{}, analysis.ErrEmptyDocument)
	h := NewHandler(svc, 1<<20, "test")

	body, contentType := multipartBody(t, "files",
		map[string]string{"a.txt": "alpha", "b.docx": "beta", "c.txt": ""}, "a.txt", "b.docx", "c.txt")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	// When
	h.AnalyzeBatch(rec, req)

	// Then
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.BatchResponse](t, rec)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, api.BatchStatusSuccess, resp.Results[0].Status)
	require.NotNil(t, resp.Results[0].Result)
	assert.Equal(t, "a.txt", resp.Results[0].Result.DocumentID)
	assert.Equal(t, "b.docx", resp.Results[1].Filename)
	assert.Equal(t, api.BatchStatusFailed, resp.Results[1].Status)
	assert.Contains(t, resp.Results[1].Error, "unsupported file type")
	assert.Equal(t, api.BatchStatusFailed, resp.Results[2].Status)
	assert.Equal(t, analysis.ErrEmptyDocument.Error(), resp.Results[2].Error)
	svc.AssertExpectations(t)
}

func TestHandler_AnalyzeBatch_NoFiles(t *testing.T) {
	svc := new(mockService)
	h := NewHandler(svc, 1<<20, "test")
	body, contentType := multipartBody(t, "file", map[string]string{"a.txt": "x"}, "a.txt")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.AnalyzeBatch(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		name      string
		providers []string
		status    string
	}{
		{name: "providers configured", providers: []string{"openai"}, status: "healthy"},
		{name: "rules only", providers: []string{}, status: "degraded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("Providers").Return(tc.providers)
			h := NewHandler(svc, 1<<20, "1.2.3")
			rec := httptest.NewRecorder()

			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[api.HealthResponse](t, rec)
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.True(t, resp.Services["rules"])
			for _, p := range tc.providers {
				assert.True(t, resp.Services[p])
			}
		})
	}
}
