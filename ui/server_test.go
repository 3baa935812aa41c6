package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"dataprobe/adapters/llm"
	"dataprobe/adapters/tabular"
	"dataprobe/app"
	"dataprobe/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = "region,price,units\nnorth,100,3\nsouth,250.5,\neast,80,7\nnorth,120,2\n"

func newTestServer(t *testing.T, client *llm.MockLLMClient) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	questions := app.NewQuestionService(client, nil, app.QuestionConfig{Model: "tinyllama"})
	controller := app.NewSessionController(tabular.NewDataReader(nil), nil, questions, app.ControllerConfig{PreviewRows: 5})
	s, err := NewServer(controller, Config{MaxUploadBytes: 1 << 20})
	require.NoError(t, err)
	return s
}

func uploadRequest(t *testing.T, filename string, content []byte, htmx bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("dataset", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func formRequest(path string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestIndexShowsEmptyState(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a CSV file to get started!")
}

func TestUploadRendersWorkspace(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})

	w := serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), true))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Rows: 4")
	assert.Contains(t, body, "Columns: 3")
	assert.Contains(t, body, "<td>250.5</td>")
	assert.Contains(t, body, `<option value="price" selected>`)
	assert.Contains(t, body, "<svg")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), "Rows: 4")
}

func TestUploadExtremeValuesKeepsWorkspaceUsable(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})

	w := serve(s, uploadRequest(t, "extreme.csv", []byte("x\n-1e308\n0\n1e308\n"), true))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rows: 3")
	assert.Contains(t, w.Body.String(), "<svg")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "x (3 values)")
}

func TestUploadRejectsBinaryAndKeepsDataset(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	w := serve(s, uploadRequest(t, "cat.png", png, false))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, errors.CodeDataFormat, decode(t, w)["code"])

	w = serve(s, uploadRequest(t, "cat.png", png, true))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#upload-status", w.Header().Get("HX-Retarget"))
	assert.Contains(t, w.Body.String(), "Could not read the file")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/dataset/info", nil))
	info := decode(t, w)
	assert.Equal(t, "sales.csv", info["name"])
	assert.Equal(t, float64(4), info["rows"])
}

func TestActionsBeforeUpload(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})

	w := serve(s, formRequest("/api/ask", url.Values{"question": {"hi?"}}, false))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "upload a dataset first", decode(t, w)["error"])

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/dataset/info", nil))
	assert.Equal(t, false, decode(t, w)["loaded"])
}

func TestExplorationPanels(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "dtypes", path: "/api/dataset/dtypes?show=on", want: "<td>numeric</td>"},
		{name: "summary", path: "/api/dataset/summary?show=on", want: "<td>137.625000</td>"},
		{name: "columns", path: "/api/dataset/columns?show=on", want: "<li>units</li>"},
		{name: "unchecked toggle clears", path: "/api/dataset/summary", want: ""},
		{name: "histogram by query", path: "/api/dataset/histogram?column=units", want: "units (3 values)"},
		{name: "preview", path: "/api/dataset/preview", want: "<td>north</td>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("HX-Request", "true")
			w := serve(s, req)
			assert.Equal(t, http.StatusOK, w.Code)
			if tt.want == "" {
				assert.Empty(t, w.Body.String())
				return
			}
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestHistogramJSON(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/columns/price/histogram", nil))
	require.Equal(t, http.StatusOK, w.Code)
	spec := decode(t, w)
	assert.Equal(t, float64(4), spec["total"])

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/columns/region/histogram", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/columns/missing/histogram", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	w := serve(s, formRequest("/api/analyze", url.Values{"column": {"region"}}, true))
	assert.Contains(t, w.Body.String(), "Most common value: north")

	w = serve(s, formRequest("/api/analyze", url.Values{"column": {"units"}}, false))
	assert.Equal(t, "Mean: 4.00, Median: 3.00", decode(t, w)["summary"])

	w = serve(s, formRequest("/api/analyze", url.Values{}, false))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAskRendersMarkdownSafely(t *testing.T) {
	client := &llm.MockLLMClient{Response: "The average is **137.6**<script>alert(1)</script>"}
	s := newTestServer(t, client)
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	w := serve(s, formRequest("/api/ask", url.Values{"question": {"What is the average price?"}}, true))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>137.6</strong>")
	assert.NotContains(t, w.Body.String(), "<script>")

	require.Len(t, client.Prompts, 1)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(client.Prompts[0]), "What is the average price?"))
}

func TestAskFailureThenRecovery(t *testing.T) {
	client := &llm.MockLLMClient{Error: assert.AnError}
	s := newTestServer(t, client)
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	w := serve(s, formRequest("/api/ask", url.Values{"question": {"why?"}}, false))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, errors.CodeQueryEngine, decode(t, w)["code"])

	client.Error = nil
	client.Response = "because"
	w = serve(s, formRequest("/api/ask", url.Values{"question": {"why?"}}, false))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "because", decode(t, w)["answer"])
}

func TestQuery(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "sales.csv", []byte(salesCSV), false)).Code)

	w := serve(s, formRequest("/api/query", url.Values{"expression": {"price > 100"}}, false))
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, []interface{}{float64(1), float64(3)}, out["row_indices"])

	w = serve(s, formRequest("/api/query", url.Values{"expression": {"region == 'east'"}}, true))
	assert.Contains(t, w.Body.String(), "1 matching rows")
	assert.Contains(t, w.Body.String(), "<td>east</td>")

	w = serve(s, formRequest("/api/query", url.Values{"expression": {"unknown_col > 1"}}, true))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Error in query")

	w = serve(s, formRequest("/api/query", url.Values{"expression": {"price >"}}, false))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, errors.CodeQueryExpression, decode(t, w)["code"])
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{})
	big := bytes.Repeat([]byte("a,b\n1,2\n"), 300000)

	w := serve(s, uploadRequest(t, "big.csv", big, false))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["error"], "limit")
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		errors.CodeDataFormat:      http.StatusUnprocessableEntity,
		errors.CodeQueryExpression: http.StatusUnprocessableEntity,
		errors.CodeInvalidInput:    http.StatusUnprocessableEntity,
		errors.CodeNotFound:        http.StatusNotFound,
		errors.CodeQueryEngine:     http.StatusBadGateway,
		errors.CodeInternalError:   http.StatusInternalServerError,
		"UNKNOWN":                  http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(code), code)
	}
}
