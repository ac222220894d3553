package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/gemini"
	"github.com/iguv/weekly/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newClient(t *testing.T, srv *httptest.Server) *genai.Client {
	t.Helper()

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  srv.Client(),
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	return client
}

func textResponse(text string) string {
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":` + quote(text) + `}]},"finishReason":"STOP"}]}`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func errorResponse(code int, status string) string {
	return `{"error":{"code":` + strconv.Itoa(code) + `,"message":"boom","status":"` + status + `"}}`
}

func request() *weekly.DigestRequest {
	return &weekly.DigestRequest{
		Sections: weekly.DefaultSections(),
		Candidates: []*weekly.Candidate{
			{Title: "FINMA Rundschreiben", URL: "https://www.finma.ch/de/news/1", Source: "FINMA"},
		},
		WindowDays: 7,
		Mode:       weekly.ModeJSON,
		Limits:     weekly.DefaultLimits(),
	}
}

func TestRequester_RequestDigest(t *testing.T) {
	t.Parallel()

	t.Run("decodes the JSON digest", func(t *testing.T) {
		t.Parallel()

		var body string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, textResponse(`{"briefing":[{"title":"Neues Rundschreiben","url":"https://www.finma.ch/de/news/1"}],"sections":[{"name":"FINMA-Updates","items":[{"title":"Rundschreiben 2025/1","url":"https://www.finma.ch/de/news/1","date_iso":"2025-03-10","issuer":"FINMA","summary":"Kurz."}]}]}`))
		}))
		defer srv.Close()

		req := gemini.NewRequester(newClient(t, srv), gemini.WithRetryDelays(nil))

		d, err := req.RequestDigest(context.Background(), request())

		require.NoError(t, err)
		require.Len(t, d.Briefing, 1)
		assert.Equal(t, "Neues Rundschreiben", d.Briefing[0].Title)
		items := d.Items("FINMA-Updates")
		require.Len(t, items, 1)
		assert.Equal(t, "2025-03-10", items[0].Date)
		assert.Contains(t, body, "responseMimeType")
		assert.Contains(t, body, "FINMA Rundschreiben")
	})

	t.Run("malformed output yields an empty digest", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, textResponse("Leider kann ich das nicht."))
		}))
		defer srv.Close()

		req := gemini.NewRequester(newClient(t, srv), gemini.WithRetryDelays(nil))

		d, err := req.RequestDigest(context.Background(), request())

		require.NoError(t, err)
		assert.Empty(t, d.Briefing)
		assert.Empty(t, d.Sections)
	})

	t.Run("html mode returns the body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, textResponse("```html\n<h2>FINMA-Updates</h2><ul><li>x</li></ul>\n```"))
		}))
		defer srv.Close()

		req := gemini.NewRequester(newClient(t, srv), gemini.WithRetryDelays(nil))
		dr := request()
		dr.Mode = weekly.ModeHTML

		d, err := req.RequestDigest(context.Background(), dr)

		require.NoError(t, err)
		assert.Equal(t, "<h2>FINMA-Updates</h2><ul><li>x</li></ul>", d.HTML)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, errorResponse(400, "INVALID_ARGUMENT"))
		}))
		defer srv.Close()

		req := gemini.NewRequester(newClient(t, srv), gemini.WithRetryDelays([]time.Duration{0, 0}))

		_, err := req.RequestDigest(context.Background(), request())

		require.Error(t, err)
		assert.Equal(t, weekly.EUNAVAILABLE, weekly.ErrorCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("rejects a request without sections", func(t *testing.T) {
		t.Parallel()

		req := gemini.NewRequester(nil)

		_, err := req.RequestDigest(context.Background(), &weekly.DigestRequest{})

		assert.Equal(t, weekly.EINVALID, weekly.ErrorCode(err))
	})

	t.Run("validator warnings do not fail the request", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, textResponse(`{"briefing":[],"sections":[]}`))
		}))
		defer srv.Close()

		var validated string
		v := &mock.DigestValidator{
			ValidateFn: func(doc string) []string {
				validated = doc
				return []string{"sections: too few"}
			},
		}
		req := gemini.NewRequester(newClient(t, srv), gemini.WithRetryDelays(nil), gemini.WithValidator(v))

		d, err := req.RequestDigest(context.Background(), request())

		require.NoError(t, err)
		assert.Empty(t, d.Sections)
		assert.Equal(t, `{"briefing":[],"sections":[]}`, validated)
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("json mode requests a JSON response", func(t *testing.T) {
		t.Parallel()

		config := gemini.BuildConfig(request())

		require.NotNil(t, config.SystemInstruction)
		require.Len(t, config.SystemInstruction.Parts, 1)
		assert.Contains(t, config.SystemInstruction.Parts[0].Text, "JSON")
		assert.Equal(t, "application/json", config.ResponseMIMEType)
		assert.Empty(t, config.Tools)
		assert.Nil(t, config.Temperature)
	})

	t.Run("web search adds the search tool", func(t *testing.T) {
		t.Parallel()

		dr := request()
		dr.WebSearch = true

		config := gemini.BuildConfig(dr)

		require.Len(t, config.Tools, 1)
		assert.NotNil(t, config.Tools[0].GoogleSearch)
		assert.Empty(t, config.ResponseMIMEType)
	})
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, gemini.IsTransient(genai.APIError{Code: 429}))
	assert.True(t, gemini.IsTransient(genai.APIError{Code: 503}))
	assert.False(t, gemini.IsTransient(genai.APIError{Code: 400}))
	assert.True(t, gemini.IsTransient(errors.New("connection reset")))
	assert.False(t, gemini.IsTransient(context.Canceled))
	assert.False(t, gemini.IsTransient(nil))
}
