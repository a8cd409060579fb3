package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/classifier"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/storage"
)

type stubLister struct {
	items     []storage.Article
	err       error
	gotLimit  int
	gotOffset int
}

func (s *stubLister) ListArticles(_ context.Context, limit, offset int) ([]storage.Article, error) {
	s.gotLimit, s.gotOffset = limit, offset
	return s.items, s.err
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(context.Context, string) analysis.Result {
	panic("model exploded")
}

func newRouter(a Analyzer, l ArticleLister, mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mws...)
	NewServer(a, l).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndRoot(t *testing.T) {
	r := newRouter(analysis.NewAnalyzer(nil, nil), &stubLister{})
	for _, path := range []string{"/", "/health"} {
		w := do(r, http.MethodGet, path, "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
			t.Fatalf("GET %s = %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestAnalyzeReturnsVerdict(t *testing.T) {
	fake := classifier.New("fake_news", classifier.BackendFunc(func(context.Context, string) ([]classifier.Prediction, error) {
		return []classifier.Prediction{{Label: "FAKE", Score: 0.92}}, nil
	}), classifier.FakeNewsLabel)
	sent := classifier.New("sentiment", classifier.BackendFunc(func(context.Context, string) ([]classifier.Prediction, error) {
		return []classifier.Prediction{{Label: "NEGATIVE", Score: 0.88}}, nil
	}), classifier.SentimentLabel)
	r := newRouter(analysis.NewAnalyzer(fake, sent), &stubLister{})

	w := do(r, http.MethodPost, "/api/v1/analyze", `{"text":"The earth is actually flat."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var got analysis.Verdict
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Sentiment != "negative" || !got.IsFake || got.CredibilityScore < 0.079 || got.CredibilityScore > 0.081 {
		t.Fatalf("verdict = %+v", got)
	}
}

func TestAnalyzeWithUnavailableModels(t *testing.T) {
	r := newRouter(analysis.NewAnalyzer(classifier.Disabled("fake_news"), classifier.Disabled("sentiment")), &stubLister{})

	w := do(r, http.MethodPost, "/api/v1/analyze", `{"text":"I love this product but it completely broke my computer!"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := `{"sentiment":"neutral","is_fake":false,"credibility_score":0.5}`
	if strings.TrimSpace(w.Body.String()) != want {
		t.Fatalf("body = %s, want %s", w.Body.String(), want)
	}
}

func TestAnalyzeBadRequest(t *testing.T) {
	r := newRouter(analysis.NewAnalyzer(nil, nil), &stubLister{})
	for _, body := range []string{`{"text":`, `{}`, `{"text": 12}`} {
		w := do(r, http.MethodPost, "/api/v1/analyze", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d", body, w.Code)
		}
	}

	// 空字符串合法，返回默认结论
	w := do(r, http.MethodPost, "/api/v1/analyze", `{"text":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("empty text status = %d", w.Code)
	}
}

func TestAnalyzeInternalError(t *testing.T) {
	r := newRouter(panicAnalyzer{}, &stubLister{})
	w := do(r, http.MethodPost, "/api/v1/analyze", `{"text":"x"}`)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "model exploded") {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestListArticles(t *testing.T) {
	lister := &stubLister{items: []storage.Article{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}}
	r := newRouter(analysis.NewAnalyzer(nil, nil), lister)

	w := do(r, http.MethodGet, "/api/v1/articles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if lister.gotLimit != storage.DefaultListLimit || lister.gotOffset != 0 {
		t.Fatalf("defaults not applied: limit=%d offset=%d", lister.gotLimit, lister.gotOffset)
	}
	var got []storage.Article
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || len(got) != 2 || got[0].Title != "b" {
		t.Fatalf("body = %s err=%v", w.Body.String(), err)
	}

	do(r, http.MethodGet, "/api/v1/articles?limit=5&offset=10", "")
	if lister.gotLimit != 5 || lister.gotOffset != 10 {
		t.Fatalf("query not passed: limit=%d offset=%d", lister.gotLimit, lister.gotOffset)
	}

	if w := do(r, http.MethodGet, "/api/v1/articles?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", w.Code)
	}
}

func TestListArticlesEmptyAndError(t *testing.T) {
	r := newRouter(analysis.NewAnalyzer(nil, nil), &stubLister{})
	if w := do(r, http.MethodGet, "/api/v1/articles", ""); strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty list body = %s", w.Body.String())
	}

	r = newRouter(analysis.NewAnalyzer(nil, nil), &stubLister{err: errors.New("connection refused")})
	w := do(r, http.MethodGet, "/api/v1/articles", "")
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestBasicAuthAndCORS(t *testing.T) {
	r := newRouter(analysis.NewAnalyzer(nil, nil), &stubLister{}, CORS(false), BasicAuth("admin", "secret"))

	if w := do(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("/health should skip auth, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/articles", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS header")
	}

	pre := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	pre.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, pre)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight = %d %v", w.Code, w.Header())
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("credentials must not be allowed with basic auth, got %q", got)
	}
}

func TestCORSEchoesOriginWithCredentials(t *testing.T) {
	r := newRouter(analysis.NewAnalyzer(nil, nil), &stubLister{}, CORS(true))

	pre := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	pre.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, pre)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow credentials = %q", got)
	}

	// 没有 Origin 时退回 *
	w = do(r, http.MethodGet, "/health", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin without Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("credentials without Origin = %q", got)
	}
}
