package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askrag/internal/chromemdb"
	"askrag/internal/config"
	"askrag/internal/models"
	"askrag/internal/parser"
	"askrag/internal/rag"
	"askrag/internal/session"
)

type textLoader struct{}

func (textLoader) Load(path string) ([]parser.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("%corrupt")) {
		return nil, errors.New("malformed PDF")
	}
	return []parser.Page{{Number: 1, Text: string(data)}}, nil
}

type constEmbedder struct{}

func (constEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (constEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	return g.answer, g.err
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, gen *stubGenerator, maxFileMB int64) *testClient {
	t.Helper()
	serverCfg := &config.ServerConfig{Host: "localhost", Port: 8501, CookieName: "askrag_session", SessionTTL: time.Hour}
	uploadCfg := &config.UploadConfig{Dir: t.TempDir(), MaxFileSizeMB: maxFileMB, MaxRequestSize: 20 * maxFileMB}

	cache := rag.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close(context.Background()) })
	indexer := rag.NewIndexer(textLoader{}, parser.NewSplitter(512, 30, config.DefaultSeparators), constEmbedder{},
		func(_ context.Context, kbID string) (rag.VectorIndex, error) {
			return chromemdb.NewIndex(kbID, constEmbedder{})
		},
		cache, rag.IndexerOptions{ScratchDir: uploadCfg.Dir, MaxFileBytes: uploadCfg.MaxFileBytes()})
	prompt, err := rag.NewPromptBuilder("")
	require.NoError(t, err)
	orch := rag.NewOrchestrator(indexer, rag.NewRAG(gen, prompt, 4))

	srv := NewServer(orch, session.NewStore(time.Hour), serverCfg, uploadCfg)
	return &testClient{t: t, handler: srv.Routes()}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func (c *testClient) page() string {
	w := c.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(c.t, http.StatusOK, w.Code)
	return w.Body.String()
}

func (c *testClient) upload(files map[string][]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(c.t, err)
		_, err = part.Write(content)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 10)
	w := c.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
}

func TestIndex_newSession(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 10)
	body := c.page()

	require.Len(t, c.cookies, 1)
	assert.Equal(t, "askrag_session", c.cookies[0].Name)
	assert.True(t, c.cookies[0].HttpOnly)
	assert.Contains(t, body, models.NeedsUpload)
	assert.NotContains(t, body, `action="/ask"`)
}

func TestUploadAndAsk(t *testing.T) {
	c := newTestClient(t, &stubGenerator{answer: "The sky is **blue**."}, 10)
	c.page()

	w := c.upload(map[string][]byte{"sky.pdf": []byte("The sky is blue.")})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	body := c.page()
	assert.Contains(t, body, models.UploadComplete)
	assert.Contains(t, body, "sky.pdf")
	assert.Contains(t, body, `action="/ask"`)

	w = c.post("/ask", url.Values{"question": {"What color is the sky?"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	body = c.page()
	assert.Contains(t, body, "What color is the sky?")
	assert.Contains(t, body, "<strong>blue</strong>")
	assert.NotContains(t, body, models.UploadComplete, "notices are shown once")
}

func TestHistoryNewestFirst(t *testing.T) {
	gen := &stubGenerator{answer: "first answer"}
	c := newTestClient(t, gen, 10)
	c.upload(map[string][]byte{"a.pdf": []byte("some text")})
	c.post("/ask", url.Values{"question": {"first question"}})
	gen.answer = "second answer"
	c.post("/ask", url.Values{"question": {"second question"}})

	body := c.page()
	assert.Less(t, strings.Index(body, "second question"), strings.Index(body, "first question"))
}

func TestUpload_oversize(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 1)
	c.upload(map[string][]byte{
		"big.pdf":   bytes.Repeat([]byte("a"), 1024*1024+1),
		"small.pdf": []byte("tiny"),
	})

	body := c.page()
	assert.Contains(t, body, "The following files exceed the 1 MB limit: big.pdf")
	assert.NotContains(t, body, "small.pdf")
	assert.Contains(t, body, models.NeedsUpload)
}

func TestUpload_requestLimit(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 1)
	w := c.upload(map[string][]byte{"huge.pdf": bytes.Repeat([]byte("a"), 21*1024*1024)})
	require.Equal(t, http.StatusSeeOther, w.Code)

	body := c.page()
	assert.Contains(t, body, "The upload exceeds the 20 MB request limit and was rejected. Files larger than 1 MB are not accepted.")
	assert.Contains(t, body, models.NeedsUpload)
}

func TestUpload_nothingSelected(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 10)
	c.upload(nil)
	assert.Contains(t, c.page(), models.NothingSelected)

	c.post("/upload", url.Values{})
	assert.Contains(t, c.page(), models.NothingSelected)
}

func TestUpload_rejections(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 10)

	c.upload(map[string][]byte{"notes.txt": []byte("text")})
	assert.Contains(t, c.page(), "Only PDF files are supported: notes.txt")

	c.upload(map[string][]byte{"bad.pdf": []byte("%corrupt")})
	body := c.page()
	assert.Contains(t, body, "Failed to process the uploaded files")
	assert.Contains(t, body, "bad.pdf")
	assert.Contains(t, body, models.NeedsUpload)
}

func TestAsk_withoutKnowledgeBase(t *testing.T) {
	gen := &stubGenerator{answer: "should not be called"}
	c := newTestClient(t, gen, 10)
	c.post("/ask", url.Values{"question": {"anything?"}})

	body := c.page()
	assert.Contains(t, body, models.NeedsUpload)
	assert.NotContains(t, body, "should not be called")
}

func TestAsk_error(t *testing.T) {
	gen := &stubGenerator{err: errors.New("401 invalid api key")}
	c := newTestClient(t, gen, 10)
	c.upload(map[string][]byte{"a.pdf": []byte("some text")})
	c.page()

	c.post("/ask", url.Values{"question": {"What is this?"}})
	body := c.page()
	assert.Contains(t, body, "Error while processing:")
	assert.Contains(t, body, "401 invalid api key")
	assert.NotContains(t, body, `class="question"`)
}

func TestReset(t *testing.T) {
	c := newTestClient(t, &stubGenerator{answer: "an answer"}, 10)
	c.upload(map[string][]byte{"a.pdf": []byte("some text")})
	c.post("/ask", url.Values{"question": {"a question"}})

	w := c.post("/reset", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	body := c.page()
	assert.Contains(t, body, models.MemoryCleared)
	assert.Contains(t, body, models.NeedsUpload)
	assert.NotContains(t, body, "a question")
}

func TestSessionsAreIsolated(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 10)
	c.upload(map[string][]byte{"a.pdf": []byte("some text")})
	assert.Contains(t, c.page(), `action="/ask"`)

	other := &testClient{t: t, handler: c.handler}
	assert.Contains(t, other.page(), models.NeedsUpload)
}

func TestSession_cookieRefreshedOnEveryRequest(t *testing.T) {
	c := newTestClient(t, &stubGenerator{}, 10)
	first := c.do(httptest.NewRequest(http.MethodGet, "/", nil)).Result().Cookies()
	require.Len(t, first, 1)

	second := c.do(httptest.NewRequest(http.MethodGet, "/", nil)).Result().Cookies()
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Value, second[0].Value)
	assert.Equal(t, int(time.Hour.Seconds()), second[0].MaxAge)
	assert.True(t, second[0].HttpOnly)
}
