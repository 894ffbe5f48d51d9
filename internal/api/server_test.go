package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docnodes/internal/config"
	"github.com/dgallion1/docnodes/internal/inputdir"
	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/dgallion1/docnodes/internal/raster"
)

func newTestServer(t *testing.T, apiKey string) (*Server, *inputdir.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := inputdir.New(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("inputdir.New: %v", err)
	}
	reg, err := nodes.NewBuiltin(nodes.Deps{Store: store}, log)
	if err != nil {
		t.Fatalf("NewBuiltin: %v", err)
	}
	cfg := config.Config{
		Port:             "0",
		InputDir:         store.Base(),
		APIKey:           apiKey,
		MaxUploadBytes:   1024,
		DefaultChunkSize: 1000,
		DefaultDPI:       raster.DefaultDPI,
	}
	return NewServer(reg, store, log, cfg), store
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("document", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")
	do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "docnodes_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestUploadThenList(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, uploadRequest(t, "../../notes.txt", "hello"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var up map[string]string
	decodeBody(t, rec, &up)
	if up["name"] != "notes.txt" {
		t.Errorf("expected name notes.txt, got %q", up["name"])
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/getpath?path=&extensions=txt,pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []string
	decodeBody(t, rec, &entries)
	if len(entries) != 1 || entries[0] != "notes.txt" {
		t.Errorf("expected [notes.txt], got %v", entries)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/getpath?path=&extensions=pdf", nil))
	decodeBody(t, rec, &entries)
	if len(entries) != 0 {
		t.Errorf("expected no pdf entries, got %v", entries)
	}
}

func TestListDocuments(t *testing.T) {
	s, store := newTestServer(t, "")
	ctx := context.Background()
	for name, body := range map[string]string{"b.pdf": "%PDF", "a.txt": "x", "skip.png": "x"} {
		if _, err := store.Save(ctx, name, strings.NewReader(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(store.Base(), "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Documents []string `json:"documents"`
	}
	decodeBody(t, rec, &body)
	if strings.Join(body.Documents, ",") != "a.txt,b.pdf" {
		t.Errorf("expected [a.txt b.pdf], got %v", body.Documents)
	}
}

func TestUpload_Rejections(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, uploadRequest(t, "photo.exe", "x"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}

	rec = do(t, s, uploadRequest(t, "big.txt", strings.Repeat("a", 2048)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for oversize file, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload/document", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	if rec := do(t, s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-multipart body, got %d", rec.Code)
	}
}

func TestGetPath(t *testing.T) {
	s, _ := newTestServer(t, "")

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/getpath", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without path, got %d", rec.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/getpath?path=../", nil)); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 outside input dir, got %d", rec.Code)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/getpath?path=nowhere", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing dir, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", rec.Body.String())
	}
}

func TestListNodes(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/nodes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Nodes []nodes.Info `json:"nodes"`
	}
	decodeBody(t, rec, &body)
	if len(body.Nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(body.Nodes))
	}
	if body.Nodes[0].Name != "ChunkRouter" {
		t.Errorf("expected sorted listing, first was %s", body.Nodes[0].Name)
	}
}

func TestRunNode_TextChunker(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s, postJSON("/api/nodes/TextChunker/run",
		`{"inputs":{"text":"the quick brown fox jumps","chunk_size":2}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Outputs     [][]string `json:"outputs"`
		Fingerprint string     `json:"fingerprint"`
	}
	decodeBody(t, rec, &body)
	if got := strings.Join(body.Outputs[0], "|"); got != "the quick|brown fox|jumps" {
		t.Errorf("unexpected chunks: %s", got)
	}
	if len(body.Fingerprint) != 64 {
		t.Errorf("expected hex sha256 fingerprint, got %q", body.Fingerprint)
	}
}

func TestRunNode_Errors(t *testing.T) {
	s, _ := newTestServer(t, "")
	tests := []struct {
		path, body string
		want       int
	}{
		{"/api/nodes/Nope/run", `{"inputs":{}}`, http.StatusNotFound},
		{"/api/nodes/ChunkRouter/run", `{"inputs":{"chunks":["a"],"selected_index":4}}`, http.StatusBadRequest},
		{"/api/nodes/TextChunker/run", `{"inputs":{}}`, http.StatusBadRequest},
		{"/api/nodes/TextChunker/run", `{"inputs":{"text":"x","chunk_size":0}}`, http.StatusBadRequest},
		{"/api/nodes/TextChunker/run", `not json`, http.StatusBadRequest},
		{"/api/nodes/DocumentLoader/run", `{"inputs":{"file_path":"missing.txt"}}`, http.StatusNotFound},
		{"/api/nodes/DocumentLoader/run", `{"inputs":{"file_path":"../../etc/passwd"}}`, http.StatusForbidden},
		{"/api/nodes/ImageSelector/run", `{"inputs":{"images":["not-base64!"]}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := do(t, s, postJSON(tt.path, tt.body))
		if rec.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d: %s", tt.path, tt.body, tt.want, rec.Code, rec.Body.String())
		}
	}
}

func TestRunNode_DocumentLoader(t *testing.T) {
	s, store := newTestServer(t, "")
	if _, err := store.Save(context.Background(), "a.md", strings.NewReader("# Title\n\nBody text.")); err != nil {
		t.Fatal(err)
	}
	rec := do(t, s, postJSON("/api/nodes/DocumentLoader/run", `{"inputs":{"file_path":"a.md"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Outputs []string `json:"outputs"`
	}
	decodeBody(t, rec, &body)
	if !strings.Contains(body.Outputs[0], "Body text.") {
		t.Errorf("unexpected text: %q", body.Outputs[0])
	}
}

func TestRunNode_ImageSelectorRoundTrip(t *testing.T) {
	s, _ := newTestServer(t, "")
	var encoded []string
	for w := 1; w <= 3; w++ {
		e, err := raster.EncodeBase64PNG(image.NewGray(image.Rect(0, 0, w, 1)))
		if err != nil {
			t.Fatal(err)
		}
		encoded = append(encoded, e)
	}
	payload, _ := json.Marshal(map[string]any{
		"inputs": map[string]any{"images": encoded, "indexes": "2,0"},
	})

	rec := do(t, s, postJSON("/api/nodes/ImageSelector/run", string(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Outputs [][]string `json:"outputs"`
	}
	decodeBody(t, rec, &body)
	if len(body.Outputs[0]) != 2 {
		t.Fatalf("expected 2 images, got %d", len(body.Outputs[0]))
	}
	for i, want := range []int{3, 1} {
		img, err := raster.DecodeBase64PNG(body.Outputs[0][i])
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds().Dx() != want {
			t.Errorf("image %d: expected width %d, got %d", i, want, img.Bounds().Dx())
		}
	}
}

func TestFingerprint(t *testing.T) {
	s, _ := newTestServer(t, "")
	get := func(body string) string {
		rec := do(t, s, postJSON("/api/nodes/TextChunker/fingerprint", body))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]string
		decodeBody(t, rec, &resp)
		return resp["fingerprint"]
	}

	a := get(`{"inputs":{"text":"abc","chunk_size":5}}`)
	b := get(`{"inputs":{"chunk_size":5,"text":"abc"}}`)
	c := get(`{"inputs":{"text":"abd","chunk_size":5}}`)
	if a != b {
		t.Error("expected equal inputs to fingerprint equally")
	}
	if a == c {
		t.Error("expected different inputs to fingerprint differently")
	}

	if rec := do(t, s, postJSON("/api/nodes/Nope/fingerprint", `{}`)); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown node, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, "secret")

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", rec.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/nodes", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/nodes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/nodes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}

	if rec := do(t, s, uploadRequest(t, "a.txt", "x")); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected upload to require auth, got %d", rec.Code)
	}
}

func TestPDFInfo_Errors(t *testing.T) {
	s, store := newTestServer(t, "")
	if _, err := store.Save(context.Background(), "bad.pdf", strings.NewReader("not a pdf")); err != nil {
		t.Fatal(err)
	}

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/pdf/info", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without path, got %d", rec.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/pdf/info?path=none.pdf", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing file, got %d", rec.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/pdf/info?path=bad.pdf", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unreadable pdf, got %d", rec.Code)
	}
	if rec := do(t, s, postJSON("/api/pdf/trim", `{"pages":"1"}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for trim without path, got %d", rec.Code)
	}
}

func saveFixture(t *testing.T, store *inputdir.Store, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "three-pages.pdf"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if _, err := store.Save(context.Background(), name, bytes.NewReader(data)); err != nil {
		t.Fatal(err)
	}
}

func TestPDFInfo(t *testing.T) {
	s, store := newTestServer(t, "")
	saveFixture(t, store, "doc.pdf")

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/pdf/info?path=doc.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Pages int `json:"pages"`
	}
	decodeBody(t, rec, &body)
	if body.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", body.Pages)
	}
}

func TestPDFTrim_Body(t *testing.T) {
	s, store := newTestServer(t, "")
	saveFixture(t, store, "doc.pdf")

	rec := do(t, s, postJSON("/api/pdf/trim", `{"path":"doc.pdf","pages":"1, 3, 9"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	n, err := raster.CountPages(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("count trimmed pdf: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 pages, got %d", n)
	}
}

func TestPDFTrim_SaveAs(t *testing.T) {
	s, store := newTestServer(t, "")
	saveFixture(t, store, "doc.pdf")

	rec := do(t, s, postJSON("/api/pdf/trim", `{"path":"doc.pdf","pages":"2","save_as":"page2.pdf"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Name  string `json:"name"`
		Pages int    `json:"pages"`
	}
	decodeBody(t, rec, &body)
	if body.Name != "page2.pdf" || body.Pages != 1 {
		t.Errorf("unexpected response: %+v", body)
	}

	data, err := store.Read(context.Background(), "page2.pdf")
	if err != nil {
		t.Fatalf("expected trimmed file in input dir: %v", err)
	}
	n, err := raster.CountPages(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("count saved pdf: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}

	rec = do(t, s, postJSON("/api/pdf/trim", `{"path":"doc.pdf","pages":"7"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 when no listed page exists, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":       "report.pdf",
		"../../etc/passwd": "passwd",
		`C:\docs\file.txt`: "file.txt",
		"":                 "unnamed",
		"a..b.txt":         "a_b.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(io.EOF); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown errors, got %d", got)
	}
	if got := statusFor(raster.ErrInvalidDPI); got != http.StatusBadRequest {
		t.Errorf("expected 400 for dpi errors, got %d", got)
	}
}
