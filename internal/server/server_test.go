package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DreamCats/docqa/internal/pipeline"
)

type fakeAsker struct {
	trace *pipeline.Trace
	err   error
}

func (f *fakeAsker) Run(ctx context.Context, question string) (*pipeline.Trace, error) {
	return f.trace, f.err
}

func TestAskReturnsTrace(t *testing.T) {
	asker := &fakeAsker{trace: &pipeline.Trace{Plan: "single", Answer: "Paris. [CIT:paris.txt#0]"}}
	srv := httptest.NewServer(New(asker, "").Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ask", "application/json",
		strings.NewReader(`{"question": "What is the capital of France?"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Trace pipeline.Trace `json:"trace"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Trace.Answer != "Paris. [CIT:paris.txt#0]" {
		t.Errorf("answer = %q", body.Trace.Answer)
	}
}

func TestAskMissingQuestion(t *testing.T) {
	srv := httptest.NewServer(New(&fakeAsker{}, "").Handler())
	defer srv.Close()

	for _, payload := range []string{`{}`, `{"question": "  "}`, `not json`} {
		resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q: status = %d, want 400", payload, resp.StatusCode)
		}
	}
}

func TestAskPipelineFailure(t *testing.T) {
	asker := &fakeAsker{err: fmt.Errorf("embedding dimension mismatch")}
	srv := httptest.NewServer(New(asker, "").Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ask", "application/json",
		strings.NewReader(`{"question": "q"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Error, "dimension mismatch") {
		t.Errorf("error = %q, want the failure message", body.Error)
	}
}

func TestAskRejectsGet(t *testing.T) {
	srv := httptest.NewServer(New(&fakeAsker{}, "").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/ask")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestStaticServing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>ui</html>"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(New(&fakeAsker{}, dir).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/nope.js")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", missing.StatusCode)
	}
}
