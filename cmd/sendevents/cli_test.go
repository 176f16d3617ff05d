package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hstefan/energy-sensors/internal/auth"
)

const (
	testSecret = "test-secret-that-is-long-enough-123"
	goodLine   = "Foo:1;Bar:Baz=Qux"
)

// recorder is a fake API that records every request it sees.
type recorder struct {
	mu       sync.Mutex
	stores   []storedRequest
	failBody string
}

type storedRequest struct {
	contentType string
	auth        string
	body        string
}

func (rec *recorder) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /parse", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) == rec.failBody {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":400,"code":"parse_error","message":"bad telegram"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Foo":[1]}`))
	})
	mux.HandleFunc("POST /events", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) == rec.failBody {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.stores = append(rec.stores, storedRequest{
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        string(body),
		})
		rec.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func newRecorder(t *testing.T, failBody string) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{failBody: failBody}
	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)
	return rec, srv
}

func writeLines(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENERGYSENSORS_JWT_SECRET", "")
	t.Setenv("SENDEVENTS_TOKEN", "")

	var stdout, stderr bytes.Buffer
	exit := func(code int) {
		t.Fatalf("unexpected exit(%d): %s", code, stderr.String())
	}
	err := run(context.Background(), exit, &stdout, &stderr, args...)
	return stdout.String(), err
}

func TestReadLines(t *testing.T) {
	path := writeLines(t, "a:1\r\n\n   \nb:2\nc:3")

	lines, err := readLines(path)
	if err != nil {
		t.Fatalf("readLines() error = %v", err)
	}
	want := []Line{{1, "a:1"}, {4, "b:2"}, {5, "c:3"}}
	if len(lines) != len(want) {
		t.Fatalf("readLines() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}
}

func TestReadLines_Missing(t *testing.T) {
	if _, err := readLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("readLines() expected error for missing file")
	}
}

func TestStore(t *testing.T) {
	rec, srv := newRecorder(t, "")
	path := writeLines(t, goodLine+"\n"+goodLine+"\n\n"+goodLine+"\n")

	out, err := runCLI(t, "-c", "2", "store", srv.URL+"/events", path)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out, "sent 3 events, 0 failed") {
		t.Errorf("output = %q", out)
	}
	if len(rec.stores) != 3 {
		t.Fatalf("stores = %d, want 3", len(rec.stores))
	}
	for _, s := range rec.stores {
		if s.contentType != "text/plain" {
			t.Errorf("Content-Type = %q, want text/plain", s.contentType)
		}
		if s.body != goodLine {
			t.Errorf("body = %q, want %q", s.body, goodLine)
		}
		if s.auth != "" {
			t.Errorf("Authorization = %q, want none", s.auth)
		}
	}
}

func TestStore_Failures(t *testing.T) {
	rec, srv := newRecorder(t, "broken")
	path := writeLines(t, goodLine+"\nbroken\n")

	out, err := runCLI(t, "store", srv.URL+"/events", path)
	if !errors.Is(err, ErrFailures) {
		t.Fatalf("run() error = %v, want ErrFailures", err)
	}
	if !strings.Contains(out, "sent 1 events, 1 failed") {
		t.Errorf("output = %q", out)
	}
	if len(rec.stores) != 1 {
		t.Errorf("stores = %d, want 1", len(rec.stores))
	}
}

func TestStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	path := writeLines(t, goodLine+"\n")
	if _, err := runCLI(t, "store", url+"/events", path); !errors.Is(err, ErrFailures) {
		t.Errorf("run() error = %v, want ErrFailures", err)
	}
}

func TestStore_SignedToken(t *testing.T) {
	rec, srv := newRecorder(t, "")
	path := writeLines(t, goodLine+"\n")

	if _, err := runCLI(t, "--token-secret", testSecret, "--token-issuer", "tests",
		"store", srv.URL+"/events", path); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(rec.stores) != 1 {
		t.Fatalf("stores = %d, want 1", len(rec.stores))
	}

	header := rec.stores[0].auth
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		t.Fatalf("Authorization = %q, want Bearer token", header)
	}
	claims, err := auth.ParseToken(token, testSecret, "tests")
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != tokenSubject {
		t.Errorf("subject = %q, want %q", claims.Subject, tokenSubject)
	}
	if !claims.HasScope(auth.ScopeIngest) {
		t.Errorf("scope = %q, want %q", claims.Scope, auth.ScopeIngest)
	}
}

func TestStore_ExplicitToken(t *testing.T) {
	rec, srv := newRecorder(t, "")
	path := writeLines(t, goodLine+"\n")

	if _, err := runCLI(t, "--token", "abc", "store", srv.URL+"/events", path); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := rec.stores[0].auth; got != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer abc")
	}
}

func TestDistributed(t *testing.T) {
	rec, srv := newRecorder(t, "broken")
	path := writeLines(t, goodLine+"\nbroken\n"+goodLine+"\n")

	out, err := runCLI(t, "distributed", srv.URL+"/parse", srv.URL+"/events", path)
	if !errors.Is(err, ErrFailures) {
		t.Fatalf("run() error = %v, want ErrFailures", err)
	}
	if !strings.Contains(out, "sent 2 events, 1 failed") {
		t.Errorf("output = %q", out)
	}
	if len(rec.stores) != 2 {
		t.Fatalf("stores = %d, want 2", len(rec.stores))
	}
	for _, s := range rec.stores {
		if s.contentType != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", s.contentType)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(s.body), &doc); err != nil {
			t.Errorf("stored body is not JSON: %q", s.body)
		}
	}
}

func TestPost_ErrorMessage(t *testing.T) {
	_, srv := newRecorder(t, "broken")
	s := &Sender{client: srv.Client(), concurrency: 1}

	_, err := s.post(context.Background(), srv.URL+"/parse", "text/plain", []byte("broken"), false)
	if err == nil || !strings.Contains(err.Error(), "bad telegram") {
		t.Errorf("post() error = %v, want API message", err)
	}
}
