package streamhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/speech/recognize"
)

func TestListenStreamsEvents(t *testing.T) {
	var capturedLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req listenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedLang = req.Language

		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte(`{"kind":"interim","transcript":"go to"}` + "\n"))
		flusher.Flush()
		_, _ = w.Write([]byte(`{"kind":"final","transcript":"go to home"}` + "\n"))
		flusher.Flush()
	}))
	defer server.Close()

	events, err := New(server.URL).Listen(context.Background(), "en-US")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	var got []recognize.Event
	for ev := range events {
		got = append(got, ev)
	}
	if capturedLang != "en-US" {
		t.Fatalf("language = %q", capturedLang)
	}
	if len(got) != 2 {
		t.Fatalf("events = %+v", got)
	}
	if got[0].Kind != recognize.EventInterim || got[0].Transcript != "go to" {
		t.Fatalf("first event = %+v", got[0])
	}
	if got[1].Kind != recognize.EventFinal || got[1].Transcript != "go to home" {
		t.Fatalf("second event = %+v", got[1])
	}
}

func TestListenForbiddenIsDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no mic for you", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := New(server.URL).Listen(context.Background(), "en-US")
	if !domain.IsKind(err, domain.ErrRecognitionDenied) {
		t.Fatalf("expected denied error, got %v", err)
	}
}

func TestListenServerErrorIsServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL).Listen(context.Background(), "en-US")
	if !domain.IsKind(err, domain.ErrRecognitionService) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestListenSkipsGarbledLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all\n"))
		_, _ = w.Write([]byte(`{"kind":"final","transcript":"help"}` + "\n"))
	}))
	defer server.Close()

	events, err := New(server.URL).Listen(context.Background(), "en-US")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	var got []recognize.Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0].Transcript != "help" {
		t.Fatalf("events = %+v", got)
	}
}

func TestCancelClosesStream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := New(server.URL).Listen(ctx, "en-US")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	cancel()
	select {
	case _, open := <-events:
		if open {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after cancel")
	}
}
