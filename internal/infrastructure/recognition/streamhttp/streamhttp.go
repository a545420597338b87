// Package streamhttp adapts an ASR sidecar's NDJSON event stream to the
// recognizer's driver interface. One /listen request is one recognition
// session; the sidecar ends the stream when its engine gives up, and
// the recognizer decides whether to reopen.
package streamhttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/speech/recognize"
)

type Driver struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Driver {
	return &Driver{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Sessions stay open for as long as the user keeps listening.
		httpClient: &http.Client{},
	}
}

func (d *Driver) Available() bool {
	return d != nil && d.baseURL != ""
}

type listenRequest struct {
	Language string `json:"language"`
}

// wireEvent is one NDJSON line from the sidecar.
type wireEvent struct {
	Kind       string `json:"kind"`
	Transcript string `json:"transcript"`
	Error      string `json:"error"`
}

// Listen opens a recognition session. The returned channel closes when
// the stream ends; a closed stream without a cancel is the sidecar's
// natural session expiry.
func (d *Driver) Listen(ctx context.Context, language string) (<-chan recognize.Event, error) {
	body, err := json.Marshal(listenRequest{Language: language})
	if err != nil {
		return nil, fmt.Errorf("marshal listen request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/listen", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create listen request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRecognitionService, "open recognition stream", err)
	}
	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, domain.WrapError(domain.ErrRecognitionDenied, "open recognition stream",
			errors.New("microphone access denied"))
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, domain.WrapError(domain.ErrRecognitionService, "open recognition stream",
			fmt.Errorf("asr listen status: %s: %s", resp.Status, strings.TrimSpace(string(raw))))
	}

	events := make(chan recognize.Event)
	go d.stream(ctx, resp.Body, events)
	return events, nil
}

func (d *Driver) stream(ctx context.Context, body io.ReadCloser, events chan<- recognize.Event) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var wire wireEvent
		if err := json.Unmarshal(line, &wire); err != nil {
			// One garbled line is not worth ending the session over.
			continue
		}

		ev := toEvent(wire)
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
	// Scanner errors from a cancelled request are the expected way a
	// session ends; anything else surfaces as an error event.
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		select {
		case events <- recognize.Event{Kind: recognize.EventError, Err: err}:
		case <-ctx.Done():
		}
	}
}

func toEvent(wire wireEvent) recognize.Event {
	switch wire.Kind {
	case "interim":
		return recognize.Event{Kind: recognize.EventInterim, Transcript: wire.Transcript}
	case "final":
		return recognize.Event{Kind: recognize.EventFinal, Transcript: wire.Transcript}
	case "error":
		return recognize.Event{Kind: recognize.EventError, Err: errors.New(wire.Error)}
	default:
		return recognize.Event{Kind: recognize.EventError, Err: fmt.Errorf("unknown event kind %q", wire.Kind)}
	}
}
