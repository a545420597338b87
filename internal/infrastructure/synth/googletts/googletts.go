// Package googletts drives a TTS sidecar over HTTP. The sidecar renders
// one utterance per /speak call and plays it to completion before
// responding, which is exactly the blocking contract the playback
// engine wants from a driver.
package googletts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voicepaper/voicepaper/internal/speech/playback"
)

type Driver struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Driver {
	return &Driver{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: /speak blocks for the length of the
		// utterance and is bounded by the request context instead.
		httpClient: &http.Client{},
	}
}

func (d *Driver) Available() bool {
	return d != nil && d.baseURL != ""
}

type speakRequest struct {
	Text         string  `json:"text"`
	LanguageCode string  `json:"languageCode"`
	VoiceName    string  `json:"voiceName,omitempty"`
	Pitch        float64 `json:"pitch"`
	SpeakingRate float64 `json:"speakingRate"`
}

// Speak renders and plays one utterance, returning when the sidecar
// reports completion.
func (d *Driver) Speak(ctx context.Context, u playback.Utterance) error {
	request := speakRequest{
		Text:         u.Text,
		LanguageCode: u.Language,
		VoiceName:    u.VoiceID,
		Pitch:        u.Pitch,
		SpeakingRate: u.Rate,
	}
	return d.post(ctx, "/speak", request)
}

func (d *Driver) Pause() error {
	return d.post(context.Background(), "/pause", nil)
}

func (d *Driver) Resume() error {
	return d.post(context.Background(), "/resume", nil)
}

func (d *Driver) Cancel() error {
	return d.post(context.Background(), "/cancel", nil)
}

// Voices fetches the sidecar's voice catalog.
func (d *Driver) Voices(ctx context.Context) ([]playback.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("create voices request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts voices request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, httpError("voices", resp)
	}

	var payload struct {
		Voices []playback.Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode voices response: %w", err)
	}
	return payload.Voices, nil
}

func (d *Driver) post(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	// Control endpoints must not hang on a wedged sidecar.
	if payload == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return httpError(path, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func httpError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return fmt.Errorf("tts %s status: %s", operation, resp.Status)
	}
	return fmt.Errorf("tts %s status: %s: %s", operation, resp.Status, msg)
}
