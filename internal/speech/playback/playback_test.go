package playback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/speech/speechtext"
)

// driverFake records spoken utterances. When gated, each Speak blocks
// until step() is called, letting tests interleave engine calls with
// unit completions deterministically.
type driverFake struct {
	mu        sync.Mutex
	available bool
	gated     bool
	gate      chan struct{}
	spoken    []Utterance
	failUnits map[int]error
	paused    int
	resumed   int
	cancelled int
}

func newDriverFake() *driverFake {
	return &driverFake{available: true, gate: make(chan struct{})}
}

func (d *driverFake) Available() bool { return d.available }

func (d *driverFake) Speak(ctx context.Context, u Utterance) error {
	d.mu.Lock()
	index := len(d.spoken)
	d.spoken = append(d.spoken, u)
	gated := d.gated
	d.mu.Unlock()

	if gated {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	err := d.failUnits[index]
	d.mu.Unlock()
	return err
}

func (d *driverFake) step() { d.gate <- struct{}{} }

func (d *driverFake) Pause() error  { d.mu.Lock(); d.paused++; d.mu.Unlock(); return nil }
func (d *driverFake) Resume() error { d.mu.Lock(); d.resumed++; d.mu.Unlock(); return nil }
func (d *driverFake) Cancel() error { d.mu.Lock(); d.cancelled++; d.mu.Unlock(); return nil }

func (d *driverFake) utterances() []Utterance {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Utterance, len(d.spoken))
	copy(out, d.spoken)
	return out
}

type voiceSourceFake struct {
	voices []Voice
	err    error
}

func (v *voiceSourceFake) Voices(context.Context) ([]Voice, error) {
	return v.voices, v.err
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func waitForState(t *testing.T, e *Engine, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, still %s", want, e.State())
}

func waitForUnits(t *testing.T, d *driverFake, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(d.utterances()) >= want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d dispatched units, have %d", want, len(d.utterances()))
}

func newTestEngine(driver SynthesisDriver, voices VoiceSource, chunk int) *Engine {
	e := NewEngine(driver, voices, chunk, nil)
	e.Init(context.Background())
	return e
}

func TestPlayShortTextSingleUnitAndTransitionPair(t *testing.T) {
	driver := newDriverFake()
	recorder := &stateRecorder{}
	e := newTestEngine(driver, nil, 200)
	defer e.Dispose()
	e.SetStateObserver(recorder.record)

	if err := e.Play("short text.", Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForState(t, e, StateIdle)

	if got := len(driver.utterances()); got != 1 {
		t.Fatalf("expected exactly 1 unit, got %d", got)
	}
	states := recorder.snapshot()
	if len(states) != 2 || states[0] != StateSpeaking || states[1] != StateIdle {
		t.Fatalf("expected one speaking/idle pair, got %v", states)
	}
	if e.Cursor() != NoCursor {
		t.Fatalf("cursor not reset after completion: %d", e.Cursor())
	}
}

func TestPlayConcatenationEqualsPreparedText(t *testing.T) {
	driver := newDriverFake()
	e := newTestEngine(driver, nil, 30)
	defer e.Dispose()

	text := "Alpha beta gamma delta. Epsilon zeta eta theta iota! Kappa lambda mu nu xi omicron."
	if err := e.Play(text, Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForState(t, e, StateIdle)

	var parts []string
	for _, u := range driver.utterances() {
		parts = append(parts, u.Text)
	}
	joined := strings.Join(parts, " ")
	want := speechtext.ExpandForSpeech(text)
	if joined != want {
		t.Fatalf("dispatched units %q != prepared text %q", joined, want)
	}
}

func TestStopDuringSpeakingIgnoresLateCompletion(t *testing.T) {
	driver := newDriverFake()
	driver.gated = true
	recorder := &stateRecorder{}
	e := newTestEngine(driver, nil, 20)
	defer e.Dispose()
	e.SetStateObserver(recorder.record)

	text := "First sentence here now. Second sentence here now. Third sentence here now."
	if err := e.Play(text, Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForUnits(t, driver, 1)

	// A user stop races the first unit's completion callback.
	e.Stop()
	if e.State() != StateIdle {
		t.Fatalf("state after Stop() = %s, want idle", e.State())
	}
	if e.Cursor() != NoCursor {
		t.Fatalf("cursor after Stop() = %d, want sentinel", e.Cursor())
	}

	// Give the cancelled loop a moment; no stale completion may
	// transition state back to speaking or dispatch further units.
	time.Sleep(30 * time.Millisecond)
	if e.State() != StateIdle {
		t.Fatalf("late completion changed state to %s", e.State())
	}
	speakingCount := 0
	for _, s := range recorder.snapshot() {
		if s == StateSpeaking {
			speakingCount++
		}
	}
	if speakingCount != 1 {
		t.Fatalf("stale completion re-entered speaking: %d notifications", speakingCount)
	}
	if got := len(driver.utterances()); got != 1 {
		t.Fatalf("units dispatched after stop: got %d, want 1", got)
	}
}

func TestPauseResumeKeepsUnit(t *testing.T) {
	driver := newDriverFake()
	driver.gated = true
	e := newTestEngine(driver, nil, 20)
	defer e.Dispose()

	if err := e.Play("one two three four five six seven eight nine ten.", Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForUnits(t, driver, 1)
	unitsBefore := len(driver.utterances())

	e.Pause()
	if e.State() != StatePaused {
		t.Fatalf("state after Pause() = %s", e.State())
	}
	e.Resume()
	if e.State() != StateSpeaking {
		t.Fatalf("state after Resume() = %s", e.State())
	}
	if driver.paused != 1 || driver.resumed != 1 {
		t.Fatalf("driver pause/resume calls = %d/%d", driver.paused, driver.resumed)
	}
	// The suspended unit was neither skipped nor re-dispatched.
	if got := len(driver.utterances()); got != unitsBefore {
		t.Fatalf("pause/resume re-dispatched units: %d -> %d", unitsBefore, got)
	}
	e.Stop()
}

func TestPauseOutsideSpeakingIsNoOp(t *testing.T) {
	driver := newDriverFake()
	e := newTestEngine(driver, nil, 200)
	defer e.Dispose()

	e.Pause()
	e.Resume()
	if driver.paused != 0 || driver.resumed != 0 {
		t.Fatalf("driver called from idle: pause=%d resume=%d", driver.paused, driver.resumed)
	}
}

func TestUnitErrorIsSkippedNotFatal(t *testing.T) {
	driver := newDriverFake()
	driver.failUnits = map[int]error{1: errors.New("synthesis blew up")}
	e := newTestEngine(driver, nil, 25)
	defer e.Dispose()

	text := "Sentence number one here. Sentence number two here. Sentence number three here."
	if err := e.Play(text, Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForState(t, e, StateIdle)

	if got := len(driver.utterances()); got != 3 {
		t.Fatalf("expected all 3 units attempted despite unit error, got %d", got)
	}
}

func TestPlayWithoutDriverFailsUnsupported(t *testing.T) {
	e := NewEngine(nil, nil, 200, nil)
	err := e.Play("anything", Params{})
	if !domain.IsKind(err, domain.ErrUnsupportedPlatform) {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}

	unavailable := newDriverFake()
	unavailable.available = false
	e2 := NewEngine(unavailable, nil, 200, nil)
	if err := e2.Play("anything", Params{}); !domain.IsKind(err, domain.ErrUnsupportedPlatform) {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}
}

func TestPlaySucceedsWithoutMatchingVoice(t *testing.T) {
	driver := newDriverFake()
	voices := &voiceSourceFake{voices: []Voice{{ID: "fr-1", Name: "Amelie", Language: "fr-FR"}}}
	e := newTestEngine(driver, voices, 200)
	defer e.Dispose()

	if err := e.Play("hello there.", Params{Rate: 1, Pitch: 1, Language: "en-US"}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForState(t, e, StateIdle)

	uts := driver.utterances()
	if len(uts) != 1 || uts[0].VoiceID != "fr-1" {
		t.Fatalf("expected fallback voice fr-1, got %+v", uts)
	}
}

func TestPlayToleratesEmptyCatalog(t *testing.T) {
	driver := newDriverFake()
	voices := &voiceSourceFake{err: errors.New("catalog not ready")}
	e := newTestEngine(driver, voices, 200)
	defer e.Dispose()

	if err := e.Play("hello there.", Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForState(t, e, StateIdle)

	uts := driver.utterances()
	if len(uts) != 1 || uts[0].VoiceID != "" {
		t.Fatalf("expected default voice on empty catalog, got %+v", uts)
	}
}

func TestSetRateRestartsFromTop(t *testing.T) {
	driver := newDriverFake()
	driver.gated = true
	e := newTestEngine(driver, nil, 20)
	defer e.Dispose()

	text := "First sentence over here. Second sentence over here."
	if err := e.Play(text, Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForUnits(t, driver, 1)
	first := driver.utterances()[0].Text

	e.SetRate(1.5)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		uts := driver.utterances()
		if len(uts) >= 2 {
			if uts[1].Text != first {
				t.Fatalf("restart did not begin from the top: %q then %q", first, uts[1].Text)
			}
			if uts[1].Rate != 1.5 {
				t.Fatalf("restarted unit rate = %v, want 1.5", uts[1].Rate)
			}
			e.Stop()
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("restarted session never dispatched a unit")
}

func TestPlayEmptyTextRejected(t *testing.T) {
	driver := newDriverFake()
	e := newTestEngine(driver, nil, 200)
	defer e.Dispose()

	err := e.Play("   ", Params{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestUnitCountMatchesChunking(t *testing.T) {
	driver := newDriverFake()
	e := newTestEngine(driver, nil, 30)
	defer e.Dispose()

	text := "Alpha beta gamma delta words. Epsilon zeta eta theta words. Iota kappa lambda mu words."
	prepared := speechtext.ExpandForSpeech(text)
	want := len(speechtext.Chunk(prepared, 30))

	if err := e.Play(text, Params{Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitForState(t, e, StateIdle)

	if got := len(driver.utterances()); got != want {
		t.Fatalf("dispatched %d units, chunker produced %d", got, want)
	}
}
