// Package playback reads long text aloud through a synthesis driver as a
// resumable, cancellable stream of bounded units. The engine is an
// explicitly constructed service object; the composition root owns its
// lifecycle and passes it to whatever needs playback control.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/speech/speechtext"
)

type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
	StatePaused   State = "paused"
	StateStopped  State = "stopped"
)

// NoCursor is the cursor sentinel while no session is active.
const NoCursor = -1

// Utterance is the driver's atomic speakable request.
type Utterance struct {
	Text     string
	Rate     float64
	Pitch    float64
	VoiceID  string
	Language string
}

// SynthesisDriver is the platform synthesis capability. Speak blocks
// until the unit has been fully rendered or fails; Pause and Resume
// suspend and continue the in-flight unit without losing position.
type SynthesisDriver interface {
	Available() bool
	Speak(ctx context.Context, u Utterance) error
	Pause() error
	Resume() error
	Cancel() error
}

// Params are the prosody settings for a session. Rate and pitch are
// clamped to [0.5, 2.0].
type Params struct {
	Rate     float64
	Pitch    float64
	VoiceID  string
	Language string
}

func (p Params) clamped() Params {
	p.Rate = clamp(p.Rate, 0.5, 2.0)
	p.Pitch = clamp(p.Pitch, 0.5, 2.0)
	if p.Language == "" {
		p.Language = "en-US"
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v == 0 {
		return 1.0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type Engine struct {
	driver     SynthesisDriver
	voices     VoiceSource
	chunkChars int
	logger     *slog.Logger

	mu        sync.Mutex
	rootCtx   context.Context
	rootStop  context.CancelFunc
	state     State
	epoch     uint64
	fullText  string
	units     []string
	unitIndex int
	cursor    int
	params    Params
	catalog   []Voice
	observer  func(State)
	cancel    context.CancelFunc
}

func NewEngine(driver SynthesisDriver, voices VoiceSource, chunkChars int, logger *slog.Logger) *Engine {
	if chunkChars <= 0 {
		chunkChars = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		driver:     driver,
		voices:     voices,
		chunkChars: chunkChars,
		logger:     logger,
		state:      StateIdle,
		cursor:     NoCursor,
		params:     Params{Rate: 1.0, Pitch: 1.0, Language: "en-US"},
	}
}

// Init binds the engine to its owner's lifetime. Sessions outlive the
// request that started them, so they derive from this context rather
// than the caller's.
func (e *Engine) Init(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rootCtx, e.rootStop = context.WithCancel(ctx)
}

// Dispose stops any active session and releases the engine.
func (e *Engine) Dispose() {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rootStop != nil {
		e.rootStop()
	}
}

// SetStateObserver registers the state-change callback. It is invoked
// synchronously from lifecycle points and must stay side-effect-light.
func (e *Engine) SetStateObserver(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cursor reports how many characters of the prepared text have been
// fully spoken, or NoCursor outside a session.
func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

func (e *Engine) UnitIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unitIndex
}

func (e *Engine) UnitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.units)
}

// Play tears down any prior session and starts reading text with the
// given parameters. It returns after the first unit has been issued to
// the speaking loop, not after the document finishes.
func (e *Engine) Play(text string, p Params) error {
	if e.driver == nil || !e.driver.Available() {
		return domain.WrapError(domain.ErrUnsupportedPlatform, "start playback", errors.New("no synthesis driver"))
	}

	prepared := speechtext.ExpandForSpeech(text)
	units := speechtext.Chunk(prepared, e.chunkChars)
	if len(units) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "start playback", errors.New("no speakable text"))
	}

	e.mu.Lock()
	e.teardownLocked()
	e.fullText = text
	e.units = units
	e.unitIndex = 0
	e.cursor = 0
	e.params = p.clamped()
	epoch := e.epoch

	base := e.rootCtx
	if base == nil {
		base = context.Background()
	}
	sessionCtx, cancel := context.WithCancel(base)
	e.cancel = cancel
	e.setStateLocked(StateSpeaking)
	e.mu.Unlock()

	go e.speakLoop(sessionCtx, epoch)
	return nil
}

// speakLoop issues units strictly in order, waiting for each completion
// before the next. The epoch check makes completions from a superseded
// session inert: a user stop that races a unit's end callback must win.
func (e *Engine) speakLoop(ctx context.Context, epoch uint64) {
	for {
		e.mu.Lock()
		if e.epoch != epoch {
			e.mu.Unlock()
			return
		}
		if e.unitIndex >= len(e.units) {
			e.cursor = NoCursor
			e.unitIndex = 0
			e.units = nil
			e.setStateLocked(StateIdle)
			e.mu.Unlock()
			return
		}
		unit := e.units[e.unitIndex]
		voiceID := e.resolveVoiceLocked()
		if e.epoch != epoch {
			// torn down while the catalog was refreshing
			e.mu.Unlock()
			return
		}
		u := Utterance{
			Text:     unit,
			Rate:     e.params.Rate,
			Pitch:    e.params.Pitch,
			VoiceID:  voiceID,
			Language: e.params.Language,
		}
		e.mu.Unlock()

		err := e.driver.Speak(ctx, u)

		e.mu.Lock()
		if e.epoch != epoch {
			// stale completion from a torn-down session
			e.mu.Unlock()
			return
		}
		if err != nil {
			// One bad unit must not kill the rest of the document:
			// log and advance past it.
			e.logger.Warn("unit synthesis error, skipping",
				"unit", e.unitIndex, "error", err)
		}
		e.cursor += utf8.RuneCountInString(unit)
		e.unitIndex++
		e.mu.Unlock()
	}
}

// Pause suspends the in-flight unit. No-op outside Speaking.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateSpeaking {
		return
	}
	if err := e.driver.Pause(); err != nil {
		e.logger.Warn("pause failed", "error", err)
		return
	}
	e.setStateLocked(StatePaused)
}

// Resume continues the suspended unit. No-op outside Paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return
	}
	if err := e.driver.Resume(); err != nil {
		e.logger.Warn("resume failed", "error", err)
		return
	}
	e.setStateLocked(StateSpeaking)
}

// Stop cancels the in-flight unit and lands in Idle. Safe to call in
// any state.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return
	}
	e.teardownLocked()
	e.setStateLocked(StateIdle)
}

// SkipToStart restarts the whole document with the current parameters.
// The engine does not seek to arbitrary positions.
func (e *Engine) SkipToStart() error {
	e.mu.Lock()
	text := e.fullText
	p := e.params
	e.mu.Unlock()
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "restart playback", errors.New("nothing was played"))
	}
	return e.Play(text, p)
}

// SetRate applies to the next session; an active session restarts from
// the top with the new rate.
func (e *Engine) SetRate(rate float64) {
	e.updateParams(func(p *Params) { p.Rate = clamp(rate, 0.5, 2.0) })
}

func (e *Engine) SetPitch(pitch float64) {
	e.updateParams(func(p *Params) { p.Pitch = clamp(pitch, 0.5, 2.0) })
}

func (e *Engine) SetVoice(voiceID string) {
	e.updateParams(func(p *Params) { p.VoiceID = voiceID })
}

// SetLanguage switches the session language; voice preference re-filters
// to catalog entries matching the new tag.
func (e *Engine) SetLanguage(tag string) {
	e.updateParams(func(p *Params) {
		p.Language = tag
		p.VoiceID = ""
	})
}

func (e *Engine) updateParams(apply func(*Params)) {
	e.mu.Lock()
	apply(&e.params)
	active := e.state == StateSpeaking || e.state == StatePaused
	text := e.fullText
	p := e.params
	e.mu.Unlock()

	if active && text != "" {
		// Parameter changes restart from the beginning, matching the
		// original product behavior.
		if err := e.Play(text, p); err != nil {
			e.logger.Warn("restart after parameter change failed", "error", err)
		}
	}
}

// teardownLocked invalidates the running session. Callers hold e.mu.
func (e *Engine) teardownLocked() {
	e.epoch++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.driver != nil {
		if err := e.driver.Cancel(); err != nil {
			e.logger.Warn("driver cancel failed", "error", err)
		}
	}
	e.cursor = NoCursor
	e.unitIndex = 0
	e.units = nil
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.state = s
	if e.observer != nil {
		e.observer(s)
	}
}
