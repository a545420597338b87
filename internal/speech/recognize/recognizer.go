// Package recognize turns a continuous speech-recognition stream into
// dispatched voice commands. The recognizer owns the listen loop: it
// restarts the underlying driver when a session ends on its own, keeps
// interim transcripts for display only, and matches final transcripts
// against an ordered command table.
package recognize

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

type EventKind string

const (
	EventInterim EventKind = "interim"
	EventFinal   EventKind = "final"
	EventError   EventKind = "error"
)

// Event is one recognition result from the driver stream.
type Event struct {
	Kind       EventKind
	Transcript string
	Err        error
}

// Driver is the platform recognition capability. Listen opens a
// continuous session in the given language; the returned channel closes
// when the session ends, whether by cancellation or on its own.
type Driver interface {
	Available() bool
	Listen(ctx context.Context, language string) (<-chan Event, error)
}

type Recognizer struct {
	driver      Driver
	logger      *slog.Logger
	settleDelay time.Duration

	mu          sync.Mutex
	rootCtx     context.Context
	rootStop    context.CancelFunc
	listening   bool
	userStopped bool
	epoch       uint64
	language    string
	interim     string
	lastErr     string
	builtins    []Command
	commands    []Command
	cancel      context.CancelFunc
}

func NewRecognizer(driver Driver, language string, settleDelay time.Duration, logger *slog.Logger) *Recognizer {
	if language == "" {
		language = "en-US"
	}
	if settleDelay <= 0 {
		settleDelay = 300 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{
		driver:      driver,
		logger:      logger,
		settleDelay: settleDelay,
		language:    language,
	}
}

// Init binds the recognizer to its owner's lifetime.
func (r *Recognizer) Init(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rootCtx, r.rootStop = context.WithCancel(ctx)
}

// Dispose stops listening and releases the recognizer.
func (r *Recognizer) Dispose() {
	r.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rootStop != nil {
		r.rootStop()
	}
}

// UseBuiltins installs the built-in command set bound to the given
// controls. Built-ins always match before registered user commands,
// regardless of registration order.
func (r *Recognizer) UseBuiltins(c Controls) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins = builtinCommands(c, r.Descriptions)
}

// Descriptions lists the help text of every command that carries one,
// built-ins first.
func (r *Recognizer) Descriptions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, cmd := range r.builtins {
		if cmd.Description != "" {
			out = append(out, cmd.Description)
		}
	}
	for _, cmd := range r.commands {
		if cmd.Description != "" {
			out = append(out, cmd.Description)
		}
	}
	return out
}

// RegisterCommands appends user commands to the dispatch table. They
// match after the built-ins, in registration order.
func (r *Recognizer) RegisterCommands(cmds ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmds...)
}

func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

// Interim returns the latest non-final transcript. Display only; interim
// text is never dispatched as a command.
func (r *Recognizer) Interim() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interim
}

// Err returns the last recognition error message, cleared on Start.
func (r *Recognizer) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Recognizer) Language() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.language
}

// Start begins continuous listening. Listen-session failures after a
// successful start land in Err rather than failing the caller.
func (r *Recognizer) Start() error {
	if r.driver == nil || !r.driver.Available() {
		return domain.WrapError(domain.ErrUnsupportedPlatform, "start recognition", errors.New("no recognition driver"))
	}

	r.mu.Lock()
	if r.listening {
		r.mu.Unlock()
		return nil
	}
	r.epoch++
	epoch := r.epoch
	r.listening = true
	r.userStopped = false
	r.interim = ""
	r.lastErr = ""
	lang := r.language

	base := r.rootCtx
	if base == nil {
		base = context.Background()
	}
	sessionCtx, cancel := context.WithCancel(base)
	r.cancel = cancel
	r.mu.Unlock()

	go r.listenLoop(sessionCtx, epoch, lang)
	return nil
}

// Stop ends listening and suppresses the auto-restart. Safe to call in
// any state.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Recognizer) stopLocked() {
	r.userStopped = true
	r.epoch++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.listening = false
	r.interim = ""
}

// Toggle flips listening on or off.
func (r *Recognizer) Toggle() error {
	if r.Listening() {
		r.Stop()
		return nil
	}
	return r.Start()
}

// SetLanguage switches the recognition language. An active session is
// stopped first and restarted after a settle delay, giving the platform
// recognizer time to release the audio capture.
func (r *Recognizer) SetLanguage(tag string) error {
	if tag == "" {
		return domain.WrapError(domain.ErrInvalidInput, "set recognition language", errors.New("empty language tag"))
	}

	r.mu.Lock()
	wasListening := r.listening
	r.language = tag
	if wasListening {
		r.stopLocked()
	}
	delay := r.settleDelay
	r.mu.Unlock()

	if !wasListening {
		return nil
	}
	time.Sleep(delay)
	return r.Start()
}

// listenLoop drives one logical listening session across any number of
// driver sessions. A driver session that closes without a user stop is
// reopened, preserving continuous listening through the platform's
// silent session expiry.
func (r *Recognizer) listenLoop(ctx context.Context, epoch uint64, lang string) {
	for {
		events, err := r.driver.Listen(ctx, lang)
		if err != nil {
			r.recordListenError(epoch, err)
			return
		}

		for ev := range events {
			r.handleEvent(epoch, ev)
		}

		r.mu.Lock()
		if r.epoch != epoch || r.userStopped {
			r.mu.Unlock()
			return
		}
		r.interim = ""
		r.mu.Unlock()
		// session expired on its own, reopen
	}
}

func (r *Recognizer) handleEvent(epoch uint64, ev Event) {
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return
	}
	switch ev.Kind {
	case EventInterim:
		r.interim = ev.Transcript
		r.mu.Unlock()
	case EventFinal:
		r.interim = ""
		cmds := make([]Command, 0, len(r.builtins)+len(r.commands))
		cmds = append(cmds, r.builtins...)
		cmds = append(cmds, r.commands...)
		r.mu.Unlock()
		r.dispatch(cmds, ev.Transcript)
	case EventError:
		if ev.Err != nil {
			r.lastErr = ev.Err.Error()
			r.logger.Warn("recognition error", "error", ev.Err)
		}
		r.mu.Unlock()
	default:
		r.mu.Unlock()
	}
}

func (r *Recognizer) recordListenError(epoch uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return
	}
	r.lastErr = err.Error()
	r.listening = false
	r.logger.Error("recognition session failed", "error", err)
}

// dispatch matches a final transcript against the command table in
// order; the first matching command runs and the rest are skipped.
// Unmatched transcripts are dropped silently.
func (r *Recognizer) dispatch(cmds []Command, transcript string) {
	normalized := normalizeTranscript(transcript)
	if normalized == "" {
		return
	}
	for _, cmd := range cmds {
		if param, ok := cmd.match(normalized); ok {
			r.logger.Info("voice command", "command", cmd.Name, "transcript", normalized)
			cmd.run(param)
			return
		}
	}
	r.logger.Debug("unmatched transcript", "transcript", normalized)
}
