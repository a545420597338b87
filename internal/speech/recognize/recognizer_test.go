package recognize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

// session is one driver listen stream the test feeds by hand.
type session struct {
	ch   chan Event
	once sync.Once
}

func (s *session) emit(ev Event) { s.ch <- ev }
func (s *session) end()          { s.once.Do(func() { close(s.ch) }) }

type driverStub struct {
	mu        sync.Mutex
	available bool
	listenErr error
	sessions  []*session
	langs     []string
}

func newDriverStub() *driverStub { return &driverStub{available: true} }

func (d *driverStub) Available() bool { return d.available }

func (d *driverStub) Listen(ctx context.Context, language string) (<-chan Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listenErr != nil {
		return nil, d.listenErr
	}
	s := &session{ch: make(chan Event, 16)}
	d.sessions = append(d.sessions, s)
	d.langs = append(d.langs, language)
	go func() {
		<-ctx.Done()
		s.end()
	}()
	return s.ch, nil
}

func (d *driverStub) sessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *driverStub) session(i int) *session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[i]
}

func (d *driverStub) languages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.langs))
	copy(out, d.langs)
	return out
}

type actionLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *actionLog) add(entry string) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *actionLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func controlsLogging(log *actionLog) Controls {
	return Controls{
		Navigate:       func(target string) { log.add("navigate:" + target) },
		StartReading:   func() { log.add("start") },
		PauseReading:   func() { log.add("pause") },
		ResumeReading:  func() { log.add("resume") },
		StopReading:    func() { log.add("stop") },
		UploadDocument: func() { log.add("upload") },
		ShowNews:       func(category string) { log.add("news:" + category) },
		SwitchLanguage: func(tag string) { log.add("lang:" + tag) },
		Help:           func([]string) { log.add("help") },
	}
}

func newTestRecognizer(t *testing.T, driver Driver, log *actionLog) *Recognizer {
	t.Helper()
	r := NewRecognizer(driver, "en-US", 5*time.Millisecond, nil)
	r.Init(context.Background())
	t.Cleanup(r.Dispose)
	if log != nil {
		r.UseBuiltins(controlsLogging(log))
	}
	return r
}

func TestFinalTranscriptDispatchesFirstMatch(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "first session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "Go to home."})
	waitFor(t, "navigate dispatch", func() bool { return len(log.snapshot()) == 1 })

	if got := log.snapshot(); got[0] != "navigate:home" {
		t.Fatalf("dispatched %v, want navigate:home", got)
	}
}

func TestNavigateAliasesCollapse(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)
	r.Start()
	waitFor(t, "session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "go to main"})
	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "go to trending news"})
	waitFor(t, "both dispatches", func() bool { return len(log.snapshot()) == 2 })

	got := log.snapshot()
	if got[0] != "navigate:home" || got[1] != "navigate:news" {
		t.Fatalf("dispatched %v", got)
	}
}

func TestInterimIsNeverDispatched(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)
	r.Start()
	waitFor(t, "session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventInterim, Transcript: "pause"})
	waitFor(t, "interim visible", func() bool { return r.Interim() == "pause" })
	if len(log.snapshot()) != 0 {
		t.Fatalf("interim transcript dispatched: %v", log.snapshot())
	}

	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "pause"})
	waitFor(t, "final dispatch", func() bool { return len(log.snapshot()) == 1 })
	if r.Interim() != "" {
		t.Fatalf("interim not cleared after final: %q", r.Interim())
	}
}

func TestUnmatchedTranscriptDoesNothing(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)
	r.Start()
	waitFor(t, "session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "the weather is nice today"})
	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "help"})
	waitFor(t, "help dispatch", func() bool { return len(log.snapshot()) == 1 })

	if got := log.snapshot(); got[0] != "help" {
		t.Fatalf("dispatched %v, want only help", got)
	}
}

func TestBuiltinsWinOverUserCommands(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)

	userCmd, err := NewCommand("shadow-pause", `pause`, func(string) { log.add("user-pause") })
	if err != nil {
		t.Fatalf("NewCommand() error = %v", err)
	}
	r.RegisterCommands(userCmd)

	r.Start()
	waitFor(t, "session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "pause"})
	waitFor(t, "dispatch", func() bool { return len(log.snapshot()) == 1 })

	if got := log.snapshot(); got[0] != "pause" {
		t.Fatalf("user command shadowed a builtin: %v", got)
	}
}

func TestUserCommandsMatchAfterBuiltins(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)

	userCmd, _ := NewPhraseCommand("open-library", "open my library", func(string) { log.add("library") })
	r.RegisterCommands(userCmd)

	r.Start()
	waitFor(t, "session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "open my library"})
	waitFor(t, "dispatch", func() bool { return len(log.snapshot()) == 1 })

	if got := log.snapshot(); got[0] != "library" {
		t.Fatalf("dispatched %v, want library", got)
	}
}

func TestSessionExpiryReopensListen(t *testing.T) {
	driver := newDriverStub()
	r := newTestRecognizer(t, driver, &actionLog{})
	r.Start()
	waitFor(t, "first session", func() bool { return driver.sessionCount() == 1 })

	// Platform recognizers silently expire continuous sessions; the
	// recognizer must reopen without user involvement.
	driver.session(0).end()
	waitFor(t, "reopened session", func() bool { return driver.sessionCount() == 2 })

	if !r.Listening() {
		t.Fatal("recognizer stopped listening across session expiry")
	}
}

func TestUserStopSuppressesRestart(t *testing.T) {
	driver := newDriverStub()
	r := newTestRecognizer(t, driver, &actionLog{})
	r.Start()
	waitFor(t, "first session", func() bool { return driver.sessionCount() == 1 })

	r.Stop()
	if r.Listening() {
		t.Fatal("still listening after Stop()")
	}

	time.Sleep(30 * time.Millisecond)
	if got := driver.sessionCount(); got != 1 {
		t.Fatalf("session reopened after user stop: %d sessions", got)
	}
}

func TestToggleFlipsListening(t *testing.T) {
	driver := newDriverStub()
	r := newTestRecognizer(t, driver, &actionLog{})

	if err := r.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !r.Listening() {
		t.Fatal("not listening after first toggle")
	}
	r.Toggle()
	if r.Listening() {
		t.Fatal("still listening after second toggle")
	}
}

func TestSetLanguageRestartsActiveSession(t *testing.T) {
	driver := newDriverStub()
	r := newTestRecognizer(t, driver, &actionLog{})
	r.Start()
	waitFor(t, "first session", func() bool { return driver.sessionCount() == 1 })

	if err := r.SetLanguage("de-DE"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	waitFor(t, "restarted session", func() bool { return driver.sessionCount() == 2 })

	langs := driver.languages()
	if langs[0] != "en-US" || langs[1] != "de-DE" {
		t.Fatalf("session languages = %v", langs)
	}
	if !r.Listening() {
		t.Fatal("not listening after language switch")
	}
}

func TestSetLanguageIdleOnlyStoresTag(t *testing.T) {
	driver := newDriverStub()
	r := newTestRecognizer(t, driver, &actionLog{})

	if err := r.SetLanguage("fr-FR"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	if driver.sessionCount() != 0 {
		t.Fatal("idle language switch opened a session")
	}
	if r.Language() != "fr-FR" {
		t.Fatalf("Language() = %q", r.Language())
	}
}

func TestStartWithoutDriverFailsUnsupported(t *testing.T) {
	r := NewRecognizer(nil, "en-US", 0, nil)
	if err := r.Start(); !domain.IsKind(err, domain.ErrUnsupportedPlatform) {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}

	unavailable := newDriverStub()
	unavailable.available = false
	r2 := NewRecognizer(unavailable, "en-US", 0, nil)
	if err := r2.Start(); !domain.IsKind(err, domain.ErrUnsupportedPlatform) {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}
}

func TestListenFailureLandsInErr(t *testing.T) {
	driver := newDriverStub()
	driver.listenErr = errors.New("microphone access denied")
	r := newTestRecognizer(t, driver, &actionLog{})

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "recorded error", func() bool { return r.Err() != "" })

	if r.Listening() {
		t.Fatal("still listening after session failure")
	}
	if r.Err() != "microphone access denied" {
		t.Fatalf("Err() = %q", r.Err())
	}
}

func TestErrorEventRecordedWithoutStoppingDispatch(t *testing.T) {
	driver := newDriverStub()
	log := &actionLog{}
	r := newTestRecognizer(t, driver, log)
	r.Start()
	waitFor(t, "session", func() bool { return driver.sessionCount() == 1 })

	driver.session(0).emit(Event{Kind: EventError, Err: errors.New("no-speech")})
	driver.session(0).emit(Event{Kind: EventFinal, Transcript: "help"})
	waitFor(t, "dispatch after error", func() bool { return len(log.snapshot()) == 1 })

	if r.Err() != "no-speech" {
		t.Fatalf("Err() = %q", r.Err())
	}
}
