package playback

import (
	"context"
	"strings"
	"time"
)

// Voice is one entry of the platform voice catalog.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// VoiceSource exposes the platform catalog. The catalog loads
// asynchronously and may be empty for a while after startup; the engine
// never blocks playback on it.
type VoiceSource interface {
	Voices(ctx context.Context) ([]Voice, error)
}

// qualityMarkers flag voices that platforms name as their better tier.
var qualityMarkers = []string{"premium", "enhanced", "neural"}

// RefreshVoices replaces the engine's catalog snapshot.
func (e *Engine) RefreshVoices(ctx context.Context) error {
	if e.voices == nil {
		return nil
	}
	voices, err := e.voices.Voices(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.catalog = voices
	e.mu.Unlock()
	return nil
}

// Catalog returns the current snapshot.
func (e *Engine) Catalog() []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Voice, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// resolveVoiceLocked picks a voice for the next unit. Preference order:
// explicitly chosen id, then quality-marked voices, then any voice
// matching the session language, then whatever exists. An empty catalog
// yields the empty id and the driver speaks with its default voice; the
// preference re-resolves lazily on later units once the catalog has
// loaded. Callers hold e.mu.
func (e *Engine) resolveVoiceLocked() string {
	if len(e.catalog) == 0 && e.voices != nil {
		// Lazy refresh without holding playback hostage.
		e.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		voices, err := e.voices.Voices(ctx)
		cancel()
		e.mu.Lock()
		if err == nil && len(e.catalog) == 0 {
			e.catalog = voices
		}
	}
	return selectVoice(e.catalog, e.params.VoiceID, e.params.Language)
}

func selectVoice(catalog []Voice, voiceID, language string) string {
	if len(catalog) == 0 {
		return ""
	}
	if voiceID != "" {
		for _, v := range catalog {
			if v.ID == voiceID {
				return v.ID
			}
		}
	}
	for _, v := range catalog {
		if hasQualityMarker(v.Name) && matchesLanguage(v.Language, language) {
			return v.ID
		}
	}
	for _, v := range catalog {
		if hasQualityMarker(v.Name) {
			return v.ID
		}
	}
	for _, v := range catalog {
		if matchesLanguage(v.Language, language) {
			return v.ID
		}
	}
	return catalog[0].ID
}

func hasQualityMarker(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range qualityMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// matchesLanguage compares primary language subtags, so "en-GB" voices
// satisfy an "en-US" request.
func matchesLanguage(voiceTag, wantTag string) bool {
	if voiceTag == "" || wantTag == "" {
		return false
	}
	return strings.EqualFold(primarySubtag(voiceTag), primarySubtag(wantTag))
}

func primarySubtag(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return tag[:i]
	}
	return tag
}
