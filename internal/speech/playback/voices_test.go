package playback

import "testing"

func TestSelectVoicePrecedence(t *testing.T) {
	catalog := []Voice{
		{ID: "de-basic", Name: "Hans", Language: "de-DE"},
		{ID: "en-basic", Name: "Daniel", Language: "en-GB"},
		{ID: "de-premium", Name: "Petra Premium", Language: "de-DE"},
		{ID: "en-neural", Name: "Ava Neural", Language: "en-US"},
	}

	tests := []struct {
		name     string
		voiceID  string
		language string
		want     string
	}{
		{"explicit id wins", "de-basic", "en-US", "de-basic"},
		{"unknown id falls through to quality match", "nope", "en-US", "en-neural"},
		{"quality voice in session language", "", "en-US", "en-neural"},
		{"quality voice in other language when none match", "", "fr-FR", "de-premium"},
		{"primary subtag satisfies regional variant", "", "de-AT", "de-premium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectVoice(catalog, tt.voiceID, tt.language); got != tt.want {
				t.Fatalf("selectVoice() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectVoiceNoQualityVoices(t *testing.T) {
	catalog := []Voice{
		{ID: "fr-1", Name: "Amelie", Language: "fr-FR"},
		{ID: "en-1", Name: "Daniel", Language: "en-GB"},
	}
	if got := selectVoice(catalog, "", "en-US"); got != "en-1" {
		t.Fatalf("selectVoice() = %q, want language match en-1", got)
	}
	if got := selectVoice(catalog, "", "ja-JP"); got != "fr-1" {
		t.Fatalf("selectVoice() = %q, want first catalog entry", got)
	}
}

func TestSelectVoiceEmptyCatalog(t *testing.T) {
	if got := selectVoice(nil, "any", "en-US"); got != "" {
		t.Fatalf("selectVoice() = %q, want empty id", got)
	}
}

func TestMatchesLanguage(t *testing.T) {
	if !matchesLanguage("en-GB", "en-US") {
		t.Fatal("en-GB should satisfy en-US")
	}
	if !matchesLanguage("en_GB", "EN-us") {
		t.Fatal("case and separator must not matter")
	}
	if matchesLanguage("de-DE", "en-US") {
		t.Fatal("de-DE must not satisfy en-US")
	}
	if matchesLanguage("", "en-US") || matchesLanguage("en-US", "") {
		t.Fatal("empty tags never match")
	}
}
