package recognize

import (
	"errors"
	"regexp"
	"strings"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

// Command pairs a transcript matcher with an action. Matchers are
// either a literal phrase (substring match) or a regexp; the first
// capture group, when present, becomes the action's parameter.
type Command struct {
	Name        string
	Description string

	phrase string
	re     *regexp.Regexp
	act    func(param string)
}

// NewCommand compiles an unanchored case-insensitive regexp command.
// Spoken commands arrive embedded in longer utterances, so patterns
// match anywhere in the transcript.
func NewCommand(name, pattern string, act func(param string)) (Command, error) {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return Command{}, domain.WrapError(domain.ErrInvalidInput, "compile command "+name, err)
	}
	if act == nil {
		return Command{}, domain.WrapError(domain.ErrInvalidInput, "compile command "+name, errors.New("nil action"))
	}
	return Command{Name: name, re: re, act: act}, nil
}

// NewPhraseCommand matches when the transcript contains the phrase.
func NewPhraseCommand(name, phrase string, act func(param string)) (Command, error) {
	if strings.TrimSpace(phrase) == "" {
		return Command{}, domain.WrapError(domain.ErrInvalidInput, "compile command "+name, errors.New("empty phrase"))
	}
	if act == nil {
		return Command{}, domain.WrapError(domain.ErrInvalidInput, "compile command "+name, errors.New("nil action"))
	}
	return Command{Name: name, phrase: strings.ToLower(phrase), act: act}, nil
}

func mustCommand(name, description, pattern string, act func(param string)) Command {
	cmd, err := NewCommand(name, pattern, act)
	if err != nil {
		panic(err)
	}
	cmd.Description = description
	return cmd
}

func (c Command) match(transcript string) (string, bool) {
	if c.phrase != "" {
		if strings.Contains(transcript, c.phrase) {
			return "", true
		}
		return "", false
	}
	m := c.re.FindStringSubmatch(transcript)
	if m == nil {
		return "", false
	}
	if len(m) > 1 && m[1] != "" {
		return m[1], true
	}
	return m[0], true
}

func (c Command) run(param string) {
	c.act(param)
}

func normalizeTranscript(transcript string) string {
	transcript = strings.ToLower(strings.TrimSpace(transcript))
	transcript = strings.TrimRight(transcript, ".!?,")
	return strings.Join(strings.Fields(transcript), " ")
}

// Controls are the application actions the built-in commands drive. Nil
// callbacks make the corresponding commands no-ops.
type Controls struct {
	Navigate       func(target string)
	StartReading   func()
	PauseReading   func()
	ResumeReading  func()
	StopReading    func()
	UploadDocument func()
	ShowNews       func(category string)
	SwitchLanguage func(tag string)
	Help           func(descriptions []string)
}

// languageTags maps spoken language names to recognition tags.
var languageTags = map[string]string{
	"english":    "en-US",
	"spanish":    "es-ES",
	"french":     "fr-FR",
	"german":     "de-DE",
	"italian":    "it-IT",
	"portuguese": "pt-BR",
	"russian":    "ru-RU",
	"chinese":    "zh-CN",
	"japanese":   "ja-JP",
	"hindi":      "hi-IN",
}

var tagRe = regexp.MustCompile(`^[a-z]{2}[-_][a-z]{2}$`)

// builtinCommands is the fixed dispatch table. Order matters: "stop
// reading" and "pause reading" must be tried before the bare "pause",
// and specific phrasings come before looser ones.
func builtinCommands(c Controls, describe func() []string) []Command {
	call := func(fn func()) func(string) {
		return func(string) {
			if fn != nil {
				fn()
			}
		}
	}

	return []Command{
		mustCommand("navigate", `Navigate to pages, e.g. "go to home"`,
			`\bgo to (home|main|trending news|news)\b`, func(target string) {
				if c.Navigate == nil {
					return
				}
				switch target {
				case "main":
					target = "home"
				case "trending news":
					target = "news"
				}
				c.Navigate(target)
			}),
		mustCommand("start-reading", "Start reading the document",
			`\b(?:start|begin|play) reading\b`, call(c.StartReading)),
		mustCommand("stop-reading", "Stop reading",
			`\bstop reading\b`, call(c.StopReading)),
		mustCommand("pause", "Pause reading",
			`\bpause\b`, call(c.PauseReading)),
		mustCommand("resume", "Resume reading",
			`\b(?:resume|continue)\b`, call(c.ResumeReading)),
		mustCommand("upload", "Open file upload",
			`\bupload (?:a )?(?:document|file|pdf)\b`, call(c.UploadDocument)),
		mustCommand("show-news", `Show a news category, e.g. "show sports news"`,
			`\bshow (\w+) news\b`, func(category string) {
				if c.ShowNews != nil {
					c.ShowNews(category)
				}
			}),
		mustCommand("switch-language", `Switch recognition language, e.g. "switch language to spanish"`,
			`\bswitch language to ([a-z]+(?:[-_][a-z]+)?)`, func(name string) {
				if c.SwitchLanguage == nil {
					return
				}
				if tag, ok := languageTags[name]; ok {
					c.SwitchLanguage(tag)
					return
				}
				if tagRe.MatchString(name) {
					c.SwitchLanguage(canonicalTag(name))
				}
			}),
		mustCommand("help", "List available voice commands",
			`\bhelp\b`, func(string) {
				if c.Help != nil {
					c.Help(describe())
				}
			}),
	}
}

// canonicalTag turns "en-us" or "en_us" into "en-US".
func canonicalTag(raw string) string {
	raw = strings.ReplaceAll(raw, "_", "-")
	parts := strings.SplitN(raw, "-", 2)
	return parts[0] + "-" + strings.ToUpper(parts[1])
}
