package recognize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

// packFile is the on-disk command pack shape:
//
//	commands:
//	  - name: open-library
//	    phrase: "open my library"
//	    action: navigate
//	    argument: home
//	  - name: read-category
//	    pattern: "read (\\w+) news"
//	    action: show_news
//
// Each entry carries either a phrase (substring match) or a pattern
// (regexp). Actions reference the same controls the built-ins use.
// Argument fixes the action's parameter; when omitted, the pattern's
// first capture group is used instead.
type packFile struct {
	Commands []packCommand `yaml:"commands"`
}

type packCommand struct {
	Name        string `yaml:"name"`
	Phrase      string `yaml:"phrase"`
	Pattern     string `yaml:"pattern"`
	Action      string `yaml:"action"`
	Argument    string `yaml:"argument"`
	Description string `yaml:"description"`
}

// LoadPack reads a YAML command pack and binds its entries to the given
// controls. The returned commands dispatch after the built-ins.
func LoadPack(path string, c Controls) ([]Command, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read command pack", err)
	}
	return ParsePack(raw, c)
}

// ParsePack binds serialized pack bytes to controls.
func ParsePack(raw []byte, c Controls) ([]Command, error) {
	var pack packFile
	if err := yaml.Unmarshal(raw, &pack); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse command pack", err)
	}

	cmds := make([]Command, 0, len(pack.Commands))
	for i, pc := range pack.Commands {
		if pc.Name == "" {
			pc.Name = fmt.Sprintf("pack-%d", i)
		}
		act, err := bindAction(pc, c)
		if err != nil {
			return nil, err
		}

		var cmd Command
		switch {
		case pc.Phrase != "" && pc.Pattern != "":
			return nil, domain.WrapError(domain.ErrInvalidInput, "bind command "+pc.Name,
				fmt.Errorf("phrase and pattern are mutually exclusive"))
		case pc.Phrase != "":
			cmd, err = NewPhraseCommand(pc.Name, pc.Phrase, act)
		case pc.Pattern != "":
			cmd, err = NewCommand(pc.Name, pc.Pattern, act)
		default:
			return nil, domain.WrapError(domain.ErrInvalidInput, "bind command "+pc.Name,
				fmt.Errorf("phrase or pattern required"))
		}
		if err != nil {
			return nil, err
		}
		cmd.Description = pc.Description
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func bindAction(pc packCommand, c Controls) (func(string), error) {
	argOf := func(param string) string {
		if pc.Argument != "" {
			return pc.Argument
		}
		return param
	}
	fire := func(fn func()) func(string) {
		return func(string) {
			if fn != nil {
				fn()
			}
		}
	}

	switch pc.Action {
	case "navigate":
		return func(param string) {
			if c.Navigate != nil {
				c.Navigate(argOf(param))
			}
		}, nil
	case "start_reading":
		return fire(c.StartReading), nil
	case "pause_reading":
		return fire(c.PauseReading), nil
	case "resume_reading":
		return fire(c.ResumeReading), nil
	case "stop_reading":
		return fire(c.StopReading), nil
	case "upload_document":
		return fire(c.UploadDocument), nil
	case "show_news":
		return func(param string) {
			if c.ShowNews != nil {
				c.ShowNews(argOf(param))
			}
		}, nil
	case "switch_language":
		return func(param string) {
			if c.SwitchLanguage != nil {
				c.SwitchLanguage(argOf(param))
			}
		}, nil
	case "help":
		return func(string) {
			if c.Help != nil {
				c.Help(nil)
			}
		}, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "bind command "+pc.Name,
			fmt.Errorf("unknown action %q", pc.Action))
	}
}
