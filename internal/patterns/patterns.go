// Package patterns holds the ordered extraction pattern sets for each supported
// document language. Pattern sets are YAML data: the default set is embedded and a
// replacement file can be loaded at start-up.
package patterns

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Language is a document language tag
type Language string

const (
	German  Language = "de"
	English Language = "en"
)

// ErrUnsupportedLanguage is returned for a language tag with no pattern set
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseLanguage normalizes a tag and checks it against the default library
func ParseLanguage(tag string) (Language, error) {
	return Default().ParseLanguage(tag)
}

// Rule maps one pattern to one invoice field. FirstMatchWins selects the first
// occurrence of the pattern in the text; when false the last occurrence is taken.
type Rule struct {
	Field          string
	Pattern        *regexp.Regexp
	FirstMatchWins bool
}

// Find applies the rule to text and returns the last non-empty capture group of
// the selected occurrence, trimmed
func (r Rule) Find(text string) (string, bool) {
	var match []string
	if r.FirstMatchWins {
		match = r.Pattern.FindStringSubmatch(text)
	} else {
		all := r.Pattern.FindAllStringSubmatch(text, -1)
		if len(all) > 0 {
			match = all[len(all)-1]
		}
	}
	if match == nil {
		return "", false
	}
	for i := len(match) - 1; i >= 1; i-- {
		if v := strings.TrimSpace(match[i]); v != "" {
			return v, true
		}
	}
	return "", false
}

// Library is a read-only set of ordered rules per language
type Library struct {
	sets map[Language][]Rule
}

type fileFormat struct {
	Languages map[string]languageFormat `yaml:"languages"`
}

type languageFormat struct {
	Fallback string       `yaml:"fallback"`
	Rules    []ruleFormat `yaml:"rules"`
}

type ruleFormat struct {
	Field          string `yaml:"field"`
	Pattern        string `yaml:"pattern"`
	FirstMatchWins *bool  `yaml:"first_match_wins"`
}

var defaultLibrary = sync.OnceValue(func() *Library {
	lib, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded pattern library: %v", err))
	}
	return lib
})

// Default returns the embedded pattern library
func Default() *Library {
	return defaultLibrary()
}

// Load reads a pattern library from a YAML file
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}
	lib, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lib, nil
}

// Parse compiles a YAML pattern library. Every pattern is matched case-insensitively.
// A language with a fallback gets the fallback's rules appended after its own.
func Parse(data []byte) (*Library, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if len(f.Languages) == 0 {
		return nil, errors.New("no languages defined")
	}

	own := make(map[Language][]Rule, len(f.Languages))
	for tag, lf := range f.Languages {
		rules := make([]Rule, 0, len(lf.Rules))
		for i, rf := range lf.Rules {
			if rf.Field == "" {
				return nil, fmt.Errorf("%s rule %d: missing field", tag, i)
			}
			re, err := regexp.Compile("(?i)" + rf.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%s rule %d (%s): %w", tag, i, rf.Field, err)
			}
			first := true
			if rf.FirstMatchWins != nil {
				first = *rf.FirstMatchWins
			}
			rules = append(rules, Rule{Field: rf.Field, Pattern: re, FirstMatchWins: first})
		}
		own[Language(tag)] = rules
	}

	sets := make(map[Language][]Rule, len(own))
	for tag, lf := range f.Languages {
		lang := Language(tag)
		rules := append([]Rule(nil), own[lang]...)
		if lf.Fallback != "" && Language(lf.Fallback) != lang {
			fallback, ok := own[Language(lf.Fallback)]
			if !ok {
				return nil, fmt.Errorf("%s: unknown fallback language %q", tag, lf.Fallback)
			}
			rules = append(rules, fallback...)
		}
		sets[lang] = rules
	}

	return &Library{sets: sets}, nil
}

// Lookup returns the ordered rules for lang
func (l *Library) Lookup(lang Language) ([]Rule, error) {
	rules, ok := l.sets[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(lang))
	}
	return rules, nil
}

// ParseLanguage normalizes a tag and checks that the library has rules for it
func (l *Library) ParseLanguage(tag string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(tag)))
	if _, err := l.Lookup(lang); err != nil {
		return "", err
	}
	return lang, nil
}

// Languages lists the supported tags in sorted order
func (l *Library) Languages() []Language {
	langs := make([]Language, 0, len(l.sets))
	for lang := range l.sets {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
