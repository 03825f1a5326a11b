package phonemizer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultPunctuation is the set of marks removed before and after phonemization.
const DefaultPunctuation = ";:,.!?¡¿—…“”"

var (
	ErrEmptyInput    = errors.New("nothing to phonemize")
	ErrEngine        = errors.New("phoneme engine failed")
	ErrInvalidLocale = errors.New("invalid phonemizer locale")
)

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)

// Engine is an external text-to-phoneme backend. Implementations must be pure:
// equal input yields byte-identical output.
type Engine interface {
	Name() string
	Phonemize(ctx context.Context, text, language string) (string, error)
}

// Checker is implemented by engines that can verify a locale at startup.
type Checker interface {
	Check(ctx context.Context, language string) error
}

type Config struct {
	Language    string
	Punctuation string
}

type Phonemizer struct {
	engine      Engine
	language    string
	punctuation map[rune]struct{}
}

func New(engine Engine, cfg Config) (*Phonemizer, error) {
	language := strings.ToLower(strings.TrimSpace(cfg.Language))
	if !localePattern.MatchString(language) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocale, cfg.Language)
	}
	punct := cfg.Punctuation
	if punct == "" {
		punct = DefaultPunctuation
	}
	set := make(map[rune]struct{}, len(punct))
	for _, r := range punct {
		set[r] = struct{}{}
	}
	return &Phonemizer{engine: engine, language: language, punctuation: set}, nil
}

// Check lets the engine reject the configured locale before the first run.
func (p *Phonemizer) Check(ctx context.Context) error {
	c, ok := p.engine.(Checker)
	if !ok {
		return nil
	}
	if err := c.Check(ctx, p.language); err != nil {
		return fmt.Errorf("%w: %s does not support %s: %v", ErrInvalidLocale, p.engine.Name(), p.language, err)
	}
	return nil
}

func (p *Phonemizer) Language() string {
	return p.language
}

func (p *Phonemizer) EngineName() string {
	return p.engine.Name()
}

// Phonemize strips the configured punctuation, sends the remaining words to the
// engine and normalizes the returned IPA to single-space-separated words.
func (p *Phonemizer) Phonemize(ctx context.Context, text string) (string, error) {
	cleaned := p.Strip(text)
	if cleaned == "" {
		return "", ErrEmptyInput
	}
	ipa, err := p.engine.Phonemize(ctx, cleaned, p.language)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEngine, p.engine.Name(), err)
	}
	ipa = p.Strip(ipa)
	if ipa == "" {
		return "", fmt.Errorf("%w: %s returned no phonemes", ErrEngine, p.engine.Name())
	}
	return ipa, nil
}

// Strip replaces punctuation marks with spaces and collapses whitespace.
func (p *Phonemizer) Strip(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if _, ok := p.punctuation[r]; ok {
			return ' '
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
