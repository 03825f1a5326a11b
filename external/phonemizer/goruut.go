package phonemizer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/neurlang/goruut/lib"
	"github.com/neurlang/goruut/models/requests"
)

// goruutLanguages maps locale tags to goruut model names.
var goruutLanguages = map[string]string{
	"en":    "English",
	"en-gb": "EnglishBritish",
	"en-us": "EnglishAmerican",
}

// GoruutEngine runs the goruut models in-process. The model is loaded lazily
// on first use and shared afterwards; it holds no per-call state.
type GoruutEngine struct {
	once sync.Once
	p    *lib.Phonemizer
}

func NewGoruutEngine() *GoruutEngine {
	return &GoruutEngine{}
}

func (g *GoruutEngine) Name() string {
	return "goruut"
}

func (g *GoruutEngine) Phonemize(ctx context.Context, text, language string) (string, error) {
	model, ok := goruutLanguages[language]
	if !ok {
		return "", fmt.Errorf("goruut has no model for %s", language)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.once.Do(func() {
		g.p = lib.NewPhonemizer(nil)
	})
	resp := g.p.Sentence(requests.PhonemizeSentence{
		Language: model,
		Sentence: text,
	})
	words := make([]string, 0, len(resp.Words))
	for _, word := range resp.Words {
		if w := strings.TrimSpace(word.Phonetic); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " "), nil
}

func (g *GoruutEngine) Check(_ context.Context, language string) error {
	if _, ok := goruutLanguages[language]; !ok {
		return fmt.Errorf("goruut has no model for %s", language)
	}
	return nil
}
