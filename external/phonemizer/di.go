package phonemizer

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/foxseedlab/hatsuon/internal/phonemizer"
	"github.com/samber/do/v2"
)

const engineCheckTimeout = 10 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*phonemizer.Phonemizer, error) {
		c := do.MustInvoke[*config.Config](i)
		p, err := phonemizer.New(newEngine(c), phonemizer.Config{
			Language:    c.PhonemizerLanguage,
			Punctuation: c.PhonemizerPunctuation,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), engineCheckTimeout)
		defer cancel()
		if err := p.Check(ctx); err != nil {
			return nil, fmt.Errorf("phonemizer startup check failed: %w", err)
		}
		return p, nil
	})
}

func newEngine(c *config.Config) phonemizer.Engine {
	if c.PhonemizerEngine == config.PhonemizerEngineGoruut {
		return NewGoruutEngine()
	}
	return NewEspeakEngine(c.EspeakBinary)
}
