package interaction

import (
	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/foxseedlab/hatsuon/internal/discord"
	"github.com/foxseedlab/hatsuon/internal/pipeline"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		orch := do.MustInvoke[*pipeline.Orchestrator](i)
		dc := do.MustInvoke[discord.Client](i)
		return NewHandler(cfg.DiscordGuildID, cfg.MaxInputBytes, orch, dc, WithCommandRate(cfg.CommandRatePerMin)), nil
	})
}
