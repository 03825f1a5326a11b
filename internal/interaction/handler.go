package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/discord"
	"github.com/foxseedlab/hatsuon/internal/pipeline"
	"golang.org/x/time/rate"
)

type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Run, error)
	Busy() bool
}

type Handler struct {
	guildID       string
	maxInputBytes int
	runner        Runner
	discord       discord.Client
	limiter       *rate.Limiter
}

type Option func(*Handler)

// WithCommandRate caps accepted conversions per minute across the guild.
// Zero or a negative value leaves commands unthrottled.
func WithCommandRate(perMin int) Option {
	return func(h *Handler) {
		if perMin <= 0 {
			h.limiter = nil
			return
		}
		h.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
	}
}

func NewHandler(guildID string, maxInputBytes int, runner Runner, dc discord.Client, opts ...Option) *Handler {
	h := &Handler{
		guildID:       guildID,
		maxInputBytes: maxInputBytes,
		runner:        runner,
		discord:       dc,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{
			Name:        commandIPA,
			Description: commandIPADescription,
			Options: []discord.CommandOption{
				{Name: optionSentence, Description: optionSentenceDescription, Type: discord.OptionString},
				{Name: optionVoice, Description: optionVoiceDescription, Type: discord.OptionAttachment},
				{Name: optionSpeak, Description: optionSpeakDescription, Type: discord.OptionBoolean},
			},
		},
	}
}

func (h *Handler) HandleSlashCommand(event discord.SlashCommandEvent) {
	log := slog.With("command", event.CommandName, "guild_id", event.GuildID, "user_id", event.UserID)
	if event.GuildID != h.guildID {
		log.Info("ignoring command for different guild", "configured_guild_id", h.guildID)
		h.respondEphemeral(event, messageEphemeralWrongGuild, log)
		return
	}
	if event.CommandName != commandIPA {
		h.respondEphemeral(event, messageEphemeralUnknownCommand, log)
		return
	}

	voice, hasVoice := event.Attachments[optionVoice]
	sentence := event.Strings[optionSentence]
	if !hasVoice && sentence == "" {
		h.respondEphemeral(event, pipeline.Message(pipeline.KindInputMissing), log)
		return
	}
	if h.runner.Busy() {
		h.respondEphemeral(event, pipeline.MessageBusy, log)
		return
	}
	if h.limiter != nil && !h.limiter.Allow() {
		log.Info("conversion throttled")
		h.respondEphemeral(event, messageEphemeralRateLimited, log)
		return
	}
	if err := event.Defer(); err != nil {
		log.Error("failed to defer interaction", "error", err)
		return
	}

	ctx := context.Background()
	in := pipeline.TextInput(sentence)
	if hasVoice {
		data, err := h.discord.DownloadAttachment(ctx, voice, h.maxInputBytes)
		if err != nil {
			log.Warn("voice attachment download failed", "error", err, "filename", voice.Filename)
			h.followup(event, discord.FollowupMessage{Content: messageDownloadFailed}, log)
			return
		}
		in = pipeline.AudioInput(audio.Blob{Data: data, Format: attachmentFormat(voice)})
		in.Text = sentence
	}
	in.Source = "discord"
	if speak, ok := event.Bools[optionSpeak]; ok && !speak {
		in.SkipSynthesis = true
	}

	run, err := h.runner.Run(ctx, in)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		h.followup(event, discord.FollowupMessage{Content: pipeline.MessageBusy}, log)
		return
	case errors.Is(err, pipeline.ErrInputMissing):
		h.followup(event, discord.FollowupMessage{Content: pipeline.Message(pipeline.KindInputMissing)}, log)
		return
	case err != nil:
		log.Error("conversion could not start", "error", err)
		h.followup(event, discord.FollowupMessage{Content: pipeline.Message("")}, log)
		return
	}

	sink := &followupSink{event: event, content: pipeline.Summary(run)}
	if run.Synthesis != nil {
		if err := sink.Play(ctx, run.Synthesis.Audio); err != nil {
			log.Error("failed to post synthesized audio", "error", err, "run_id", run.ID)
		}
		return
	}
	h.followup(event, discord.FollowupMessage{Content: sink.content}, log)
}

func attachmentFormat(a discord.Attachment) audio.Format {
	if f := audio.FormatFromName(a.ContentType); f != audio.FormatUnknown {
		return f
	}
	return audio.FormatFromName(a.Filename)
}

func (h *Handler) respondEphemeral(event discord.SlashCommandEvent, content string, log *slog.Logger) {
	if err := event.RespondEphemeral(content); err != nil {
		log.Error("failed to respond to interaction", "error", err)
	}
}

func (h *Handler) followup(event discord.SlashCommandEvent, msg discord.FollowupMessage, log *slog.Logger) {
	if err := event.Followup(msg); err != nil {
		log.Error("failed to send followup", "error", err)
	}
}

// followupSink plays audio by attaching it to the deferred reply.
type followupSink struct {
	event   discord.SlashCommandEvent
	content string
}

func (s *followupSink) Play(_ context.Context, waveform audio.Blob) error {
	name := messageAudioFilename
	if ext := waveform.Format.Extension(); !strings.HasSuffix(name, ext) {
		name = strings.TrimSuffix(name, ".wav") + ext
	}
	return s.event.Followup(discord.FollowupMessage{
		Content:         s.content,
		Filename:        name,
		FileContentType: waveform.Format.ContentType(),
		FileBody:        waveform.Data,
	})
}
