package discord

import "context"

type OptionType string

const (
	OptionString     OptionType = "string"
	OptionBoolean    OptionType = "boolean"
	OptionAttachment OptionType = "attachment"
)

type CommandOption struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	Options     []CommandOption
}

type Attachment struct {
	ID          string
	Filename    string
	ContentType string
	URL         string
	Size        int
}

// FollowupMessage is posted after a deferred response. FileBody is optional.
type FollowupMessage struct {
	Content         string
	Filename        string
	FileContentType string
	FileBody        []byte
}

type SlashCommandEvent struct {
	GuildID     string
	ChannelID   string
	CommandName string
	UserID      string
	Strings     map[string]string
	Bools       map[string]bool
	Attachments map[string]Attachment

	RespondEphemeral func(content string) error
	// Defer acknowledges the interaction so a slow run can answer later.
	Defer    func() error
	Followup func(msg FollowupMessage) error
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	DownloadAttachment(ctx context.Context, a Attachment, maxBytes int) ([]byte, error)
	GetBotUserID() (string, error)
	Run() error
}
