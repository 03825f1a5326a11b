package discord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/hatsuon/internal/discord"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSession(t *testing.T, rt roundTripFunc) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if rt != nil {
		s.Client = &http.Client{Transport: rt}
	}
	return s
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestEventFromInteraction_CopiesOptions(t *testing.T) {
	ic := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "ipa",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "sentence", Type: discordgo.ApplicationCommandOptionString, Value: "Good morning"},
				{Name: "speak", Type: discordgo.ApplicationCommandOptionBoolean, Value: false},
				{Name: "voice", Type: discordgo.ApplicationCommandOptionAttachment, Value: "att-1"},
			},
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Attachments: map[string]*discordgo.MessageAttachment{
					"att-1": {ID: "att-1", Filename: "voice-message.ogg", ContentType: "audio/ogg", URL: "https://cdn.example/voice.ogg", Size: 1234},
				},
			},
		},
	}}

	event, ok := eventFromInteraction(ic)
	if !ok {
		t.Fatal("expected interaction to be accepted")
	}
	if event.CommandName != "ipa" || event.UserID != "user-1" || event.GuildID != "guild-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Strings["sentence"] != "Good morning" {
		t.Fatalf("unexpected sentence: %q", event.Strings["sentence"])
	}
	if speak, ok := event.Bools["speak"]; !ok || speak {
		t.Fatalf("unexpected speak option: %v %v", speak, ok)
	}
	a := event.Attachments["voice"]
	if a.Filename != "voice-message.ogg" || a.Size != 1234 || a.URL == "" {
		t.Fatalf("unexpected attachment: %+v", a)
	}
}

func TestEventFromInteraction_IgnoresNonCommands(t *testing.T) {
	if _, ok := eventFromInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}}); ok {
		t.Fatal("ping must be ignored")
	}
	if _, ok := eventFromInteraction(nil); ok {
		t.Fatal("nil must be ignored")
	}
}

func TestUpsertGuildSlashCommands_CreatesMissingCommand(t *testing.T) {
	var created discordgo.ApplicationCommand
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(req.URL.Path, "/applications/app-1/guilds/guild-1/commands") {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		switch req.Method {
		case http.MethodGet:
			return jsonResponse(http.StatusOK, `[]`), nil
		case http.MethodPost:
			if err := json.NewDecoder(req.Body).Decode(&created); err != nil {
				t.Errorf("decode command: %v", err)
			}
			return jsonResponse(http.StatusCreated, `{"id":"cmd-1","name":"ipa"}`), nil
		}
		t.Errorf("unexpected method: %s", req.Method)
		return jsonResponse(http.StatusMethodNotAllowed, `{}`), nil
	})
	s.State.User = &discordgo.User{ID: "app-1"}

	c := &Client{session: s}
	defs := []discordpkg.SlashCommandDefinition{{
		Name:        "ipa",
		Description: "Convert a sentence to IPA",
		Options: []discordpkg.CommandOption{
			{Name: "sentence", Description: "text", Type: discordpkg.OptionString},
			{Name: "voice", Description: "audio", Type: discordpkg.OptionAttachment},
		},
	}}
	if err := c.UpsertGuildSlashCommands("guild-1", defs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "ipa" || len(created.Options) != 2 || created.Options[1].Type != discordgo.ApplicationCommandOptionAttachment {
		t.Fatalf("unexpected created command: %+v", created)
	}
}

func TestUpsertGuildSlashCommands_SkipsUnchangedCommand(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Errorf("unexpected write: %s %s", req.Method, req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `[{"id":"cmd-1","name":"ipa","description":"d","options":[{"type":3,"name":"sentence","description":"text"}]}]`), nil
	})
	s.State.User = &discordgo.User{ID: "app-1"}

	c := &Client{session: s}
	defs := []discordpkg.SlashCommandDefinition{{
		Name:        "ipa",
		Description: "d",
		Options:     []discordpkg.CommandOption{{Name: "sentence", Description: "text", Type: discordpkg.OptionString}},
	}}
	if err := c.UpsertGuildSlashCommands("guild-1", defs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDownloadAttachment(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("OggS-audio")),
			Header:     make(http.Header),
		}, nil
	})
	c := &Client{session: s}

	body, err := c.DownloadAttachment(context.Background(), discordpkg.Attachment{URL: "https://cdn.example/a.ogg", Size: 10}, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "OggS-audio" {
		t.Fatalf("unexpected body: %q", body)
	}

	_, err = c.DownloadAttachment(context.Background(), discordpkg.Attachment{URL: "https://cdn.example/a.ogg", Size: 10}, 4)
	if !errors.Is(err, ErrAttachmentTooLarge) {
		t.Fatalf("expected ErrAttachmentTooLarge from declared size, got %v", err)
	}
	_, err = c.DownloadAttachment(context.Background(), discordpkg.Attachment{URL: "https://cdn.example/a.ogg"}, 4)
	if !errors.Is(err, ErrAttachmentTooLarge) {
		t.Fatalf("expected ErrAttachmentTooLarge from body length, got %v", err)
	}
}
