package discordtools

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
	"github.com/MrWong99/guildmcp/internal/platform"
	"github.com/MrWong99/guildmcp/internal/reqcontext"
)

// fakeClient is a minimal platform.Client double. Only the methods the
// tests in this package exercise return useful data; the rest panic if
// called, so an unexpected call fails loudly instead of silently.
type fakeClient struct {
	guild    *platform.Guild
	user     *platform.User
	member   *platform.Member
	roles    []*platform.Role
	channels []*platform.Channel
	messages []*platform.Message
	sent     *platform.Message

	err error
}

func (f *fakeClient) Login(ctx context.Context) error     { return nil }
func (f *fakeClient) Connect(ctx context.Context) error   { return nil }
func (f *fakeClient) WaitReady(ctx context.Context) error { return nil }
func (f *fakeClient) Close() error                        { return nil }

func (f *fakeClient) Guild(ctx context.Context, guildID string) (*platform.Guild, error) {
	return f.guild, f.err
}

func (f *fakeClient) Channel(ctx context.Context, channelID string) (*platform.Channel, error) {
	panic("not used by these tests")
}

func (f *fakeClient) User(ctx context.Context, userID string) (*platform.User, error) {
	return f.user, f.err
}

func (f *fakeClient) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	return f.member, f.err
}

func (f *fakeClient) Roles(ctx context.Context, guildID string) ([]*platform.Role, error) {
	return f.roles, f.err
}

func (f *fakeClient) Channels(ctx context.Context, guildID string) ([]*platform.Channel, error) {
	return f.channels, f.err
}

func (f *fakeClient) SendMessage(ctx context.Context, channelID, content string) (*platform.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = &platform.Message{ChannelID: channelID, Content: content}
	return f.sent, nil
}

func (f *fakeClient) Messages(ctx context.Context, channelID string, limit int) ([]*platform.Message, error) {
	return f.messages, f.err
}

// withClient wraps ctx in a [reqcontext.Context] backed by client, the
// way session.go does for a live request.
func withClient(ctx context.Context, client platform.Client) context.Context {
	rc := reqcontext.New(ctx, jsonrpc.ID{}, "test-session", nil, nil, nil, client)
	return reqcontext.Attach(rc, rc)
}

func TestListGuildChannels(t *testing.T) {
	client := &fakeClient{channels: []*platform.Channel{{ID: "1", Name: "general"}}}
	ctx := withClient(context.Background(), client)

	result, err := listGuildChannels(ctx, ListGuildChannelsArgs{GuildID: "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	channels, ok := result.([]*platform.Channel)
	if !ok || len(channels) != 1 || channels[0].Name != "general" {
		t.Errorf("unexpected result: %#v", result)
	}
}

func TestListGuildChannels_PlatformError(t *testing.T) {
	client := &fakeClient{err: errors.New("discord unavailable")}
	ctx := withClient(context.Background(), client)

	_, err := listGuildChannels(ctx, ListGuildChannelsArgs{GuildID: "g1"})
	if err == nil {
		t.Fatal("expected an error")
	}
	mcpErr, ok := mcperr.As(err)
	if !ok || mcpErr.Kind != mcperr.Internal {
		t.Errorf("expected mcperr.Internal, got %v", err)
	}
}

func TestListGuildChannels_OutsideRequest(t *testing.T) {
	_, err := listGuildChannels(context.Background(), ListGuildChannelsArgs{GuildID: "g1"})
	if err == nil {
		t.Fatal("expected an error when invoked outside a request")
	}
}

func TestGetMember(t *testing.T) {
	client := &fakeClient{member: &platform.Member{GuildID: "g1", Nick: "bob"}}
	ctx := withClient(context.Background(), client)

	result, err := getMember(ctx, GetMemberArgs{GuildID: "g1", UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	member, ok := result.(*platform.Member)
	if !ok || member.Nick != "bob" {
		t.Errorf("unexpected result: %#v", result)
	}
}

func TestSendMessage(t *testing.T) {
	client := &fakeClient{}
	ctx := withClient(context.Background(), client)

	result, err := sendMessage(ctx, SendMessageArgs{ChannelID: "c1", Content: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, ok := result.(*platform.Message)
	if !ok || msg.Content != "hello" {
		t.Errorf("unexpected result: %#v", result)
	}
	if client.sent == nil {
		t.Error("SendMessage was not called on the platform client")
	}
}

func TestListRecentMessages_DefaultsLimit(t *testing.T) {
	client := &fakeClient{messages: []*platform.Message{{ID: "m1"}}}
	ctx := withClient(context.Background(), client)

	result, err := listRecentMessages(ctx, ListRecentMessagesArgs{ChannelID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	messages, ok := result.([]*platform.Message)
	if !ok || len(messages) != 1 {
		t.Errorf("unexpected result: %#v", result)
	}
}

func TestReadGuild(t *testing.T) {
	client := &fakeClient{guild: &platform.Guild{ID: "g1", Name: "Test Guild"}}
	ctx := withClient(context.Background(), client)

	result, err := readGuild(ctx, GuildResourceArgs{GuildID: "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	guild, ok := result.(*platform.Guild)
	if !ok || guild.Name != "Test Guild" {
		t.Errorf("unexpected result: %#v", result)
	}
}

func TestReadGuild_NotFound(t *testing.T) {
	client := &fakeClient{err: errors.New("unknown guild")}
	ctx := withClient(context.Background(), client)

	_, err := readGuild(ctx, GuildResourceArgs{GuildID: "missing"})
	if err == nil {
		t.Fatal("expected an error")
	}
	mcpErr, ok := mcperr.As(err)
	if !ok || mcpErr.Kind != mcperr.ResourceReadError {
		t.Errorf("expected mcperr.ResourceReadError, got %v", err)
	}
}

func TestReadChannelMessages(t *testing.T) {
	client := &fakeClient{messages: []*platform.Message{{ID: "m1"}, {ID: "m2"}}}
	ctx := withClient(context.Background(), client)

	result, err := readChannelMessages(ctx, ChannelMessagesArgs{ChannelID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	messages, ok := result.([]*platform.Message)
	if !ok || len(messages) != 2 {
		t.Errorf("unexpected result: %#v", result)
	}
}

func TestSummarizeChannel_NoMessages(t *testing.T) {
	client := &fakeClient{}
	ctx := withClient(context.Background(), client)

	result, err := summarizeChannel(ctx, SummarizeChannelArgs{ChannelID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, ok := result.(string)
	if !ok || text == "" {
		t.Errorf("expected a non-empty placeholder summary, got %#v", result)
	}
}

func TestSummarizeChannel_BuildsTranscript(t *testing.T) {
	client := &fakeClient{messages: []*platform.Message{
		{AuthorID: "u2", Content: "second"},
		{AuthorID: "u1", Content: "first"},
	}}
	ctx := withClient(context.Background(), client)

	result, err := summarizeChannel(ctx, SummarizeChannelArgs{ChannelID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, ok := result.(string)
	if !ok {
		t.Fatalf("expected a string prompt, got %#v", result)
	}
	firstIdx := indexOf(text, "u1: first")
	secondIdx := indexOf(text, "u2: second")
	if firstIdx == -1 || secondIdx == -1 {
		t.Fatalf("transcript missing expected lines: %q", text)
	}
	if firstIdx > secondIdx {
		t.Error("transcript should be in chronological order, oldest first")
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestCompleteChannelID_NoGuildContext(t *testing.T) {
	client := &fakeClient{}
	ctx := withClient(context.Background(), client)

	values, err := completeChannelID(ctx, &manifest.Manifest{}, "g", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values != nil {
		t.Errorf("expected no suggestions without a guild_id, got %v", values)
	}
}

func TestCompleteChannelID_FiltersByPrefix(t *testing.T) {
	client := &fakeClient{channels: []*platform.Channel{
		{ID: "100", Name: "general"},
		{ID: "200", Name: "random"},
	}}
	ctx := withClient(context.Background(), client)

	values, err := completeChannelID(ctx, &manifest.Manifest{}, "gen", map[string]string{"guild_id": "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "100" {
		t.Errorf("unexpected matches: %v", values)
	}
}

func TestRegister_PopulatesAllManifestKinds(t *testing.T) {
	mgr := manifest.NewManager()
	New().Register(mgr)

	registry := manifest.NewRegistry()
	for _, m := range mgr.Drain() {
		if err := registry.Add(m); err != nil {
			t.Fatalf("registering %s: %v", m.Key(), err)
		}
	}

	wantTools := []string{"list_guild_channels", "list_guild_roles", "get_member", "send_message", "list_recent_messages"}
	for _, name := range wantTools {
		if _, ok := registry.Get(manifest.Tool, name); !ok {
			t.Errorf("tool %q not registered", name)
		}
	}

	wantResources := []string{"discord://guild/{guild_id}", "discord://user/{user_id}", "discord://channel/{channel_id}/messages"}
	for _, uri := range wantResources {
		if _, ok := registry.Get(manifest.Resource, uri); !ok {
			t.Errorf("resource %q not registered", uri)
		}
	}

	if _, ok := registry.Get(manifest.Prompt, "summarize_channel"); !ok {
		t.Error("prompt summarize_channel not registered")
	}

	sendMessageManifest, _ := registry.Get(manifest.Tool, "send_message")
	if sendMessageManifest.Cooldown == nil {
		t.Fatal("send_message should carry a cooldown config")
	}
	if sendMessageManifest.Cooldown.Rate != 1 {
		t.Errorf("send_message cooldown rate = %d, want 1", sendMessageManifest.Cooldown.Rate)
	}
}
