package ack

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeSession struct {
	respondErr error
	types      []discordgo.InteractionResponseType
	channelErr error
	channel    []string
	responded  int
	edited     int
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, _ *discordgo.MessageEmbed) (*discordgo.Message, error) {
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	f.channel = append(f.channel, channelID)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.responded++
	f.types = append(f.types, resp.Type)
	return f.respondErr
}

func (f *fakeSession) InteractionResponseEdit(*discordgo.Interaction, *discordgo.WebhookEdit) (*discordgo.Message, error) {
	f.edited++
	return &discordgo.Message{}, f.respondErr
}

func newService(s Session) *Service {
	svc := New(s, zap.NewNop(), 0, "https://example.com/thumb.png")
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func TestEmbedHeader(t *testing.T) {
	embed := newService(&fakeSession{}).Embed("42", "Channel locked")
	want := "**Time:** <t:1700000000:T>\n**Executed by:** <@42>\nChannel locked"
	if embed.Description != want {
		t.Fatalf("unexpected description %q", embed.Description)
	}
	if embed.Color != DefaultColor {
		t.Fatalf("expected lilac color, got %#x", embed.Color)
	}
	if embed.Thumbnail == nil || !strings.HasSuffix(embed.Thumbnail.URL, "thumb.png") {
		t.Fatalf("expected thumbnail")
	}
}

func TestSendResolvesTargets(t *testing.T) {
	session := &fakeSession{}
	svc := newService(session)
	interaction := &discordgo.Interaction{ChannelID: "c1", Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}}}

	if err := svc.Send(FromMessage(&discordgo.Message{ChannelID: "c2", Author: &discordgo.User{ID: "u2"}}), "ok"); err != nil {
		t.Fatalf("channel send: %v", err)
	}
	if err := svc.Send(FromInteraction(interaction, false), "ok"); err != nil {
		t.Fatalf("interaction send: %v", err)
	}
	if err := svc.Send(FromInteraction(interaction, true), "ok"); err != nil {
		t.Fatalf("deferred send: %v", err)
	}
	if len(session.channel) != 1 || session.responded != 1 || session.edited != 1 {
		t.Fatalf("unexpected routing %+v", session)
	}
}

func TestSendFallsBackToChannel(t *testing.T) {
	session := &fakeSession{respondErr: errors.New("unknown interaction")}
	svc := newService(session)
	interaction := &discordgo.Interaction{ChannelID: "c1", User: &discordgo.User{ID: "u1"}}

	if err := svc.Send(FromInteraction(interaction, true), "done"); err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if len(session.channel) != 1 || session.channel[0] != "c1" {
		t.Fatalf("expected channel fallback, got %v", session.channel)
	}
}

func TestChannelFailureIsReturned(t *testing.T) {
	session := &fakeSession{channelErr: errors.New("missing access")}
	if err := newService(session).Send(ChannelTarget{Channel: "c1", Executor: "u1"}, "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDeferThenEdit(t *testing.T) {
	session := &fakeSession{}
	svc := newService(session)
	interaction := &discordgo.Interaction{ChannelID: "c1", User: &discordgo.User{ID: "u1"}}

	target := svc.Defer(interaction)
	if _, ok := target.(DeferredTarget); !ok {
		t.Fatalf("expected deferred target, got %T", target)
	}
	if len(session.types) != 1 || session.types[0] != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("expected a deferred response, got %v", session.types)
	}
	if err := svc.Send(target, "done"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if session.responded != 1 || session.edited != 1 {
		t.Fatalf("expected one defer and one edit, got %+v", session)
	}
}

func TestDeferFailureUsesImmediateReply(t *testing.T) {
	session := &fakeSession{respondErr: errors.New("rate limited")}
	svc := newService(session)

	target := svc.Defer(&discordgo.Interaction{ChannelID: "c1"})
	if _, ok := target.(InteractionTarget); !ok {
		t.Fatalf("expected interaction target, got %T", target)
	}
}
