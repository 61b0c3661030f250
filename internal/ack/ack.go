package ack

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const DefaultColor = 0xC8A2C8

// Session is the slice of *discordgo.Session used to deliver replies.
type Session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	InteractionResponseEdit(interaction *discordgo.Interaction, edit *discordgo.WebhookEdit) (*discordgo.Message, error)
}

// Wrap adapts a discordgo session.
func Wrap(s *discordgo.Session) Session {
	return discordSession{s: s}
}

type discordSession struct {
	s *discordgo.Session
}

func (d discordSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return d.s.ChannelMessageSendEmbed(channelID, embed)
}

func (d discordSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return d.s.InteractionRespond(interaction, resp)
}

func (d discordSession) InteractionResponseEdit(interaction *discordgo.Interaction, edit *discordgo.WebhookEdit) (*discordgo.Message, error) {
	return d.s.InteractionResponseEdit(interaction, edit)
}

// Target is where an acknowledgement goes. It is resolved once from the
// incoming event.
type Target interface {
	Respond(s Session, embed *discordgo.MessageEmbed) error
	ExecutorID() string
	ChannelID() string
}

// ChannelTarget posts into a channel; used for prefix commands.
type ChannelTarget struct {
	Channel  string
	Executor string
}

func (t ChannelTarget) Respond(s Session, embed *discordgo.MessageEmbed) error {
	_, err := s.ChannelMessageSendEmbed(t.Channel, embed)
	return err
}

func (t ChannelTarget) ExecutorID() string { return t.Executor }
func (t ChannelTarget) ChannelID() string  { return t.Channel }

// InteractionTarget answers a slash command that has not been acknowledged.
type InteractionTarget struct {
	Interaction *discordgo.Interaction
	Ephemeral   bool
}

func (t InteractionTarget) Respond(s Session, embed *discordgo.MessageEmbed) error {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if t.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(t.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (t InteractionTarget) ExecutorID() string { return interactionUser(t.Interaction) }
func (t InteractionTarget) ChannelID() string  { return t.Interaction.ChannelID }

// DeferredTarget edits the reply of an interaction that was deferred.
type DeferredTarget struct {
	Interaction *discordgo.Interaction
}

func (t DeferredTarget) Respond(s Session, embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := s.InteractionResponseEdit(t.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

func (t DeferredTarget) ExecutorID() string { return interactionUser(t.Interaction) }
func (t DeferredTarget) ChannelID() string  { return t.Interaction.ChannelID }

func FromMessage(m *discordgo.Message) Target {
	executor := ""
	if m.Author != nil {
		executor = m.Author.ID
	}
	return ChannelTarget{Channel: m.ChannelID, Executor: executor}
}

func FromInteraction(i *discordgo.Interaction, deferred bool) Target {
	if deferred {
		return DeferredTarget{Interaction: i}
	}
	return InteractionTarget{Interaction: i}
}

func interactionUser(i *discordgo.Interaction) string {
	if i == nil {
		return ""
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type Service struct {
	session  Session
	logger   *zap.Logger
	color    int
	imageURL string
	now      func() time.Time
}

func New(session Session, logger *zap.Logger, color int, imageURL string) *Service {
	if color == 0 {
		color = DefaultColor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{session: session, logger: logger, color: color, imageURL: imageURL, now: time.Now}
}

// Embed builds the standard acknowledgement embed.
func (s *Service) Embed(executorID, text string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:       s.color,
		Description: fmt.Sprintf("**Time:** <t:%d:T>\n**Executed by:** <@%s>\n%s", s.now().Unix(), executorID, text),
	}
	if s.imageURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: s.imageURL}
	}
	return embed
}

// Defer acknowledges the interaction without content so the handler can
// take longer than the platform's reply window. The returned target edits
// that deferred reply. If deferring fails the plain interaction target is
// returned.
func (s *Service) Defer(i *discordgo.Interaction) Target {
	err := s.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		s.logger.Warn("defer failed", zap.Error(err))
		return FromInteraction(i, false)
	}
	return FromInteraction(i, true)
}

// Send acknowledges on target. If an interaction reply fails the embed is
// posted to the channel instead.
func (s *Service) Send(target Target, text string) error {
	embed := s.Embed(target.ExecutorID(), text)
	err := target.Respond(s.session, embed)
	if err == nil {
		return nil
	}
	if _, isChannel := target.(ChannelTarget); isChannel || target.ChannelID() == "" {
		s.logger.Warn("acknowledgement failed", zap.Error(err))
		return err
	}
	s.logger.Warn("interaction acknowledgement failed, posting to channel", zap.Error(err))
	if _, fallbackErr := s.session.ChannelMessageSendEmbed(target.ChannelID(), embed); fallbackErr != nil {
		s.logger.Error("fallback acknowledgement failed", zap.Error(fallbackErr))
		return fallbackErr
	}
	return nil
}
