package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quarantianizo/internal/ack"
	"quarantianizo/internal/analytics"
	"quarantianizo/internal/config"
	"quarantianizo/internal/modules/audit"
	"quarantianizo/internal/session"
	"quarantianizo/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const welcomeBackTTL = 5 * time.Second

type Bot struct {
	cfg        config.Config
	logger     *zap.Logger
	store      *storage.Store
	registries *session.Registries
	audit      *audit.Logger
	analytics  *analytics.Service
	ack        *ack.Service
	session    *discordgo.Session
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, registries *session.Registries, auditLogger *audit.Logger, analyticsEngine *analytics.Service) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	b := &Bot{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		registries: registries,
		audit:      auditLogger,
		analytics:  analyticsEngine,
		ack:        ack.New(ack.Wrap(dg), logger, cfg.Ack.Color, cfg.Ack.ImageURL),
		session:    dg,
	}
	if b.audit != nil {
		b.audit.SetNotifier(b.notifyAudit)
	}
	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onChannelDelete)

	if err := b.session.Open(); err != nil {
		return err
	}
	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready",
		zap.String("user", event.User.Username),
		zap.Int("guilds", len(event.Guilds)),
		zap.String("storage", b.store.Backend()),
	)
}

// onChannelDelete drops ticket state when a ticket channel is removed by
// hand instead of through /ticket close.
func (b *Bot) onChannelDelete(s *discordgo.Session, event *discordgo.ChannelDelete) {
	if event.Channel == nil {
		return
	}
	if b.store.Tickets().DeleteActive(event.Channel.ID) {
		b.logger.Info("ticket channel removed", zap.String("guild_id", event.GuildID), zap.String("channel_id", event.Channel.ID))
	}
}

// onVoiceStateUpdate undoes server mutes applied to defended users.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.VoiceState == nil || !event.Mute {
		return
	}
	if !b.registries.Voice.IsDefended(event.GuildID, event.UserID) {
		return
	}
	if err := s.GuildMemberMute(event.GuildID, event.UserID, false); err != nil {
		b.logger.Warn("unmute defended user failed", zap.String("guild_id", event.GuildID), zap.String("user_id", event.UserID), zap.Error(err))
		return
	}
	b.audit.Log(context.Background(), audit.Entry{
		GuildID: event.GuildID,
		LogType: audit.TypeVoice,
		UserID:  event.UserID,
		Details: "defended user unmuted",
	})
}

func (b *Bot) notifyAudit(ctx context.Context, entry storage.AuditLog) {
	channelID, ok := b.store.LoggingChannel(ctx, entry.GuildID)
	if !ok {
		return
	}
	if _, err := b.session.ChannelMessageSendEmbed(channelID, auditEmbed(b.cfg.Ack.Color, entry)); err != nil {
		b.logger.Warn("audit notify failed", zap.String("guild_id", entry.GuildID), zap.Error(err))
	}
}

func auditEmbed(color int, entry storage.AuditLog) *discordgo.MessageEmbed {
	var lines []string
	lines = append(lines, fmt.Sprintf("**Type:** %s", entry.LogType))
	if entry.UserID != "" {
		lines = append(lines, fmt.Sprintf("**User:** <@%s>", entry.UserID))
	}
	if entry.ModeratorID != "" {
		lines = append(lines, fmt.Sprintf("**Moderator:** <@%s>", entry.ModeratorID))
	}
	if entry.Reason != "" {
		lines = append(lines, fmt.Sprintf("**Reason:** %s", entry.Reason))
	}
	if entry.Details != "" {
		lines = append(lines, entry.Details)
	}
	return &discordgo.MessageEmbed{
		Title:       "Audit log",
		Color:       color,
		Description: strings.Join(lines, "\n"),
		Timestamp:   entry.CreatedAt.Format(time.RFC3339),
	}
}

func (b *Bot) respond(s *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

// acknowledge sends the standard embed for a slash command.
func (b *Bot) acknowledge(interaction *discordgo.InteractionCreate, text string) {
	if err := b.ack.Send(ack.FromInteraction(interaction.Interaction, false), text); err != nil {
		b.logger.Warn("acknowledge failed", zap.String("command", commandName(interaction)), zap.Error(err))
	}
}

// acknowledgeTarget finishes a reply started with b.ack.Defer.
func (b *Bot) acknowledgeTarget(target ack.Target, text string) {
	if err := b.ack.Send(target, text); err != nil {
		b.logger.Warn("acknowledge failed", zap.String("channel_id", target.ChannelID()), zap.Error(err))
	}
}

func (b *Bot) acknowledgeMessage(msg *discordgo.Message, text string) {
	if err := b.ack.Send(ack.FromMessage(msg), text); err != nil {
		b.logger.Warn("acknowledge failed", zap.String("channel_id", msg.ChannelID), zap.Error(err))
	}
}

func (b *Bot) isOwner(userID string) bool {
	return b.registries.Owners.IsOwner(userID)
}

func interactionUserID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func commandName(interaction *discordgo.InteractionCreate) string {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	return interaction.ApplicationCommandData().Name
}
