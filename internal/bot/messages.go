package bot

import (
	"context"
	"fmt"
	"strings"

	"quarantianizo/internal/session"
	"quarantianizo/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const evalAuditLimit = 10

func (b *Bot) onMessageCreate(s *discordgo.Session, event *discordgo.MessageCreate) {
	if event.Author == nil || event.Author.Bot || event.GuildID == "" {
		return
	}

	if status, ok := b.registries.AFK.Return(event.GuildID, event.Author.ID); ok {
		b.sendWelcomeBack(event.ChannelID, status)
	}

	for _, mentioned := range event.Mentions {
		if mentioned.ID == event.Author.ID {
			continue
		}
		status, ok := b.registries.AFK.Get(event.GuildID, mentioned.ID)
		if !ok {
			continue
		}
		text := fmt.Sprintf("<@%s> is AFK: %s\n**Since:** <t:%d:R>", mentioned.ID, status.Reason, status.Since.Unix())
		b.acknowledgeMessage(event.Message, text)
	}

	name, args, ok := parsePrefixCommand(b.cfg.CommandPrefix, event.Content)
	if !ok && event.Member != nil && b.registries.NPRoles.HasAny(event.GuildID, event.Member.Roles) {
		name, args, ok = splitCommand(event.Content)
	}
	if !ok {
		return
	}
	b.handleTextCommand(context.Background(), event.Message, name, args)
}

// parsePrefixCommand splits "!name rest" into its lowercased name and the rest.
func parsePrefixCommand(prefix, content string) (string, string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	return splitCommand(strings.TrimPrefix(content, prefix))
}

// splitCommand treats the first word as the command name. Members holding a
// no-prefix role reach commands this way.
func splitCommand(body string) (string, string, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", "", false
	}
	name, rest, _ := strings.Cut(body, " ")
	return strings.ToLower(name), strings.TrimSpace(rest), true
}

func (b *Bot) handleTextCommand(ctx context.Context, msg *discordgo.Message, name, args string) {
	authorID := msg.Author.ID
	switch name {
	case "afk":
		reason := args
		if reason == "" {
			reason = "AFK"
		}
		channelID := msg.ChannelID
		b.registries.AFK.Set(msg.GuildID, authorID, reason, 0, func(status session.AFKStatus) {
			b.sendWelcomeBack(channelID, status)
		})
		b.acknowledgeMessage(msg, fmt.Sprintf("<@%s> is now AFK\n**Reason:** %s", authorID, reason))
	case "eval":
		if !b.isOwner(authorID) {
			return
		}
		if b.registries.Eval.Toggle(authorID) {
			b.acknowledgeMessage(msg, "Eval mode enabled.")
		} else {
			b.acknowledgeMessage(msg, "Eval mode disabled.")
		}
	case "eexit":
		if b.registries.Eval.Exit(authorID) {
			b.acknowledgeMessage(msg, "Eval mode disabled.")
		}
	case "estats":
		if !b.registries.Eval.Active(authorID) || !b.isOwner(authorID) {
			return
		}
		b.acknowledgeMessage(msg, b.formatStats(b.store.Stats(ctx)))
	case "eaudit":
		if !b.registries.Eval.Active(authorID) || !b.isOwner(authorID) {
			return
		}
		b.acknowledgeMessage(msg, formatAuditLogs(b.store.AllAuditLogs(ctx, evalAuditLimit)))
	case "eannounce":
		if !b.registries.Eval.Active(authorID) || !b.isOwner(authorID) || args == "" {
			return
		}
		sent, skipped := b.broadcast(authorID, args)
		b.acknowledgeMessage(msg, fmt.Sprintf("**Global Announcement Complete**\n**Sent:** %d\n**Skipped:** %d", sent, skipped))
	}
}

// broadcast posts to every guild with a configured announcement channel.
// Guilds without one count as skipped.
func (b *Bot) broadcast(authorID, text string) (int, int) {
	embed := b.ack.Embed(authorID, text)
	embed.Title = "Global Announcement"
	sent, skipped := 0, 0
	for _, guild := range b.session.State.Guilds {
		channelID, ok := b.registries.Announcements.Get(guild.ID)
		if !ok {
			skipped++
			continue
		}
		if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
			b.logger.Warn("announcement failed", zap.String("guild_id", guild.ID), zap.Error(err))
			skipped++
			continue
		}
		sent++
	}
	return sent, skipped
}

func (b *Bot) formatStats(stats storage.Stats) string {
	r := b.registries
	lines := []string{
		fmt.Sprintf("**Storage:** %s", stats.Backend),
		fmt.Sprintf("**Help sessions:** %d active / %d total (ttl %s)", stats.ActiveSessions, stats.TotalSessions, formatDuration(b.store.SessionTTL())),
		fmt.Sprintf("**AFK users:** %d", r.AFK.Len()),
		fmt.Sprintf("**Running giveaways:** %d", r.Giveaways.Len()),
		fmt.Sprintf("**Membercount sessions:** %d", r.Membercount.Len()),
	}
	if stats.Degraded {
		lines[0] += " (degraded, using memory)"
	}
	return strings.Join(lines, "\n")
}
