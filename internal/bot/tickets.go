package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quarantianizo/internal/modules/audit"
	"quarantianizo/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const defaultPanelMessage = "Need help? Press the button below to open a private ticket with staff."

func ticketChannelName(number int) string {
	return fmt.Sprintf("ticket-%04d", number)
}

func (b *Bot) handleTicket(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	sub := options[0]
	guildID := interaction.GuildID
	tickets := b.store.Tickets()

	switch sub.Name {
	case "panel":
		opts := toOptionMap(sub.Options)
		role := opts["role"].RoleValue(s, guildID)
		if role == nil {
			b.respond(s, interaction, "Role not found.", true)
			return
		}
		text := opts.str("message")
		if text == "" {
			text = defaultPanelMessage
		}
		msg, err := s.ChannelMessageSendComplex(interaction.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{Title: "Support", Description: text, Color: b.cfg.Ack.Color}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Open ticket", Style: discordgo.PrimaryButton, CustomID: ticketOpenID},
				}},
			},
		})
		if err != nil {
			b.respond(s, interaction, "Failed to post panel: "+err.Error(), true)
			return
		}
		tickets.SavePanel(storage.TicketPanel{GuildID: guildID, ChannelID: interaction.ChannelID, MessageID: msg.ID, RoleID: role.ID, Message: text})
		b.acknowledge(interaction, fmt.Sprintf("Ticket panel posted for <@&%s>", role.ID))
	case "close":
		ticket, ok := tickets.Active(interaction.ChannelID)
		if !ok {
			b.respond(s, interaction, "This is not an open ticket channel.", true)
			return
		}
		tickets.DeleteActive(interaction.ChannelID)
		b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeTicket, UserID: ticket.UserID, ModeratorID: interactionUserID(interaction), Details: fmt.Sprintf("closed ticket #%d", ticket.Number)})
		b.acknowledge(interaction, fmt.Sprintf("Closing ticket #%d", ticket.Number))
		if _, err := s.ChannelDelete(interaction.ChannelID); err != nil {
			b.logger.Warn("ticket channel delete failed", zap.String("channel_id", interaction.ChannelID), zap.Error(err))
		}
	case "list":
		open := tickets.GuildTickets(guildID)
		if len(open) == 0 {
			b.acknowledge(interaction, fmt.Sprintf("No open tickets.\n**Issued so far:** %d", tickets.CurrentNumber(guildID)))
			return
		}
		lines := []string{fmt.Sprintf("**Open tickets:** %d", len(open))}
		for _, t := range open {
			lines = append(lines, fmt.Sprintf("#%d <#%s> by <@%s>", t.Number, t.ChannelID, t.UserID))
		}
		b.acknowledge(interaction, strings.Join(lines, "\n"))
	}
}

func (b *Bot) handleTicketOpen(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	guildID := interaction.GuildID
	userID := interactionUserID(interaction)
	tickets := b.store.Tickets()

	if channelID, ok := tickets.FindUserTicket(guildID, userID); ok {
		b.respond(s, interaction, fmt.Sprintf("You already have an open ticket: <#%s>", channelID), true)
		return
	}
	panel, ok := tickets.Panel(guildID)
	if !ok {
		b.respond(s, interaction, "Tickets are not configured in this server.", true)
		return
	}

	number := tickets.NextNumber(guildID)
	view := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory)
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: int64(discordgo.PermissionViewChannel)},
		{ID: userID, Type: discordgo.PermissionOverwriteTypeMember, Allow: view},
		{ID: panel.RoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: view},
	}
	parentID := ""
	if source, err := s.State.Channel(panel.ChannelID); err == nil {
		parentID = source.ParentID
	}

	channel, err := s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 ticketChannelName(number),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		b.respond(s, interaction, "Failed to create ticket channel.", true)
		b.logger.Warn("ticket create failed", zap.String("guild_id", guildID), zap.Error(err))
		return
	}

	tickets.SaveActive(storage.ActiveTicket{ChannelID: channel.ID, UserID: userID, GuildID: guildID, Number: number, CreatedAt: time.Now()})
	b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeTicket, UserID: userID, Details: fmt.Sprintf("opened ticket #%d", number)})

	_, _ = s.ChannelMessageSend(channel.ID, fmt.Sprintf("<@%s> <@&%s> ticket #%d opened. Staff will be with you shortly. Use `/ticket close` when done.", userID, panel.RoleID, number))
	b.respond(s, interaction, fmt.Sprintf("Ticket created: <#%s>", channel.ID), true)
}
