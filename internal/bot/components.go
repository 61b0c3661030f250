package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quarantianizo/internal/session"

	"github.com/bwmarrin/discordgo"
)

const (
	mcBackPrefix    = "mc_back_"
	mcForwardPrefix = "mc_forward_"
	ticketOpenID    = "ticket_open"
)

func (b *Bot) handleComponent(s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()
	customID := interaction.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, session.GiveawayPrefix):
		b.handleGiveawayJoin(s, interaction, customID)
	case strings.HasPrefix(customID, mcBackPrefix):
		b.handleMembercountPage(s, interaction, strings.TrimPrefix(customID, mcBackPrefix), session.PageBack)
	case strings.HasPrefix(customID, mcForwardPrefix):
		b.handleMembercountPage(s, interaction, strings.TrimPrefix(customID, mcForwardPrefix), session.PageForward)
	case customID == helpPrev, customID == helpNext, customID == helpClose:
		b.handleHelpButton(ctx, s, interaction, customID)
	case customID == ticketOpenID:
		b.handleTicketOpen(ctx, s, interaction)
	}
}

func (b *Bot) handleGiveawayJoin(s *discordgo.Session, interaction *discordgo.InteractionCreate, id string) {
	userID := interactionUserID(interaction)
	result, ok := b.registries.Giveaways.Join(id, userID)
	if !ok {
		b.respond(s, interaction, "This giveaway has ended or is no longer available.", true)
		return
	}
	var text string
	if result.Already {
		text = fmt.Sprintf("You are already participating!\n**Giveaway:** %s\n**Price:** %s\n**Current Participants:** %d",
			result.Giveaway.Title, result.Giveaway.Prize, result.Participants)
	} else {
		text = fmt.Sprintf("**<@%s> has joined the giveaway!**\n**Giveaway:** %s\n**Price:** %s\n**Total Participants:** %d\n\nGood luck!",
			userID, result.Giveaway.Title, result.Giveaway.Prize, result.Participants)
	}
	_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{b.ack.Embed(userID, text)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) handleMembercountPage(s *discordgo.Session, interaction *discordgo.InteractionCreate, key, direction string) {
	mc, err := b.registries.Membercount.Page(key, interactionUserID(interaction), direction)
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		b.respond(s, interaction, "Session expired", true)
		return
	case errors.Is(err, session.ErrNotSessionOwner):
		b.respond(s, interaction, "You can only use your own membercount stats", true)
		return
	}
	_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{b.membercountEmbed(mc)},
			Components: membercountButtons(mc),
		},
	})
}

func (b *Bot) handleHelpButton(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, action string) {
	userID := interactionUserID(interaction)
	current, ok := b.store.HelpSession(ctx, userID, interaction.GuildID)
	if !ok {
		b.respond(s, interaction, "This help menu expired. Run /help again.", true)
		return
	}

	if action == helpClose {
		b.store.DeleteHelpSession(ctx, userID, interaction.GuildID)
		_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    "Help closed.",
				Embeds:     []*discordgo.MessageEmbed{},
				Components: []discordgo.MessageComponent{},
			},
		})
		return
	}

	card := nextCard(current.CurrentCard, action)
	b.store.SaveHelpSession(ctx, current.InteractionID, userID, interaction.GuildID, card)
	_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{helpEmbed(b.cfg.Ack.Color, card)},
			Components: helpButtons(card),
		},
	})
}

func nextCard(card int, action string) int {
	switch action {
	case helpPrev:
		return clampCard(card - 1)
	case helpNext:
		return clampCard(card + 1)
	}
	return clampCard(card)
}
