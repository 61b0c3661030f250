package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	helpPrev  = "help_prev"
	helpNext  = "help_next"
	helpClose = "help_close"
)

type helpCard struct {
	title string
	body  string
}

var helpCards = []helpCard{
	{
		title: "Getting started",
		body:  "Use the buttons below to browse the command guide.\nCommands acknowledge in this channel with who ran them and when.",
	},
	{
		title: "Utility",
		body:  "`/afk [reason] [duration]` mark yourself away\n`/membercount` member statistics and daily joins\n`/giveaway` start a giveaway\n`/invite` invite link",
	},
	{
		title: "Moderation",
		body:  "`/quarantine user` strip roles\n`/unquarantine user` restore roles\n`/quarantine-bypass add|remove|list` roles that are never quarantined",
	},
	{
		title: "Voice",
		body:  "`/vdefend user` protect from voice mutes\n`/vundefend user` remove protection\n`/vdefended` list protected users\n`/vmuteall` mute your voice channel",
	},
	{
		title: "Logging and tickets",
		body:  "`/logging set|show|clear` audit channel\n`/auditlogs list|summary` recent entries\n`/ticket panel|close|list` support tickets",
	},
	{
		title: "Owners",
		body:  "`/extraowner`, `/tempowner`, `/removeowner`, `/listowners`\nText commands: `eval`, `eexit`, `estats`, `eaudit`",
	},
}

// clampCard keeps a card number within 1..len(helpCards).
func clampCard(card int) int {
	if card < 1 {
		return 1
	}
	if card > len(helpCards) {
		return len(helpCards)
	}
	return card
}

func helpEmbed(color, card int) *discordgo.MessageEmbed {
	card = clampCard(card)
	c := helpCards[card-1]
	return &discordgo.MessageEmbed{
		Title:       c.title,
		Color:       color,
		Description: c.body,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", card, len(helpCards))},
	}
}

func helpButtons(card int) []discordgo.MessageComponent {
	card = clampCard(card)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Previous", Style: discordgo.SecondaryButton, CustomID: helpPrev, Disabled: card == 1},
			discordgo.Button{Label: "Next", Style: discordgo.PrimaryButton, CustomID: helpNext, Disabled: card == len(helpCards)},
			discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: helpClose},
		}},
	}
}
