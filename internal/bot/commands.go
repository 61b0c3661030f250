package bot

import "github.com/bwmarrin/discordgo"

var (
	permManageGuild    int64 = discordgo.PermissionManageServer
	permManageRoles    int64 = discordgo.PermissionManageRoles
	permMuteMembers    int64 = discordgo.PermissionVoiceMuteMembers
	permManageChannels int64 = discordgo.PermissionManageChannels
	permViewAuditLog   int64 = discordgo.PermissionViewAuditLogs
)

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func intOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "afk",
			Description: "Mark yourself as away",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("reason", "Why you are away", false),
				stringOption("duration", "Clear automatically after e.g. 30m, 2h, 1d", false),
			},
		},
		{
			Name:                     "giveaway",
			Description:              "Start a giveaway in this channel",
			DefaultMemberPermissions: &permManageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("title", "Giveaway title", true),
				stringOption("description", "What it is about", true),
				stringOption("price", "Prize", true),
				intOption("duration", "Duration in minutes", true),
				intOption("winners", "Number of winners", true),
				stringOption("image", "Image URL", false),
			},
		},
		{
			Name:        "membercount",
			Description: "Member statistics with daily joins",
		},
		{
			Name:        "help",
			Description: "Browse the command guide",
		},
		{
			Name:                     "logging",
			Description:              "Configure the audit logging channel",
			DefaultMemberPermissions: &permManageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("set", "Set the logging channel", &discordgo.ApplicationCommandOption{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Text channel for audit entries",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				}),
				subcommand("show", "Show the logging channel"),
				subcommand("clear", "Stop posting audit entries"),
			},
		},
		{
			Name:                     "auditlogs",
			Description:              "Inspect moderation audit logs",
			DefaultMemberPermissions: &permViewAuditLog,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "Recent entries, newest first",
					stringOption("type", "Only this log type, e.g. ban", false),
					intOption("limit", "How many entries (max 25)", false),
				),
				subcommand("summary", "Entry counts by type"),
			},
		},
		{
			Name:                     "ticket",
			Description:              "Support tickets",
			DefaultMemberPermissions: &permManageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("panel", "Post the ticket panel",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Staff role that can see tickets",
						Required:    true,
					},
					stringOption("message", "Panel text", false),
				),
				subcommand("close", "Close the ticket in this channel"),
				subcommand("list", "List open tickets"),
			},
		},
		{
			Name:                     "quarantine",
			Description:              "Strip a member's roles",
			DefaultMemberPermissions: &permManageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "Member to quarantine", true),
				stringOption("reason", "Reason", false),
			},
		},
		{
			Name:                     "unquarantine",
			Description:              "Restore a quarantined member's roles",
			DefaultMemberPermissions: &permManageRoles,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "Member to release", true),
			},
		},
		{
			Name:                     "quarantine-bypass",
			Description:              "Roles that cannot be quarantined",
			DefaultMemberPermissions: &permManageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Add a bypass role", &discordgo.ApplicationCommandOption{
					Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true,
				}),
				subcommand("remove", "Remove a bypass role", &discordgo.ApplicationCommandOption{
					Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true,
				}),
				subcommand("list", "List bypass roles"),
			},
		},
		{
			Name:                     "np",
			Description:              "Roles that may use text commands without the prefix",
			DefaultMemberPermissions: &permManageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Add a no-prefix role", &discordgo.ApplicationCommandOption{
					Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true,
				}),
				subcommand("remove", "Remove a no-prefix role", &discordgo.ApplicationCommandOption{
					Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true,
				}),
				subcommand("list", "List no-prefix roles"),
			},
		},
		{
			Name:                     "announcements",
			Description:              "Channel that receives global announcements",
			DefaultMemberPermissions: &permManageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("set", "Set the announcement channel", &discordgo.ApplicationCommandOption{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Text channel",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
				}),
				subcommand("show", "Show the announcement channel"),
				subcommand("clear", "Stop receiving announcements"),
			},
		},
		{
			Name:        "extraowner",
			Description: "Grant permanent owner access",
			Options:     []*discordgo.ApplicationCommandOption{userOption("user", "User", true)},
		},
		{
			Name:        "tempowner",
			Description: "Grant temporary owner access",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "User", true),
				stringOption("duration", "e.g. 30m, 12h, 7d", true),
			},
		},
		{
			Name:        "removeowner",
			Description: "Revoke owner access",
			Options:     []*discordgo.ApplicationCommandOption{userOption("user", "User", true)},
		},
		{
			Name:        "listowners",
			Description: "List extra and temporary owners",
		},
		{
			Name:                     "vdefend",
			Description:              "Protect a user from voice mutes",
			DefaultMemberPermissions: &permMuteMembers,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("user", "User", true)},
		},
		{
			Name:                     "vundefend",
			Description:              "Remove voice protection",
			DefaultMemberPermissions: &permMuteMembers,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("user", "User", true)},
		},
		{
			Name:                     "vdefended",
			Description:              "List protected users",
			DefaultMemberPermissions: &permMuteMembers,
		},
		{
			Name:                     "vclear",
			Description:              "Remove voice protection from everyone in this server",
			DefaultMemberPermissions: &permMuteMembers,
		},
		{
			Name:                     "vmuteall",
			Description:              "Server mute everyone in your voice channel except defended users",
			DefaultMemberPermissions: &permMuteMembers,
		},
		{
			Name:        "invite",
			Description: "Get the bot invite link",
		},
	}
}

func (b *Bot) registerCommands() error {
	commands := commandDefinitions()

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
