package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quarantianizo/internal/modules/audit"
	"quarantianizo/internal/session"
	"quarantianizo/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func toOptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (o optionMap) str(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o optionMap) integer(name string) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return 0
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, interaction)
		return
	default:
		return
	}

	if interaction.GuildID == "" {
		b.respond(s, interaction, "Commands only work inside a server.", true)
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "afk":
		b.handleAFK(s, interaction, toOptionMap(data.Options))
	case "giveaway":
		b.handleGiveaway(s, interaction, toOptionMap(data.Options))
	case "membercount":
		b.handleMembercount(s, interaction)
	case "help":
		b.handleHelp(ctx, s, interaction)
	case "logging":
		b.handleLogging(ctx, s, interaction, data.Options)
	case "auditlogs":
		b.handleAuditLogs(ctx, s, interaction, data.Options)
	case "ticket":
		b.handleTicket(ctx, s, interaction, data.Options)
	case "quarantine":
		b.handleQuarantine(ctx, s, interaction, toOptionMap(data.Options))
	case "unquarantine":
		b.handleUnquarantine(ctx, s, interaction, toOptionMap(data.Options))
	case "quarantine-bypass":
		b.handleRoleSet(ctx, s, interaction, data.Options, b.registries.Bypass, "Quarantine bypass")
	case "np":
		b.handleRoleSet(ctx, s, interaction, data.Options, b.registries.NPRoles, "No-prefix role")
	case "announcements":
		b.handleAnnouncements(ctx, s, interaction, data.Options)
	case "extraowner", "tempowner", "removeowner", "listowners":
		b.handleOwners(ctx, s, interaction, data.Name, toOptionMap(data.Options))
	case "vdefend", "vundefend", "vdefended", "vclear", "vmuteall":
		b.handleVoice(ctx, s, interaction, data.Name, toOptionMap(data.Options))
	case "invite":
		b.handleInvite(s, interaction)
	}
}

func (b *Bot) handleAFK(s *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	userID := interactionUserID(interaction)
	reason := options.str("reason")
	if reason == "" {
		reason = "AFK"
	}
	var duration time.Duration
	if raw := options.str("duration"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			b.respond(s, interaction, "Invalid duration. Use values like 30m, 2h or 1d.", true)
			return
		}
		duration = d
	}

	channelID := interaction.ChannelID
	b.registries.AFK.Set(interaction.GuildID, userID, reason, duration, func(status session.AFKStatus) {
		b.sendWelcomeBack(channelID, status)
	})

	text := fmt.Sprintf("<@%s> is now AFK\n**Reason:** %s", userID, reason)
	if duration > 0 {
		text += fmt.Sprintf("\n**Duration:** %s", formatDuration(duration))
	}
	b.acknowledge(interaction, text)
}

func (b *Bot) handleGiveaway(s *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	minutes := options.integer("duration")
	winners := options.integer("winners")
	if minutes <= 0 || winners <= 0 {
		b.respond(s, interaction, "Duration and winners must be positive.", true)
		return
	}

	channelID := interaction.ChannelID
	giveaway := b.registries.Giveaways.Start(session.Giveaway{
		Title:       options.str("title"),
		Description: options.str("description"),
		Prize:       options.str("price"),
		ImageURL:    options.str("image"),
		WinnerCount: int(winners),
		ChannelID:   channelID,
		HostID:      interactionUserID(interaction),
	}, time.Duration(minutes)*time.Minute, func(result session.GiveawayResult) {
		b.announceGiveaway(result)
	})

	msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{giveawayEmbed(b.cfg.Ack.Color, giveaway)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Participate", Style: discordgo.PrimaryButton, CustomID: giveaway.ID},
			}},
		},
	})
	if err != nil {
		b.registries.Giveaways.Cancel(giveaway.ID)
		b.respond(s, interaction, "Failed to start giveaway: "+err.Error(), true)
		return
	}
	b.registries.Giveaways.SetMessage(giveaway.ID, msg.ID)

	b.acknowledge(interaction, fmt.Sprintf("**Giveaway Started!**\n**Title:** %s\n**Price:** %s\n**Duration:** %d minutes\n**Number of Winners:** %d",
		giveaway.Title, giveaway.Prize, minutes, winners))
}

func giveawayEmbed(color int, g session.Giveaway) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       g.Title,
		Color:       color,
		Description: fmt.Sprintf("%s\n\n**Price:** %s\n**Number of Winners:** %d\n**Ends:** <t:%d:R>", g.Description, g.Prize, g.WinnerCount, g.EndsAt.Unix()),
		Timestamp:   g.EndsAt.Format(time.RFC3339),
	}
	if g.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: g.ImageURL}
	}
	return embed
}

func (b *Bot) announceGiveaway(result session.GiveawayResult) {
	channelID := result.Giveaway.ChannelID
	if len(result.Winners) == 0 {
		_, _ = b.session.ChannelMessageSend(channelID, "No participants in this giveaway!")
		return
	}
	mentions := make([]string, 0, len(result.Winners))
	for _, w := range result.Winners {
		mentions = append(mentions, "<@"+w+">")
	}
	embed := &discordgo.MessageEmbed{
		Title: "Giveaway Ended!",
		Color: b.cfg.Ack.Color,
		Description: fmt.Sprintf("**Title:** %s\n**Price:** %s\n**Total Participants:** %d\n\n**Winners:**\n%s",
			result.Giveaway.Title, result.Giveaway.Prize, result.Participants, strings.Join(mentions, "\n")),
	}
	if _, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: strings.Join(mentions, " "),
		Embeds:  []*discordgo.MessageEmbed{embed},
	}); err != nil {
		b.logger.Warn("giveaway announcement failed", zap.String("giveaway", result.Giveaway.ID), zap.Error(err))
	}
}

func (b *Bot) handleMembercount(s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	guild, err := s.State.Guild(interaction.GuildID)
	if err != nil {
		b.respond(s, interaction, "Guild data is not available yet.", true)
		return
	}

	report := buildMemberReport(guild, time.Now())
	mc := b.registries.Membercount.Create(interactionUserID(interaction), interaction.GuildID, report)
	_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{b.membercountEmbed(mc)},
			Components: membercountButtons(mc),
		},
	})
}

func buildMemberReport(guild *discordgo.Guild, now time.Time) session.MemberReport {
	report := session.MemberReport{Total: guild.MemberCount}
	joins := make([]session.MemberJoin, 0, len(guild.Members))
	for _, member := range guild.Members {
		if member.User == nil {
			continue
		}
		if member.User.Bot {
			report.Bots++
		} else {
			report.Users++
		}
		joins = append(joins, session.MemberJoin{UserID: member.User.ID, JoinedAt: member.JoinedAt})
	}
	if report.Total == 0 {
		report.Total = report.Users + report.Bots
	}

	for _, presence := range guild.Presences {
		switch presence.Status {
		case discordgo.StatusOnline:
			report.Online++
		case discordgo.StatusIdle:
			report.Idle++
		case discordgo.StatusDoNotDisturb:
			report.DND++
		}
	}
	report.Offline = report.Total - report.Online - report.Idle - report.DND
	if report.Offline < 0 {
		report.Offline = 0
	}
	report.Days = session.BuildDailyJoins(joins, now, 30)
	return report
}

func (b *Bot) membercountEmbed(mc session.MemberSession) *discordgo.MessageEmbed {
	r := mc.Report
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Total Members:** %d\n**Users:** %d | **Bots:** %d\n", r.Total, r.Users, r.Bots)
	fmt.Fprintf(&sb, "**Online:** %s %d (%d%%)\n", smallGraph(r.Online, r.Total), r.Online, percent(r.Online, r.Total))
	fmt.Fprintf(&sb, "**Idle:** %s %d (%d%%)\n", smallGraph(r.Idle, r.Total), r.Idle, percent(r.Idle, r.Total))
	fmt.Fprintf(&sb, "**DND:** %s %d (%d%%)\n", smallGraph(r.DND, r.Total), r.DND, percent(r.DND, r.Total))
	fmt.Fprintf(&sb, "**Offline:** %s %d (%d%%)", smallGraph(r.Offline, r.Total), r.Offline, percent(r.Offline, r.Total))

	if day, ok := mc.CurrentDay(); ok {
		fmt.Fprintf(&sb, "\n\n**Joined %s** (%d/%d)\n", day.Date.Format("2006-01-02"), mc.Page+1, len(r.Days))
		mentions := make([]string, 0, len(day.Members))
		for i, id := range day.Members {
			if i == 20 {
				mentions = append(mentions, fmt.Sprintf("and %d more", len(day.Members)-20))
				break
			}
			mentions = append(mentions, "<@"+id+">")
		}
		sb.WriteString(strings.Join(mentions, " "))
	} else {
		sb.WriteString("\n\nNo joins in the last 30 days.")
	}
	return b.ack.Embed(mc.UserID, sb.String())
}

func membercountButtons(mc session.MemberSession) []discordgo.MessageComponent {
	if len(mc.Report.Days) < 2 {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Back", Style: discordgo.SecondaryButton, CustomID: mcBackPrefix + mc.Key, Disabled: mc.Page == 0},
			discordgo.Button{Label: "Forward", Style: discordgo.SecondaryButton, CustomID: mcForwardPrefix + mc.Key, Disabled: mc.Page >= len(mc.Report.Days)-1},
		}},
	}
}

func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}

// smallGraph renders a five cell bar, one cell per 20%.
func smallGraph(part, total int) string {
	p := percent(part, total)
	filled := (p + 19) / 20
	if filled > 5 {
		filled = 5
	}
	return "`" + strings.Repeat("=", filled) + strings.Repeat("-", 5-filled) + "`"
}

func (b *Bot) handleHelp(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	userID := interactionUserID(interaction)
	b.store.SaveHelpSession(ctx, interaction.ID, userID, interaction.GuildID, 1)
	_ = s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{helpEmbed(b.cfg.Ack.Color, 1)},
			Components: helpButtons(1),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) handleLogging(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	sub := options[0]
	moderatorID := interactionUserID(interaction)
	switch sub.Name {
	case "set":
		channel := toOptionMap(sub.Options)["channel"].ChannelValue(s)
		if channel == nil {
			b.respond(s, interaction, "Channel not found.", true)
			return
		}
		durable := b.store.SaveLoggingChannel(ctx, interaction.GuildID, channel.ID)
		b.audit.Log(ctx, audit.Entry{GuildID: interaction.GuildID, LogType: audit.TypeConfig, ModeratorID: moderatorID, Details: "logging channel set to <#" + channel.ID + ">"})
		text := fmt.Sprintf("Logging channel set to <#%s>", channel.ID)
		if !durable {
			text += "\nStored in memory only; it will reset on restart."
		}
		b.acknowledge(interaction, text)
	case "show":
		channelID, ok := b.store.LoggingChannel(ctx, interaction.GuildID)
		if !ok {
			b.acknowledge(interaction, "No logging channel configured.")
			return
		}
		b.acknowledge(interaction, fmt.Sprintf("Logging channel: <#%s>", channelID))
	case "clear":
		if !b.store.ClearLoggingChannel(ctx, interaction.GuildID) {
			b.acknowledge(interaction, "No logging channel configured.")
			return
		}
		b.acknowledge(interaction, "Logging channel cleared.")
	}
}

func (b *Bot) handleAuditLogs(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	sub := options[0]
	// Both reads can wait on the database connect timeout.
	target := b.ack.Defer(interaction.Interaction)
	switch sub.Name {
	case "list":
		opts := toOptionMap(sub.Options)
		limit := clampLimit(int(opts.integer("limit")), 10, 25)
		logs := b.store.AuditLogs(ctx, interaction.GuildID, opts.str("type"), limit)
		b.acknowledgeTarget(target, formatAuditLogs(logs))
	case "summary":
		report := b.analytics.Report(ctx, interaction.GuildID, 500)
		b.acknowledgeTarget(target, formatReport(report))
	}
}

func clampLimit(value, fallback, max int) int {
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func formatAuditLogs(logs []storage.AuditLog) string {
	if len(logs) == 0 {
		return "No audit log entries."
	}
	lines := make([]string, 0, len(logs)+1)
	lines = append(lines, fmt.Sprintf("**Audit Logs** (%d)", len(logs)))
	for _, entry := range logs {
		line := fmt.Sprintf("<t:%d:f> `%s`", entry.CreatedAt.Unix(), entry.LogType)
		if entry.UserID != "" {
			line += " <@" + entry.UserID + ">"
		}
		if entry.ModeratorID != "" {
			line += " by <@" + entry.ModeratorID + ">"
		}
		if entry.Reason != "" {
			line += ": " + entry.Reason
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) handleQuarantine(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	target := options["user"].UserValue(s)
	if target == nil {
		b.respond(s, interaction, "User not found.", true)
		return
	}
	member, err := s.GuildMember(interaction.GuildID, target.ID)
	if err != nil {
		b.respond(s, interaction, "Member not found.", true)
		return
	}
	if b.registries.Bypass.HasAny(interaction.GuildID, member.Roles) {
		b.acknowledge(interaction, fmt.Sprintf("<@%s> has a quarantine bypass role.", target.ID))
		return
	}

	reason := options.str("reason")
	record := session.QuarantineRecord{
		GuildID:       interaction.GuildID,
		UserID:        target.ID,
		OriginalRoles: member.Roles,
		Reason:        reason,
		ModeratorID:   interactionUserID(interaction),
	}
	if !b.registries.Quarantine.Put(record) {
		b.acknowledge(interaction, fmt.Sprintf("<@%s> is already quarantined.", target.ID))
		return
	}

	failed, kept := stripQuarantined(b.registries.Quarantine, record, func(roleID string) error {
		return s.GuildMemberRoleRemove(interaction.GuildID, target.ID, roleID)
	})
	if !kept {
		b.acknowledge(interaction, fmt.Sprintf("Could not remove any roles from <@%s>. Nothing was changed.", target.ID))
		return
	}
	b.audit.Log(ctx, audit.Entry{GuildID: interaction.GuildID, LogType: audit.TypeQuarantine, UserID: target.ID, ModeratorID: record.ModeratorID, Reason: reason})

	text := fmt.Sprintf("Quarantined <@%s>\n**Roles removed:** %d", target.ID, len(member.Roles)-failed)
	if failed > 0 {
		text += fmt.Sprintf("\n**Failed:** %d", failed)
	}
	b.acknowledge(interaction, text)
}

// stripQuarantined removes the recorded roles and returns how many removals
// failed. When every removal fails the record is dropped so the command can
// be retried; kept reports whether it is still held.
func stripQuarantined(q *session.Quarantine, record session.QuarantineRecord, remove func(roleID string) error) (int, bool) {
	failed := 0
	for _, roleID := range record.OriginalRoles {
		if err := remove(roleID); err != nil {
			failed++
		}
	}
	if len(record.OriginalRoles) > 0 && failed == len(record.OriginalRoles) {
		q.Release(record.GuildID, record.UserID)
		return failed, false
	}
	return failed, true
}

func (b *Bot) handleUnquarantine(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	target := options["user"].UserValue(s)
	if target == nil {
		b.respond(s, interaction, "User not found.", true)
		return
	}
	record, ok := b.registries.Quarantine.Release(interaction.GuildID, target.ID)
	if !ok {
		b.acknowledge(interaction, fmt.Sprintf("<@%s> is not quarantined.", target.ID))
		return
	}
	restored := 0
	for _, roleID := range record.OriginalRoles {
		if err := s.GuildMemberRoleAdd(interaction.GuildID, target.ID, roleID); err == nil {
			restored++
		}
	}
	b.audit.Log(ctx, audit.Entry{GuildID: interaction.GuildID, LogType: audit.TypeRelease, UserID: target.ID, ModeratorID: interactionUserID(interaction)})
	b.acknowledge(interaction, fmt.Sprintf("Released <@%s>\n**Roles restored:** %d/%d", target.ID, restored, len(record.OriginalRoles)))
}

func (b *Bot) handleRoleSet(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption, set *session.RoleSets, label string) {
	if len(options) == 0 {
		return
	}
	sub := options[0]
	guildID := interaction.GuildID
	switch sub.Name {
	case "add", "remove":
		role := toOptionMap(sub.Options)["role"].RoleValue(s, guildID)
		if role == nil {
			b.respond(s, interaction, "Role not found.", true)
			return
		}
		var changed bool
		if sub.Name == "add" {
			changed = set.Add(guildID, role.ID)
		} else {
			changed = set.Remove(guildID, role.ID)
		}
		if changed {
			b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeConfig, ModeratorID: interactionUserID(interaction), Details: strings.ToLower(label) + " " + sub.Name + " <@&" + role.ID + ">"})
		}
		b.acknowledge(interaction, fmt.Sprintf("%s %s <@&%s>", label, pastTense(sub.Name, changed), role.ID))
	case "list":
		b.acknowledge(interaction, fmt.Sprintf("**%s roles:** %s", label, mentionList(set.List(guildID), "<@&", ">")))
	}
}

func (b *Bot) handleAnnouncements(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	guildID := interaction.GuildID
	switch options[0].Name {
	case "set":
		channel := toOptionMap(options[0].Options)["channel"].ChannelValue(s)
		if channel == nil {
			b.respond(s, interaction, "Channel not found.", true)
			return
		}
		b.registries.Announcements.Set(guildID, channel.ID)
		b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeConfig, ModeratorID: interactionUserID(interaction), Details: "announcement channel set to <#" + channel.ID + ">"})
		b.acknowledge(interaction, fmt.Sprintf("Announcement channel set to <#%s>", channel.ID))
	case "show":
		channelID, ok := b.registries.Announcements.Get(guildID)
		if !ok {
			b.acknowledge(interaction, "No announcement channel configured.")
			return
		}
		b.acknowledge(interaction, fmt.Sprintf("Announcement channel: <#%s>", channelID))
	case "clear":
		if !b.registries.Announcements.Clear(guildID) {
			b.acknowledge(interaction, "No announcement channel configured.")
			return
		}
		b.acknowledge(interaction, "Announcement channel cleared.")
	}
}

func pastTense(action string, changed bool) string {
	if !changed {
		return "unchanged for"
	}
	if action == "add" {
		return "added:"
	}
	return "removed:"
}

func mentionList(ids []string, prefix, suffix string) string {
	if len(ids) == 0 {
		return "None"
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = prefix + id + suffix
	}
	return strings.Join(out, ", ")
}

func (b *Bot) handleOwners(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, name string, options optionMap) {
	actorID := interactionUserID(interaction)
	owners := b.registries.Owners
	switch name {
	case "extraowner", "removeowner":
		if !owners.IsRoot(actorID) {
			b.respond(s, interaction, "Bot owner only.", true)
			return
		}
	default:
		if !b.isOwner(actorID) {
			b.respond(s, interaction, "Owner only.", true)
			return
		}
	}

	if name == "listowners" {
		b.acknowledge(interaction, formatOwners(owners.List()))
		return
	}

	target := options["user"].UserValue(s)
	if target == nil {
		b.respond(s, interaction, "User not found.", true)
		return
	}
	var text string
	switch name {
	case "extraowner":
		owners.GrantPermanent(target.ID)
		text = fmt.Sprintf("<@%s> is now an extra owner.", target.ID)
	case "tempowner":
		d, err := parseDuration(options.str("duration"))
		if err != nil {
			b.respond(s, interaction, "Invalid duration. Use values like 30m, 2h or 1d.", true)
			return
		}
		expires := owners.GrantTemporary(target.ID, d)
		text = fmt.Sprintf("<@%s> is a temporary owner until <t:%d:f>.", target.ID, expires.Unix())
	case "removeowner":
		if !owners.Revoke(target.ID) {
			b.acknowledge(interaction, fmt.Sprintf("<@%s> has no owner access.", target.ID))
			return
		}
		text = fmt.Sprintf("Owner access removed from <@%s>.", target.ID)
	}
	b.audit.Log(ctx, audit.Entry{GuildID: interaction.GuildID, LogType: audit.TypeOwner, UserID: target.ID, ModeratorID: actorID, Details: name})
	b.acknowledge(interaction, text)
}

func formatOwners(grants []session.OwnerGrant) string {
	if len(grants) == 0 {
		return "**Owners:** None"
	}
	lines := []string{"**Owners:**"}
	for _, g := range grants {
		if g.Permanent {
			lines = append(lines, fmt.Sprintf("<@%s> (permanent)", g.UserID))
			continue
		}
		lines = append(lines, fmt.Sprintf("<@%s> (expires <t:%d:R>)", g.UserID, g.ExpiresAt.Unix()))
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) handleVoice(ctx context.Context, s *discordgo.Session, interaction *discordgo.InteractionCreate, name string, options optionMap) {
	guildID := interaction.GuildID
	voice := b.registries.Voice
	actorID := interactionUserID(interaction)

	switch name {
	case "vdefend", "vundefend":
		target := options["user"].UserValue(s)
		if target == nil {
			b.respond(s, interaction, "User not found.", true)
			return
		}
		if name == "vdefend" {
			voice.Defend(guildID, target.ID)
			b.acknowledge(interaction, fmt.Sprintf("Voice defended <@%s> - User is now protected from voice actions", target.ID))
		} else {
			if !voice.Undefend(guildID, target.ID) {
				b.acknowledge(interaction, fmt.Sprintf("<@%s> was not defended.", target.ID))
				return
			}
			b.acknowledge(interaction, fmt.Sprintf("Voice undefended <@%s> - Protection has been removed", target.ID))
		}
		b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeVoice, UserID: target.ID, ModeratorID: actorID, Details: name})
	case "vdefended":
		b.acknowledge(interaction, "**Defended Users:** "+mentionList(voice.List(guildID), "<@", ">"))
	case "vclear":
		n := voice.Clear(guildID)
		if n > 0 {
			b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeVoice, ModeratorID: actorID, Details: fmt.Sprintf("cleared %d defended users", n)})
		}
		b.acknowledge(interaction, fmt.Sprintf("Voice protection removed from %d users", n))
	case "vmuteall":
		guild, err := s.State.Guild(guildID)
		if err != nil {
			b.respond(s, interaction, "Guild data is not available yet.", true)
			return
		}
		channelID := ""
		for _, vs := range guild.VoiceStates {
			if vs.UserID == actorID {
				channelID = vs.ChannelID
				break
			}
		}
		if channelID == "" {
			b.respond(s, interaction, "Join a voice channel first.", true)
			return
		}
		target := b.ack.Defer(interaction.Interaction)
		muted, skipped := 0, 0
		for _, vs := range guild.VoiceStates {
			if vs.ChannelID != channelID || vs.UserID == actorID {
				continue
			}
			if voice.IsDefended(guildID, vs.UserID) {
				skipped++
				continue
			}
			if err := s.GuildMemberMute(guildID, vs.UserID, true); err == nil {
				muted++
			}
		}
		b.audit.Log(ctx, audit.Entry{GuildID: guildID, LogType: audit.TypeVoice, ModeratorID: actorID, Details: fmt.Sprintf("muted %d in <#%s>", muted, channelID)})
		b.acknowledgeTarget(target, fmt.Sprintf("Muted %d users in <#%s>\n**Defended (skipped):** %d", muted, channelID, skipped))
	}
}

func (b *Bot) handleInvite(s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	link := InviteURL(s.State.User.ID, b.cfg.Invite.Permissions)
	text := fmt.Sprintf("**Invite me:** [click here](%s)", link)
	if b.cfg.Invite.ServerURL != "" {
		text += fmt.Sprintf("\n**Support server:** %s", b.cfg.Invite.ServerURL)
	}
	b.acknowledge(interaction, text)
}

func (b *Bot) sendWelcomeBack(channelID string, status session.AFKStatus) {
	embed := b.ack.Embed(status.UserID, fmt.Sprintf("**Welcome back!** <@%s>\nYou were AFK since <t:%d:R>", status.UserID, status.Since.Unix()))
	msg, err := b.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		b.logger.Debug("welcome back failed", zap.String("channel_id", channelID), zap.Error(err))
		return
	}
	time.AfterFunc(welcomeBackTTL, func() {
		_ = b.session.ChannelMessageDelete(channelID, msg.ID)
	})
}
