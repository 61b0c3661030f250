package bot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quarantianizo/internal/analytics"

	"golang.org/x/oauth2"
)

const discordAuthorizeURL = "https://discord.com/oauth2/authorize"

// parseDuration accepts Go durations plus a whole-day suffix such as "7d".
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

// InviteURL builds the bot authorization link for an application.
func InviteURL(appID string, permissions int64) string {
	conf := oauth2.Config{
		ClientID: appID,
		Endpoint: oauth2.Endpoint{AuthURL: discordAuthorizeURL},
		Scopes:   []string{"bot", "applications.commands"},
	}
	raw := conf.AuthCodeURL("", oauth2.SetAuthURLParam("permissions", strconv.FormatInt(permissions, 10)))
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Del("response_type")
	q.Del("state")
	u.RawQuery = q.Encode()
	return u.String()
}

func formatReport(report analytics.Report) string {
	if report.Total == 0 {
		return "No audit log entries."
	}
	lines := []string{fmt.Sprintf("**Audit summary** (%d entries)", report.Total)}
	for _, c := range report.Types() {
		lines = append(lines, fmt.Sprintf("`%s` %d", c.Key, c.Count))
	}
	if len(report.Moderators) > 0 {
		lines = append(lines, "**Top moderators:**")
		for i, c := range report.Moderators {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("<@%s> %d", c.Key, c.Count))
		}
	}
	lines = append(lines, fmt.Sprintf("**Range:** <t:%d:d> to <t:%d:d>", report.Oldest.Unix(), report.Newest.Unix()))
	return strings.Join(lines, "\n")
}
