package bot

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"quarantianizo/internal/analytics"
	"quarantianizo/internal/session"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30m":   30 * time.Minute,
		"2h":    2 * time.Hour,
		"1d":    24 * time.Hour,
		" 7D ":  7 * 24 * time.Hour,
		"1h30m": 90 * time.Minute,
	}
	for raw, want := range cases {
		got, err := parseDuration(raw)
		if err != nil {
			t.Fatalf("parseDuration(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("parseDuration(%q) = %v, want %v", raw, got, want)
		}
	}

	for _, raw := range []string{"", "abc", "0d", "-5m", "xd"} {
		if _, err := parseDuration(raw); err == nil {
			t.Fatalf("parseDuration(%q) should fail", raw)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                            "0m",
		45 * time.Minute:             "45m",
		2 * time.Hour:                "2h",
		26*time.Hour + 5*time.Minute: "1d 2h 5m",
	}
	for d, want := range cases {
		if got := formatDuration(d); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestInviteURL(t *testing.T) {
	raw := InviteURL("1234", 8)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "discord.com" || u.Path != "/oauth2/authorize" {
		t.Fatalf("unexpected base %s", raw)
	}
	q := u.Query()
	if q.Get("client_id") != "1234" || q.Get("permissions") != "8" {
		t.Fatalf("unexpected query %s", u.RawQuery)
	}
	if q.Get("scope") != "bot applications.commands" {
		t.Fatalf("unexpected scope %q", q.Get("scope"))
	}
	if q.Has("response_type") {
		t.Fatalf("response_type should be removed: %s", raw)
	}
}

func TestHelpCardNavigation(t *testing.T) {
	if got := nextCard(1, helpPrev); got != 1 {
		t.Fatalf("prev from first = %d", got)
	}
	if got := nextCard(1, helpNext); got != 2 {
		t.Fatalf("next from first = %d", got)
	}
	last := len(helpCards)
	if got := nextCard(last, helpNext); got != last {
		t.Fatalf("next from last = %d", got)
	}
	if got := nextCard(99, ""); got != last {
		t.Fatalf("clamp = %d", got)
	}

	embed := helpEmbed(0x123456, 2)
	if embed.Title != helpCards[1].title || embed.Color != 0x123456 {
		t.Fatalf("unexpected embed %+v", embed)
	}
	if len(helpButtons(1)) != 1 {
		t.Fatalf("expected one action row")
	}
}

func TestParsePrefixCommand(t *testing.T) {
	name, args, ok := parsePrefixCommand("!", "!AFK lunch break")
	if !ok || name != "afk" || args != "lunch break" {
		t.Fatalf("got %q %q %v", name, args, ok)
	}
	if _, _, ok := parsePrefixCommand("!", "hello"); ok {
		t.Fatalf("plain message parsed as command")
	}
	if _, _, ok := parsePrefixCommand("!", "!"); ok {
		t.Fatalf("bare prefix parsed as command")
	}

	name, args, ok = splitCommand("  estats  ")
	if !ok || name != "estats" || args != "" {
		t.Fatalf("no-prefix split got %q %q %v", name, args, ok)
	}
}

func TestTicketChannelName(t *testing.T) {
	if got := ticketChannelName(7); got != "ticket-0007" {
		t.Fatalf("got %q", got)
	}
}

func TestClampLimit(t *testing.T) {
	if clampLimit(0, 10, 25) != 10 || clampLimit(40, 10, 25) != 25 || clampLimit(5, 10, 25) != 5 {
		t.Fatalf("clampLimit mismatch")
	}
}

func TestSmallGraph(t *testing.T) {
	if got := smallGraph(0, 10); got != "`-----`" {
		t.Fatalf("empty graph %q", got)
	}
	if got := smallGraph(10, 10); got != "`=====`" {
		t.Fatalf("full graph %q", got)
	}
	if got := smallGraph(3, 0); got != "`-----`" {
		t.Fatalf("zero total %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	if got := formatReport(analytics.Report{}); got != "No audit log entries." {
		t.Fatalf("empty report %q", got)
	}
	report := analytics.Report{
		Total:      3,
		ByType:     map[string]int{"ban": 2, "kick": 1},
		Moderators: []analytics.Count{{Key: "m1", Count: 3}},
		Oldest:     time.Unix(100, 0),
		Newest:     time.Unix(200, 0),
	}
	got := formatReport(report)
	for _, want := range []string{"(3 entries)", "`ban` 2", "`kick` 1", "<@m1> 3", "<t:100:d>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("report missing %q:\n%s", want, got)
		}
	}
}

func TestStripQuarantinedPartialFailureKeepsRecord(t *testing.T) {
	q := session.NewQuarantine()
	record := session.QuarantineRecord{GuildID: "g1", UserID: "u1", OriginalRoles: []string{"r1", "r2", "r3"}}
	q.Put(record)

	removed := map[string]bool{}
	failed, kept := stripQuarantined(q, record, func(roleID string) error {
		if roleID == "r2" {
			return errors.New("missing permissions")
		}
		removed[roleID] = true
		return nil
	})
	if failed != 1 || !kept || !removed["r1"] || !removed["r3"] {
		t.Fatalf("unexpected result failed=%d kept=%v removed=%v", failed, kept, removed)
	}
	if q.Put(record) {
		t.Fatalf("record should still be held")
	}
}

func TestStripQuarantinedTotalFailureAllowsRetry(t *testing.T) {
	q := session.NewQuarantine()
	record := session.QuarantineRecord{GuildID: "g1", UserID: "u1", OriginalRoles: []string{"r1", "r2"}}
	q.Put(record)

	failed, kept := stripQuarantined(q, record, func(string) error { return errors.New("missing permissions") })
	if failed != 2 || kept {
		t.Fatalf("expected record dropped, got failed=%d kept=%v", failed, kept)
	}
	if !q.Put(record) {
		t.Fatalf("a retry should be able to quarantine again")
	}
}
