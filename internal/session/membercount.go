package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrSessionExpired  = errors.New("membercount session expired")
	ErrNotSessionOwner = errors.New("membercount session belongs to another user")
)

const (
	PageBack    = "back"
	PageForward = "forward"
)

const DefaultMembercountTTL = time.Hour

type MemberJoin struct {
	UserID   string
	JoinedAt time.Time
}

type DayJoins struct {
	Date    time.Time
	Members []string
}

// MemberReport is computed once when the command runs; pages only move
// through Days.
type MemberReport struct {
	Total   int
	Users   int
	Bots    int
	Online  int
	Idle    int
	DND     int
	Offline int
	Days    []DayJoins
}

type MemberSession struct {
	Key       string
	UserID    string
	GuildID   string
	Page      int
	Report    MemberReport
	CreatedAt time.Time
}

func (s MemberSession) CurrentDay() (DayJoins, bool) {
	if s.Page < 0 || s.Page >= len(s.Report.Days) {
		return DayJoins{}, false
	}
	return s.Report.Days[s.Page], true
}

type Membercount struct {
	mu       sync.Mutex
	clock    Clock
	ttl      time.Duration
	sessions map[string]*MemberSession
}

func NewMembercount() *Membercount {
	return &Membercount{clock: realClock{}, ttl: DefaultMembercountTTL, sessions: make(map[string]*MemberSession)}
}

func (m *Membercount) WithClock(clock Clock) {
	m.clock = clock
}

// WithTTL sets how long a session can be paged. Non-positive values keep
// the current TTL.
func (m *Membercount) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		m.ttl = ttl
	}
}

func (m *Membercount) TTL() time.Duration {
	return m.ttl
}

// MembercountKey is embedded in the pagination button ids.
func MembercountKey(userID, guildID string) string {
	return key(userID, guildID)
}

func (m *Membercount) Create(userID, guildID string, report MemberReport) MemberSession {
	session := &MemberSession{
		Key:       MembercountKey(userID, guildID),
		UserID:    userID,
		GuildID:   guildID,
		Report:    report,
		CreatedAt: m.clock.Now(),
	}
	m.mu.Lock()
	m.sessions[session.Key] = session
	m.mu.Unlock()
	return *session
}

// Page moves the session one day back or forward, clamped to the report.
// Only the user who ran the command may page. Sessions older than the TTL
// are dropped and reported as expired.
func (m *Membercount) Page(sessionKey, actorID, direction string) (MemberSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionKey]
	if !ok {
		return MemberSession{}, ErrSessionExpired
	}
	if !session.CreatedAt.After(m.clock.Now().Add(-m.ttl)) {
		delete(m.sessions, sessionKey)
		return MemberSession{}, ErrSessionExpired
	}
	if session.UserID != actorID {
		return MemberSession{}, ErrNotSessionOwner
	}
	switch direction {
	case PageBack:
		if session.Page > 0 {
			session.Page--
		}
	case PageForward:
		if session.Page < len(session.Report.Days)-1 {
			session.Page++
		}
	}
	return *session, nil
}

// Sweep drops sessions older than ttl.
func (m *Membercount) Sweep(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.clock.Now().Add(-ttl)
	removed := 0
	for k, session := range m.sessions {
		if !session.CreatedAt.After(cutoff) {
			delete(m.sessions, k)
			removed++
		}
	}
	return removed
}

func (m *Membercount) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// BuildDailyJoins groups joins from the last days days by UTC date, newest
// day first. Days without joins are omitted.
func BuildDailyJoins(joins []MemberJoin, now time.Time, days int) []DayJoins {
	start := truncateDay(now).AddDate(0, 0, -(days - 1))
	groups := make(map[time.Time][]string)
	for _, join := range joins {
		day := truncateDay(join.JoinedAt)
		if day.Before(start) || day.After(now) {
			continue
		}
		groups[day] = append(groups[day], join.UserID)
	}

	result := make([]DayJoins, 0, len(groups))
	for day, members := range groups {
		sort.Strings(members)
		result = append(result, DayJoins{Date: day, Members: members})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
