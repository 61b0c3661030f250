package storage

import (
	"sort"
	"sync"
	"time"
)

type TicketPanel struct {
	GuildID   string
	ChannelID string
	MessageID string
	RoleID    string
	Message   string
}

type ActiveTicket struct {
	ChannelID string
	UserID    string
	GuildID   string
	Number    int
	CreatedAt time.Time
}

// Tickets holds support-ticket state in memory only. A restart clears it.
type Tickets struct {
	mu      sync.Mutex
	panels  map[string]TicketPanel
	active  map[string]ActiveTicket
	numbers map[string]int
}

func NewTickets() *Tickets {
	return &Tickets{
		panels:  make(map[string]TicketPanel),
		active:  make(map[string]ActiveTicket),
		numbers: make(map[string]int),
	}
}

func (t *Tickets) SavePanel(panel TicketPanel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.panels[panel.GuildID] = panel
}

func (t *Tickets) Panel(guildID string) (TicketPanel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	panel, ok := t.panels[guildID]
	return panel, ok
}

func (t *Tickets) SaveActive(ticket ActiveTicket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[ticket.ChannelID] = ticket
}

func (t *Tickets) Active(channelID string) (ActiveTicket, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ticket, ok := t.active[channelID]
	return ticket, ok
}

func (t *Tickets) DeleteActive(channelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[channelID]; !ok {
		return false
	}
	delete(t.active, channelID)
	return true
}

// FindUserTicket returns the channel of the user's open ticket in a guild.
func (t *Tickets) FindUserTicket(guildID, userID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for channelID, ticket := range t.active {
		if ticket.GuildID == guildID && ticket.UserID == userID {
			return channelID, true
		}
	}
	return "", false
}

// GuildTickets lists a guild's open tickets by number.
func (t *Tickets) GuildTickets(guildID string) []ActiveTicket {
	t.mu.Lock()
	var tickets []ActiveTicket
	for _, ticket := range t.active {
		if ticket.GuildID == guildID {
			tickets = append(tickets, ticket)
		}
	}
	t.mu.Unlock()

	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Number < tickets[j].Number })
	return tickets
}

// NextNumber issues the guild's next ticket number, starting at 1.
func (t *Tickets) NextNumber(guildID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.numbers[guildID]++
	return t.numbers[guildID]
}

func (t *Tickets) CurrentNumber(guildID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numbers[guildID]
}

// Reset clears panels and open tickets. Counters are kept so numbers are
// never reissued within a process.
func (t *Tickets) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.panels = make(map[string]TicketPanel)
	t.active = make(map[string]ActiveTicket)
}
