package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const GiveawayPrefix = "giveaway_"

type Giveaway struct {
	ID          string
	Title       string
	Description string
	Prize       string
	ImageURL    string
	WinnerCount int
	ChannelID   string
	MessageID   string
	HostID      string
	EndsAt      time.Time
}

type GiveawayResult struct {
	Giveaway     Giveaway
	Participants int
	Winners      []string
}

type JoinResult struct {
	Giveaway     Giveaway
	Participants int
	Already      bool
}

type giveawayEntry struct {
	giveaway     Giveaway
	participants map[string]struct{}
	order        []string
	timer        Timer
}

type Giveaways struct {
	mu      sync.Mutex
	clock   Clock
	rng     *rand.Rand
	entries map[string]*giveawayEntry
}

func NewGiveaways() *Giveaways {
	return &Giveaways{
		clock:   realClock{},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]*giveawayEntry),
	}
}

func (g *Giveaways) WithClock(clock Clock) {
	g.clock = clock
}

func (g *Giveaways) WithRand(rng *rand.Rand) {
	g.mu.Lock()
	g.rng = rng
	g.mu.Unlock()
}

// Start registers a giveaway running for duration and returns its id,
// which doubles as the join button's custom id. onEnd runs after the draw.
func (g *Giveaways) Start(giveaway Giveaway, duration time.Duration, onEnd func(GiveawayResult)) Giveaway {
	giveaway.ID = GiveawayPrefix + uuid.NewString()
	giveaway.EndsAt = g.clock.Now().Add(duration)

	entry := &giveawayEntry{giveaway: giveaway, participants: make(map[string]struct{})}
	g.mu.Lock()
	g.entries[giveaway.ID] = entry
	entry.timer = g.clock.AfterFunc(duration, func() {
		result, ok := g.End(giveaway.ID)
		if ok && onEnd != nil {
			onEnd(result)
		}
	})
	g.mu.Unlock()
	return giveaway
}

// SetMessage records the message carrying the join button.
func (g *Giveaways) SetMessage(id, messageID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.entries[id]; ok {
		entry.giveaway.MessageID = messageID
	}
}

func (g *Giveaways) Join(id, userID string) (JoinResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[id]
	if !ok {
		return JoinResult{}, false
	}
	_, already := entry.participants[userID]
	if !already {
		entry.participants[userID] = struct{}{}
		entry.order = append(entry.order, userID)
	}
	return JoinResult{Giveaway: entry.giveaway, Participants: len(entry.participants), Already: already}, true
}

// End draws the winners and removes the giveaway. It reports false when
// the giveaway already ended or was cancelled.
func (g *Giveaways) End(id string) (GiveawayResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[id]
	if !ok {
		return GiveawayResult{}, false
	}
	delete(g.entries, id)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	return GiveawayResult{
		Giveaway:     entry.giveaway,
		Participants: len(entry.order),
		Winners:      DrawWinners(g.rng, entry.order, entry.giveaway.WinnerCount),
	}, true
}

func (g *Giveaways) Cancel(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[id]
	if !ok {
		return false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(g.entries, id)
	return true
}

func (g *Giveaways) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// DrawWinners picks min(count, len(participants)) distinct participants
// uniformly at random. participants is not modified.
func DrawWinners(rng *rand.Rand, participants []string, count int) []string {
	if count > len(participants) {
		count = len(participants)
	}
	if count <= 0 {
		return nil
	}
	pool := append([]string(nil), participants...)
	for i := 0; i < count; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}
