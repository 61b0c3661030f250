package session

import "sync"

type Announcements struct {
	mu       sync.Mutex
	channels map[string]string
}

func NewAnnouncements() *Announcements {
	return &Announcements{channels: make(map[string]string)}
}

func (a *Announcements) Set(guildID, channelID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channels[guildID] = channelID
}

func (a *Announcements) Get(guildID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	channelID, ok := a.channels[guildID]
	return channelID, ok
}

func (a *Announcements) Clear(guildID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.channels[guildID]
	delete(a.channels, guildID)
	return ok
}
