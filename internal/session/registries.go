package session

// Registries is the process-lifetime state shared by command handlers.
// Nothing here survives a restart.
type Registries struct {
	AFK           *AFK
	Giveaways     *Giveaways
	Bypass        *RoleSets
	NPRoles       *RoleSets
	Owners        *Owners
	Membercount   *Membercount
	Voice         *Voice
	Eval          *EvalMode
	Quarantine    *Quarantine
	Announcements *Announcements
}

func New(rootOwnerID string) *Registries {
	return &Registries{
		AFK:           NewAFK(),
		Giveaways:     NewGiveaways(),
		Bypass:        NewRoleSets(),
		NPRoles:       NewRoleSets(),
		Owners:        NewOwners(rootOwnerID),
		Membercount:   NewMembercount(),
		Voice:         NewVoice(),
		Eval:          NewEvalMode(),
		Quarantine:    NewQuarantine(),
		Announcements: NewAnnouncements(),
	}
}

// WithClock swaps the clock on every registry that reads time.
func (r *Registries) WithClock(clock Clock) {
	r.AFK.WithClock(clock)
	r.Giveaways.WithClock(clock)
	r.Owners.WithClock(clock)
	r.Membercount.WithClock(clock)
	r.Quarantine.WithClock(clock)
}
