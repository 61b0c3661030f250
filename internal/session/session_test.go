package session

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	at      time.Time
	stopped bool
	fn      func()
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{at: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves time forward and fires due timers that were not stopped.
func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	var due, pending []*fakeTimer
	for _, timer := range f.timers {
		switch {
		case timer.stopped:
		case !timer.at.After(f.now):
			due = append(due, timer)
		default:
			pending = append(pending, timer)
		}
	}
	f.timers = pending
	f.mu.Unlock()
	for _, timer := range due {
		timer.fn()
	}
}

func TestAFKReturnClears(t *testing.T) {
	afk := NewAFK()
	afk.WithClock(newFakeClock())
	afk.Set("g1", "u1", "lunch", 0, nil)

	status, ok := afk.Get("g1", "u1")
	if !ok || status.Reason != "lunch" {
		t.Fatalf("expected afk status, got %+v", status)
	}
	if _, ok := afk.Get("g2", "u1"); ok {
		t.Fatalf("afk must be scoped to the guild")
	}
	if _, ok := afk.Return("g1", "u1"); !ok {
		t.Fatalf("expected return to find status")
	}
	if _, ok := afk.Return("g1", "u1"); ok {
		t.Fatalf("second return should find nothing")
	}
}

func TestAFKTimerAutoClears(t *testing.T) {
	clock := newFakeClock()
	afk := NewAFK()
	afk.WithClock(clock)

	var returned []AFKStatus
	afk.Set("g1", "u1", "brb", 10*time.Minute, func(s AFKStatus) { returned = append(returned, s) })

	clock.Advance(5 * time.Minute)
	if len(returned) != 0 {
		t.Fatalf("timer fired early")
	}
	clock.Advance(5 * time.Minute)
	if len(returned) != 1 || returned[0].Reason != "brb" {
		t.Fatalf("expected one welcome back, got %+v", returned)
	}
	if _, ok := afk.Get("g1", "u1"); ok {
		t.Fatalf("status should be cleared")
	}
}

func TestAFKReplaceStopsOldTimer(t *testing.T) {
	clock := newFakeClock()
	afk := NewAFK()
	afk.WithClock(clock)

	fired := 0
	afk.Set("g1", "u1", "first", time.Minute, func(AFKStatus) { fired++ })
	afk.Set("g1", "u1", "second", time.Hour, func(AFKStatus) { fired++ })

	clock.Advance(2 * time.Minute)
	if fired != 0 {
		t.Fatalf("replaced timer should not fire")
	}
	status, ok := afk.Get("g1", "u1")
	if !ok || status.Reason != "second" {
		t.Fatalf("expected second status, got %+v", status)
	}
}

func TestDrawWinnersDistinctAndCapped(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	participants := []string{"a", "b", "c"}
	for i := 0; i < 50; i++ {
		winners := DrawWinners(rng, participants, 5)
		if len(winners) != 3 {
			t.Fatalf("expected 3 winners, got %d", len(winners))
		}
		seen := map[string]bool{}
		for _, w := range winners {
			if seen[w] {
				t.Fatalf("duplicate winner %s", w)
			}
			seen[w] = true
		}
	}
	if participants[0] != "a" || participants[1] != "b" || participants[2] != "c" {
		t.Fatalf("participants were modified: %v", participants)
	}
	if winners := DrawWinners(rng, nil, 3); len(winners) != 0 {
		t.Fatalf("expected no winners without participants")
	}
}

func TestGiveawayLifecycle(t *testing.T) {
	clock := newFakeClock()
	giveaways := NewGiveaways()
	giveaways.WithClock(clock)
	giveaways.WithRand(rand.New(rand.NewSource(7)))

	var results []GiveawayResult
	g := giveaways.Start(Giveaway{Title: "Nitro", Prize: "1 month", WinnerCount: 5}, 10*time.Minute, func(r GiveawayResult) {
		results = append(results, r)
	})
	if len(g.ID) <= len(GiveawayPrefix) || g.ID[:len(GiveawayPrefix)] != GiveawayPrefix {
		t.Fatalf("unexpected id %q", g.ID)
	}

	for _, user := range []string{"u1", "u2", "u3"} {
		if _, ok := giveaways.Join(g.ID, user); !ok {
			t.Fatalf("join failed")
		}
	}
	again, _ := giveaways.Join(g.ID, "u1")
	if !again.Already || again.Participants != 3 {
		t.Fatalf("expected idempotent join, got %+v", again)
	}

	clock.Advance(10 * time.Minute)
	if len(results) != 1 {
		t.Fatalf("expected draw at end time")
	}
	if len(results[0].Winners) != 3 || results[0].Participants != 3 {
		t.Fatalf("expected 3 winners from 3 participants, got %+v", results[0])
	}
	if _, ok := giveaways.Join(g.ID, "u4"); ok {
		t.Fatalf("ended giveaway should reject joins")
	}
	if giveaways.Len() != 0 {
		t.Fatalf("entry should be deleted")
	}
}

func TestGiveawayNoParticipants(t *testing.T) {
	clock := newFakeClock()
	giveaways := NewGiveaways()
	giveaways.WithClock(clock)

	var results []GiveawayResult
	g := giveaways.Start(Giveaway{WinnerCount: 1}, time.Minute, func(r GiveawayResult) { results = append(results, r) })
	clock.Advance(time.Minute)
	if len(results) != 1 || len(results[0].Winners) != 0 {
		t.Fatalf("expected empty draw, got %+v", results)
	}
	if _, ok := giveaways.Join(g.ID, "late"); ok || giveaways.Len() != 0 {
		t.Fatalf("entry should be deleted")
	}
}

func TestGiveawayCancel(t *testing.T) {
	clock := newFakeClock()
	giveaways := NewGiveaways()
	giveaways.WithClock(clock)

	fired := false
	g := giveaways.Start(Giveaway{WinnerCount: 1}, time.Minute, func(GiveawayResult) { fired = true })
	if !giveaways.Cancel(g.ID) {
		t.Fatalf("cancel should report true")
	}
	clock.Advance(time.Hour)
	if fired {
		t.Fatalf("cancelled giveaway must not draw")
	}
}

func TestRoleSetsIdempotent(t *testing.T) {
	roles := NewRoleSets()
	if !roles.Add("g1", "r1") {
		t.Fatalf("first add should report true")
	}
	if roles.Add("g1", "r1") {
		t.Fatalf("second add should report false")
	}
	if got := roles.List("g1"); len(got) != 1 {
		t.Fatalf("expected one role, got %v", got)
	}
	if !roles.HasAny("g1", []string{"x", "r1"}) {
		t.Fatalf("expected match")
	}
	if !roles.Remove("g1", "r1") || roles.Remove("g1", "r1") {
		t.Fatalf("remove should be idempotent")
	}
	if roles.Has("g1", "r1") {
		t.Fatalf("role should be gone")
	}
}

func TestOwnersTemporaryExpiry(t *testing.T) {
	clock := newFakeClock()
	owners := NewOwners("root")
	owners.WithClock(clock)

	if !owners.IsOwner("root") {
		t.Fatalf("root is always an owner")
	}
	owners.GrantPermanent("p1")
	owners.GrantTemporary("t1", time.Hour)
	owners.GrantTemporary("t2", 2*time.Hour)

	if !owners.IsOwner("t1") || !owners.IsOwner("p1") {
		t.Fatalf("expected grants active")
	}
	clock.Advance(time.Hour)
	if owners.IsOwner("t1") {
		t.Fatalf("t1 should have expired")
	}
	if got := owners.List(); len(got) != 2 || !got[0].Permanent || got[1].UserID != "t2" {
		t.Fatalf("unexpected grants %+v", got)
	}
	clock.Advance(time.Hour)
	if removed := owners.Sweep(); removed != 1 {
		t.Fatalf("expected sweep of t2, got %d", removed)
	}
	if !owners.Revoke("p1") || owners.IsOwner("p1") {
		t.Fatalf("revoke failed")
	}
}

func TestMembercountPaging(t *testing.T) {
	clock := newFakeClock()
	mc := NewMembercount()
	mc.WithClock(clock)

	now := clock.Now()
	days := BuildDailyJoins([]MemberJoin{
		{UserID: "a", JoinedAt: now.Add(-1 * time.Hour)},
		{UserID: "b", JoinedAt: now.AddDate(0, 0, -1)},
		{UserID: "c", JoinedAt: now.AddDate(0, 0, -3)},
		{UserID: "old", JoinedAt: now.AddDate(0, 0, -40)},
	}, now, 30)
	if len(days) != 3 || days[0].Members[0] != "a" {
		t.Fatalf("unexpected days %+v", days)
	}

	session := mc.Create("u1", "g1", MemberReport{Total: 10, Days: days})
	if session.Key != "u1:g1" {
		t.Fatalf("unexpected key %q", session.Key)
	}

	if _, err := mc.Page(session.Key, "u2", PageForward); !errors.Is(err, ErrNotSessionOwner) {
		t.Fatalf("expected owner check, got %v", err)
	}
	got, _ := mc.Page(session.Key, "u1", PageBack)
	if got.Page != 0 {
		t.Fatalf("back at first page should stay at 0")
	}
	for i := 0; i < 5; i++ {
		got, _ = mc.Page(session.Key, "u1", PageForward)
	}
	if got.Page != 2 {
		t.Fatalf("forward should clamp at last day, got %d", got.Page)
	}
	if day, ok := got.CurrentDay(); !ok || day.Members[0] != "c" {
		t.Fatalf("unexpected day %+v", day)
	}

	other := mc.Create("u3", "g1", MemberReport{Days: days})
	if _, err := mc.Page(other.Key, "u1", PageForward); !errors.Is(err, ErrNotSessionOwner) {
		t.Fatalf("session owner comes from the session, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	if removed := mc.Sweep(time.Hour); removed != 2 {
		t.Fatalf("expected session swept, got %d", removed)
	}
	if _, err := mc.Page(session.Key, "u1", PageForward); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestMembercountPageExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	mc := NewMembercount()
	mc.WithClock(clock)
	mc.WithTTL(time.Hour)

	days := BuildDailyJoins([]MemberJoin{
		{UserID: "a", JoinedAt: clock.Now()},
		{UserID: "b", JoinedAt: clock.Now().AddDate(0, 0, -2)},
	}, clock.Now(), 30)
	session := mc.Create("u1", "g1", MemberReport{Days: days})

	clock.Advance(59 * time.Minute)
	if got, err := mc.Page(session.Key, "u1", PageForward); err != nil || got.Page != 1 {
		t.Fatalf("live session should page, got %+v err=%v", got, err)
	}

	clock.Advance(3 * time.Hour)
	if _, err := mc.Page(session.Key, "u1", PageForward); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired after ttl, got %v", err)
	}
	if mc.Len() != 0 {
		t.Fatalf("expired session should be removed on access")
	}

	mc.WithTTL(0)
	if mc.TTL() != time.Hour {
		t.Fatalf("non-positive ttl should be ignored, got %s", mc.TTL())
	}
}

func TestEvalToggle(t *testing.T) {
	eval := NewEvalMode()
	if !eval.Toggle("u1") || !eval.Active("u1") {
		t.Fatalf("toggle should enable")
	}
	if eval.Toggle("u1") || eval.Active("u1") {
		t.Fatalf("toggle should disable")
	}
	if eval.Exit("u1") {
		t.Fatalf("exit when inactive should report false")
	}
}

func TestQuarantineKeepsFirstRecord(t *testing.T) {
	q := NewQuarantine()
	q.WithClock(newFakeClock())
	if !q.Put(QuarantineRecord{GuildID: "g1", UserID: "u1", OriginalRoles: []string{"r1", "r2"}}) {
		t.Fatalf("first put should succeed")
	}
	if q.Put(QuarantineRecord{GuildID: "g1", UserID: "u1"}) {
		t.Fatalf("second put should not overwrite")
	}
	record, ok := q.Release("g1", "u1")
	if !ok || len(record.OriginalRoles) != 2 {
		t.Fatalf("expected original roles, got %+v", record)
	}
	if _, ok := q.Release("g1", "u1"); ok {
		t.Fatalf("release twice should report false")
	}
}

func TestVoiceDefended(t *testing.T) {
	v := NewVoice()
	v.Defend("g1", "u2")
	v.Defend("g1", "u1")
	if v.Defend("g1", "u1") {
		t.Fatalf("defend twice should report false")
	}
	if got := v.List("g1"); len(got) != 2 || got[0] != "u1" {
		t.Fatalf("unexpected list %v", got)
	}
	if v.IsDefended("g2", "u1") {
		t.Fatalf("scoped per guild")
	}
	if n := v.Clear("g1"); n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
}
