package storage

import "testing"

func TestNextNumberSequencePerGuild(t *testing.T) {
	tickets := NewTickets()
	for want := 1; want <= 5; want++ {
		if got := tickets.NextNumber("g1"); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if got := tickets.NextNumber("g2"); got != 1 {
		t.Fatalf("expected independent counter for g2, got %d", got)
	}
	if got := tickets.CurrentNumber("g1"); got != 5 {
		t.Fatalf("expected current 5, got %d", got)
	}
	if got := tickets.CurrentNumber("g3"); got != 0 {
		t.Fatalf("expected 0 for unused guild, got %d", got)
	}
}

func TestNextNumberConcurrent(t *testing.T) {
	tickets := NewTickets()
	const workers = 50
	seen := make(chan int, workers)
	for i := 0; i < workers; i++ {
		go func() { seen <- tickets.NextNumber("g1") }()
	}
	unique := make(map[int]bool)
	for i := 0; i < workers; i++ {
		n := <-seen
		if unique[n] {
			t.Fatalf("number %d issued twice", n)
		}
		unique[n] = true
	}
	if tickets.CurrentNumber("g1") != workers {
		t.Fatalf("expected counter %d, got %d", workers, tickets.CurrentNumber("g1"))
	}
}

func TestFindUserTicket(t *testing.T) {
	tickets := NewTickets()
	if _, ok := tickets.FindUserTicket("g1", "u1"); ok {
		t.Fatalf("expected no ticket")
	}
	tickets.SaveActive(ActiveTicket{ChannelID: "c1", UserID: "u1", GuildID: "g1", Number: tickets.NextNumber("g1")})
	tickets.SaveActive(ActiveTicket{ChannelID: "c2", UserID: "u1", GuildID: "g2", Number: tickets.NextNumber("g2")})

	channel, ok := tickets.FindUserTicket("g1", "u1")
	if !ok || channel != "c1" {
		t.Fatalf("expected c1, got %q", channel)
	}
	if _, ok := tickets.FindUserTicket("g1", "u2"); ok {
		t.Fatalf("other user should have no ticket")
	}

	if !tickets.DeleteActive("c1") {
		t.Fatalf("delete should report true")
	}
	if tickets.DeleteActive("c1") {
		t.Fatalf("second delete should report false")
	}
	if _, ok := tickets.FindUserTicket("g1", "u1"); ok {
		t.Fatalf("ticket should be closed")
	}
	if got := tickets.NextNumber("g1"); got != 2 {
		t.Fatalf("numbers must not be reused, got %d", got)
	}
}

func TestPanelReplace(t *testing.T) {
	tickets := NewTickets()
	tickets.SavePanel(TicketPanel{GuildID: "g1", ChannelID: "c1", Message: "open a ticket"})
	tickets.SavePanel(TicketPanel{GuildID: "g1", ChannelID: "c2", Message: "support"})
	panel, ok := tickets.Panel("g1")
	if !ok || panel.ChannelID != "c2" {
		t.Fatalf("expected replaced panel, got %+v", panel)
	}
}
