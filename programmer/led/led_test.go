package led

import "testing"

func TestFirstSetLightsImmediately(t *testing.T) {
	s := New()
	s.Set(RDY)
	if !s.Physical(RDY) {
		t.Fatal("first-ever set of RDY must light immediately")
	}
}

func TestRateLimitedSecondToggle(t *testing.T) {
	s := New()
	s.Set(PGM)
	if !s.Physical(PGM) {
		t.Fatal("first set should apply immediately")
	}
	// A toggle in the opposite direction, issued immediately after, is
	// rate-limited: it must not yet be visible in Physical.
	s.Clr(PGM)
	if !s.Physical(PGM) {
		t.Fatal("rate-limited clear should not have taken effect yet")
	}
	if !s.Pending(PGM) {
		t.Fatal("rate-limited clear should be pending")
	}
}

func TestBegForcesAllOff(t *testing.T) {
	s := New()
	s.Set(RDY)
	s.Set(PGM)
	s.update(BEG, true)
	if s.Physical(RDY) || s.Physical(PGM) {
		t.Fatal("BEG must force all LEDs off immediately")
	}
}

func TestErrLatchesCurrentPgmVfyIntoEnd(t *testing.T) {
	s := New()
	s.Set(PGM)
	s.Set(ERR)
	if !s.end[PGM] {
		t.Fatal("raising ERR must latch the currently-set PGM bit into end")
	}
	if got := s.ExitMeaning(); got != "error-during-read-write-erase" {
		t.Fatalf("ExitMeaning = %q, want error-during-read-write-erase", got)
	}
}

func TestExitMeaningTable(t *testing.T) {
	cases := []struct {
		pgm, vfy, err bool
		want          string
	}{
		{false, false, false, "success"},
		{false, false, true, "non-rw-error"},
		{true, false, true, "error-during-read-write-erase"},
		{false, true, true, "verify-error-only"},
		{true, true, true, "both"},
	}
	for _, c := range cases {
		s := New()
		s.end[PGM], s.end[VFY], s.end[ERR] = c.pgm, c.vfy, c.err
		if got := s.ExitMeaning(); got != c.want {
			t.Errorf("pgm=%v vfy=%v err=%v: ExitMeaning = %q, want %q", c.pgm, c.vfy, c.err, got, c.want)
		}
	}
}

func TestEndAssertsFinalState(t *testing.T) {
	s := New()
	s.Set(PGM)
	s.Set(ERR)
	s.update(END, true)
	if s.Physical(RDY) {
		t.Fatal("END must force RDY off")
	}
	if !s.Physical(ERR) || !s.Physical(PGM) {
		t.Fatal("END must assert the accumulated end bits for ERR/PGM")
	}
}
