package filter

import "testing"

func TestNoPatternsTracksEverything(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Classify("anything"); got != Track {
		t.Fatalf("got %v, want Track", got)
	}
}

func TestFirstMatchWins(t *testing.T) {
	f, err := New([]Pattern{
		{Expr: "^DEBUG", Action: Bypass},
		{Expr: "ERROR", Action: Track},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Classify("DEBUG: ERROR seen"); got != Bypass {
		t.Fatalf("got %v, want Bypass (first pattern should win)", got)
	}
	if got := f.Classify("plain ERROR line"); got != Track {
		t.Fatalf("got %v, want Track", got)
	}
}

func TestAllowListSemanticsWhenTrackPresent(t *testing.T) {
	f, err := New([]Pattern{
		{Expr: "^KEEP", Action: Track},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Classify("KEEP this"); got != Track {
		t.Fatalf("got %v, want Track", got)
	}
	if got := f.Classify("drop this"); got != Bypass {
		t.Fatalf("got %v, want Bypass (allow-list default)", got)
	}
}

func TestDenyListSemanticsWhenOnlyBypassPresent(t *testing.T) {
	f, err := New([]Pattern{
		{Expr: "^NOISE", Action: Bypass},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Classify("NOISE line"); got != Bypass {
		t.Fatalf("got %v, want Bypass", got)
	}
	if got := f.Classify("anything else"); got != Track {
		t.Fatalf("got %v, want Track (deny-list default)", got)
	}
}

func TestBadPatternIsFatalConfigError(t *testing.T) {
	_, err := New([]Pattern{{Expr: "(unclosed", Action: Track}})
	if err == nil {
		t.Fatalf("expected compile error for malformed pattern")
	}
}
