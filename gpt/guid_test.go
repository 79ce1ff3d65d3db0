package gpt

import "testing"

func TestGuidRoundTrip(t *testing.T) {
	const s = "01234567-89AB-CDEF-0123-456789ABCDEF"
	g, err := parseGUID(s)
	if err != nil {
		t.Fatalf("parseGUID(%q): %v", s, err)
	}
	if got := guidToStr(g); got != s {
		t.Fatalf("guidToStr(parseGUID(%q)) = %q, want %q", s, got, s)
	}
}

func TestParseGUIDRejectsGarbage(t *testing.T) {
	if _, err := parseGUID("not-a-guid"); err == nil {
		t.Fatal("expected error parsing a malformed GUID string")
	}
	if !IsKind(func() error { _, err := parseGUID("nope"); return err }(), BadArgument) {
		t.Fatal("expected a BadArgument-kind error")
	}
}

func TestZeroGUIDIsUnused(t *testing.T) {
	e := GptEntry{TypeGUID: ZeroGUID}
	if !e.IsUnused() {
		t.Fatal("an entry with the zero type GUID must report IsUnused")
	}
}
