package side

import "testing"

func TestOpponent(t *testing.T) {
	if White.Opponent() != Black || Black.Opponent() != White {
		t.Fatalf("opponent mapping broken")
	}
	if Color("red").Opponent() != "" {
		t.Fatalf("expected empty opponent for unknown color")
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Color{"white": White, "W": White, " black ": Black, "b": Black}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Fatalf("Parse(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := Parse("random"); ok {
		t.Fatalf("expected random to be rejected")
	}
}
