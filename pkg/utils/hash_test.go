package utils

import "testing"

func TestHashStrings_Deterministic(t *testing.T) {
	a := HashStrings("Imran Khan", "tough", "fair")
	b := HashStrings("Imran Khan", "tough", "fair")
	if a != b {
		t.Errorf("identical inputs must hash alike: %q vs %q", a, b)
	}
}

func TestHashStrings_PartBoundaries(t *testing.T) {
	// "ab" + "c" and "a" + "bc" concatenate identically; the separator
	// must keep them distinct.
	if HashStrings("ab", "c") == HashStrings("a", "bc") {
		t.Error("part boundaries must affect the hash")
	}
}

func TestHashStrings_OrderMatters(t *testing.T) {
	if HashStrings("a", "b") == HashStrings("b", "a") {
		t.Error("part order must affect the hash")
	}
}
