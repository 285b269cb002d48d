package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Die Erpressung", "Die Erpressung"},
		{"Auf der Flucht: 1", "Auf der Flucht- 1"},
		{"A/B\\C", "A-B-C"},
		{"What?", "What"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTitleNFC(t *testing.T) {
	// "ü" precomposed (U+00FC) vs decomposed (u + U+0308).
	precomposed := "Der Bürge"
	decomposed := "Der Bürge"
	if NormalizeTitle(precomposed) != NormalizeTitle(decomposed) {
		t.Fatal("NFC normalization should unify composed and decomposed forms")
	}
}

func TestNormalizeTitleCollapsesWhitespace(t *testing.T) {
	if got := NormalizeTitle("Die  \t Erpressung "); got != "Die Erpressung" {
		t.Fatalf("unexpected result: %q", got)
	}
}
