package lyrics

import "testing"

func TestCleanTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Bohemian Rhapsody (Official Video)", "Bohemian Rhapsody"},
		{"Take On Me [Remastered]", "Take On Me"},
		{"Africa | Toto", "Africa"},
		{"Plain Title", "Plain Title"},
		{"(leading paren kept)", "(leading paren kept)"},
	}
	for _, c := range cases {
		if got := cleanTitle(c.in); got != c.want {
			t.Errorf("cleanTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
