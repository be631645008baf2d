package utils

import "testing"

func TestPrettyTime(t *testing.T) {
	if got := PrettyTime(0); got != "0:00" {
		t.Errorf("PrettyTime(0) = %q, want %q", got, "0:00")
	}
	if got := PrettyTime(75); got != "1:15" {
		t.Errorf("PrettyTime(75) = %q, want %q", got, "1:15")
	}
	if got := PrettyTime(3661); got != "1:01:01" {
		t.Errorf("PrettyTime(3661) = %q, want %q", got, "1:01:01")
	}
}

func TestEscapeMd(t *testing.T) {
	if got := EscapeMd("a*b_c`d~e"); got != "a\\*b\\_c\\`d\\~e" {
		t.Errorf("EscapeMd = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hell…" {
		t.Errorf("Truncate cut = %q", got)
	}
	if got := Truncate("hello", 0); got != "" {
		t.Errorf("Truncate zero = %q", got)
	}
}
