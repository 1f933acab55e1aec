package engine

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSummarizeKeepsRunesWhole(t *testing.T) {
	short := errors.New("connection refused")
	if got := summarize(short); got != "connection refused" {
		t.Errorf("summarize(short) = %q, want the message unchanged", got)
	}

	// Two bytes per rune, so the byte limit lands mid-rune without a
	// boundary-aware cut.
	long := errors.New(strings.Repeat("ü", maxSummaryLen))
	got := summarize(long)
	if len(got) > maxSummaryLen {
		t.Errorf("summary is %d bytes, limit is %d", len(got), maxSummaryLen)
	}
	if !utf8.ValidString(got) {
		t.Errorf("summary is not valid UTF-8: %q", got)
	}
	if want := strings.Repeat("ü", maxSummaryLen/2); got != want {
		t.Errorf("summary = %d runes, want %d whole runes", utf8.RuneCountInString(got), maxSummaryLen/2)
	}
}
