package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBubblePickerSizeStandardTerminal(t *testing.T) {
	width, height := bubblePickerSize(90, 30, 3)
	if width != 86 {
		t.Fatalf("expected width 86, got %d", width)
	}
	if height != 9 {
		t.Fatalf("expected height 9, got %d", height)
	}
}

func TestBubblePickerSizeTinyTerminalStillFits(t *testing.T) {
	width, height := bubblePickerSize(20, 5, 25)
	if width > 20 {
		t.Fatalf("expected width to fit terminal, got %d", width)
	}
	if height > 5 {
		t.Fatalf("expected height to fit terminal, got %d", height)
	}
	if width <= 0 || height <= 0 {
		t.Fatalf("expected positive dimensions, got width=%d height=%d", width, height)
	}
}

func TestHuhSelectHeightBounds(t *testing.T) {
	if got := huhSelectHeight(0); got != 4 {
		t.Fatalf("expected minimum huh height 4, got %d", got)
	}
	if got := huhSelectHeight(3); got != 4 {
		t.Fatalf("expected huh height 4 for small lists, got %d", got)
	}
	if got := huhSelectHeight(20); got != 10 {
		t.Fatalf("expected max huh height 10, got %d", got)
	}
}

func usePlainIO(t *testing.T, input string) *bytes.Buffer {
	t.Helper()
	previousIn, previousOut := plainIn, plainOut
	out := &bytes.Buffer{}
	plainIn = strings.NewReader(input)
	plainOut = out
	t.Cleanup(func() {
		plainIn, plainOut = previousIn, previousOut
	})
	return out
}

func TestSelectIndexPlainReadsOneIndexedAnswer(t *testing.T) {
	out := usePlainIO(t, "2\n")
	idx, err := SelectIndex(BackendPlain, "Pick", "", []string{"ls", "ls -la", "ls -lah"})
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if !strings.Contains(out.String(), "  3. ls -lah") {
		t.Fatalf("expected 1-indexed listing, got %q", out.String())
	}
}

func TestSelectIndexPlainDefaultsToFirst(t *testing.T) {
	for _, answer := range []string{"\n", "abc\n", "9\n", "0\n"} {
		usePlainIO(t, answer)
		idx, err := SelectIndex(BackendPlain, "Pick", "", []string{"a", "b"})
		if err != nil {
			t.Fatalf("select failed for %q: %v", answer, err)
		}
		if idx != 0 {
			t.Fatalf("expected default index 0 for %q, got %d", answer, idx)
		}
	}
}

func TestSelectIndexPlainEOFIsAnError(t *testing.T) {
	usePlainIO(t, "")
	idx, err := SelectIndex(BackendPlain, "Pick", "", []string{"a", "b"})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected index 0 on error, got %d", idx)
	}
}

func TestSelectIndexSingleOptionNeedsNoPrompt(t *testing.T) {
	out := usePlainIO(t, "")
	idx, err := SelectIndex(BackendPlain, "Pick", "", []string{"only"})
	if err != nil || idx != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", idx, err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no prompt output, got %q", out.String())
	}
}

func TestConfirmPlain(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "sure\n": false}
	for answer, want := range cases {
		usePlainIO(t, answer)
		got, err := Confirm(BackendPlain, "Run this command?", "ls -la")
		if err != nil {
			t.Fatalf("confirm failed for %q: %v", answer, err)
		}
		if got != want {
			t.Fatalf("answer %q: expected %v, got %v", answer, want, got)
		}
	}
}

func TestPrinterCandidatesAreOneIndexed(t *testing.T) {
	var out bytes.Buffer
	NewPrinter(&out).Candidates([]string{"ls", "ls -la"})
	text := out.String()
	if !strings.Contains(text, "1. ") || !strings.Contains(text, "2. ") {
		t.Fatalf("expected numbered candidates, got %q", text)
	}
	if !strings.Contains(text, "ls -la") {
		t.Fatalf("expected candidate text, got %q", text)
	}
}
