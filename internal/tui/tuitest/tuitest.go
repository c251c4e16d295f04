// Package tuitest holds helpers for driving bubbletea models in tests.
package tuitest

import (
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes ANSI escape codes from s.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// ContainsInOrder reports whether output contains every expected string in order.
func ContainsInOrder(output string, expected ...string) bool {
	last := 0
	for _, exp := range expected {
		i := strings.Index(output[last:], exp)
		if i == -1 {
			return false
		}
		last += i + len(exp)
	}
	return true
}

// KeyPress creates a rune key message, e.g. KeyPress("q").
func KeyPress(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// Key creates a key message of a special type, e.g. Key(tea.KeyCtrlU).
func Key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// Type returns one key message per rune of text.
func Type(text string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(text))
	for _, r := range text {
		msgs = append(msgs, KeyPress(string(r)))
	}
	return msgs
}

// Drain runs cmd and every command of nested batches, returning the messages
// they produce. Sequences are not expanded.
func Drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, Drain(c)...)
	}
	return out
}

// Find returns the first message of type T in msgs.
func Find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
