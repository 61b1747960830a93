package dashboard

import (
	"unicode/utf8"

	"github.com/huangsam/orgpulse/schema"
)

// KeyCode classifies a decoded key press.
type KeyCode int

// Key codes the dashboard reacts to. Everything printable is a KeyRune.
const (
	KeyUnknown KeyCode = iota
	KeyRune
	KeyUp
	KeyDown
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyCtrlC
)

// Key is one key press read from the terminal.
type Key struct {
	Code KeyCode
	Rune rune
}

// RuneKey returns the Key for a printable character.
func RuneKey(r rune) Key { return Key{Code: KeyRune, Rune: r} }

// Action is what a key press asks the dashboard to do.
type Action int

// All dashboard actions.
const (
	ActionNone Action = iota
	ActionQuit
	ActionBack
	ActionShowOrgs
	ActionShowRepos
	ActionShowContributors
	ActionShowSnapshots
	ActionUp
	ActionDown
	ActionActivate
	ActionSortName
	ActionSortCommits
	ActionSortLines
	ActionSortRepos
	ActionSortPRs
	ActionToggleOrder
	ActionCollect
)

var runeActions = map[rune]Action{
	'q': ActionQuit,
	'o': ActionShowOrgs,
	'r': ActionShowRepos,
	'u': ActionShowContributors,
	't': ActionShowSnapshots,
	'k': ActionUp,
	'j': ActionDown,
	'n': ActionSortName,
	'c': ActionSortCommits,
	'l': ActionSortLines,
	'R': ActionSortRepos,
	'p': ActionSortPRs,
	's': ActionToggleOrder,
	'S': ActionCollect,
}

var sortActions = map[Action]schema.SortField{
	ActionSortName:    schema.SortByName,
	ActionSortCommits: schema.SortByCommits,
	ActionSortLines:   schema.SortByLines,
	ActionSortRepos:   schema.SortByRepos,
	ActionSortPRs:     schema.SortByPRs,
}

// ActionFor maps a key press to its action.
func ActionFor(k Key) Action {
	switch k.Code {
	case KeyRune:
		return runeActions[k.Rune]
	case KeyUp:
		return ActionUp
	case KeyDown:
		return ActionDown
	case KeyEnter:
		return ActionActivate
	case KeyEsc, KeyBackspace:
		return ActionBack
	case KeyCtrlC:
		return ActionQuit
	}
	return ActionNone
}

// ParseKeys decodes raw terminal input into key presses.
// A lone ESC byte is the Escape key; ESC [ A/B and ESC O A/B are arrows.
// Unrecognized escape sequences are dropped.
func ParseKeys(buf []byte) []Key {
	var keys []Key
	for len(buf) > 0 {
		b := buf[0]
		switch {
		case b == 0x03:
			keys = append(keys, Key{Code: KeyCtrlC})
			buf = buf[1:]
		case b == '\r' || b == '\n':
			keys = append(keys, Key{Code: KeyEnter})
			buf = buf[1:]
		case b == 0x7f || b == 0x08:
			keys = append(keys, Key{Code: KeyBackspace})
			buf = buf[1:]
		case b == 0x1b:
			key, n := parseEscape(buf)
			if key.Code != KeyUnknown {
				keys = append(keys, key)
			}
			buf = buf[n:]
		case b < 0x20:
			buf = buf[1:]
		default:
			r, size := utf8.DecodeRune(buf)
			if r != utf8.RuneError {
				keys = append(keys, RuneKey(r))
			}
			buf = buf[size:]
		}
	}
	return keys
}

// parseEscape decodes the sequence at the start of buf and returns it with its length.
func parseEscape(buf []byte) (Key, int) {
	if len(buf) == 1 || (buf[1] != '[' && buf[1] != 'O') {
		return Key{Code: KeyEsc}, 1
	}
	if len(buf) < 3 {
		return Key{}, len(buf)
	}
	switch buf[2] {
	case 'A':
		return Key{Code: KeyUp}, 3
	case 'B':
		return Key{Code: KeyDown}, 3
	}
	// Skip the rest of a CSI sequence up to its final byte
	n := 2
	for n < len(buf) && (buf[n] < 0x40 || buf[n] > 0x7e) {
		n++
	}
	if n < len(buf) {
		n++
	}
	return Key{}, n
}
