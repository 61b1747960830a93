package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when stdin or stdout is not an interactive terminal.
var ErrNotTerminal = errors.New("the dashboard needs an interactive terminal; use 'orgpulse report' instead")

const (
	enterAltScreen = "\x1b[?1049h\x1b[?25l"
	leaveAltScreen = "\x1b[?25h\x1b[?1049l"

	defaultWidth  = 80
	defaultHeight = 24
)

// Screen is what the loop draws on and reads keys from.
type Screen interface {
	io.Writer

	// PollKey waits up to timeout for a key press. A zero timeout does not wait.
	PollKey(timeout time.Duration) (Key, bool)

	// Size returns the screen width and height in cells.
	Size() (width, height int)
}

// Terminal is a Screen over the process's controlling terminal in raw mode.
type Terminal struct {
	in    *os.File
	out   *os.File
	state *term.State
	keys  chan Key
}

var _ Screen = &Terminal{} // Compile-time check

// OpenTerminal switches stdin to raw mode and starts reading keys.
// Close must be called to restore the terminal.
func OpenTerminal() (*Terminal, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t := &Terminal{
		in:    os.Stdin,
		out:   os.Stdout,
		state: state,
		keys:  make(chan Key, 64),
	}
	_, _ = io.WriteString(t.out, enterAltScreen)
	go t.readKeys()
	return t, nil
}

// readKeys decodes stdin until it fails. The goroutine stays blocked in Read
// after Close; the process is about to exit at that point.
func (t *Terminal) readKeys() {
	defer close(t.keys)
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		for _, k := range ParseKeys(buf[:n]) {
			t.keys <- k
		}
		if err != nil {
			return
		}
	}
}

// PollKey implements Screen. Once stdin is closed it reports Ctrl-C so the loop ends.
func (t *Terminal) PollKey(timeout time.Duration) (Key, bool) {
	if timeout <= 0 {
		select {
		case k, ok := <-t.keys:
			return keyOrQuit(k, ok), true
		default:
			return Key{}, false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case k, ok := <-t.keys:
		return keyOrQuit(k, ok), true
	case <-timer.C:
		return Key{}, false
	}
}

func keyOrQuit(k Key, ok bool) Key {
	if !ok {
		return Key{Code: KeyCtrlC}
	}
	return k
}

// Write implements io.Writer.
func (t *Terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// Size implements Screen.
func (t *Terminal) Size() (int, int) {
	width, height, err := term.GetSize(int(t.out.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return defaultWidth, defaultHeight
	}
	return width, height
}

// Close leaves the alternate screen and restores the terminal mode.
func (t *Terminal) Close() error {
	_, _ = io.WriteString(t.out, leaveAltScreen)
	return term.Restore(int(t.in.Fd()), t.state)
}
