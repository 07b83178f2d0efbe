// Package ui implements the interactive terminal the vault prompts
// through: bounded line reads, yes/no and bounded-integer questions, and
// echo-suppressed secret entry with echo restored on every exit path.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"

	"github.com/pwmkit/pwm/internal/report"
)

// Terminal reads prompts from stdin and writes them to stdout. Read
// failures on the controlling terminal are not recoverable mid-command, so
// they halt through the report package.
type Terminal struct {
	in    *bufio.Reader
	state *term.State
}

// New captures the current terminal state so echo can be restored by the
// shutdown hooks even if the process dies mid-read.
func New() *Terminal {
	t := &Terminal{in: bufio.NewReader(os.Stdin)}

	if state, err := term.GetState(int(os.Stdin.Fd())); err == nil {
		t.state = state
	}
	return t
}

// Restore puts the terminal back into the state captured at startup.
// Registered as a shutdown hook; safe to call repeatedly.
func (t *Terminal) Restore() {
	if t.state != nil {
		term.Restore(int(os.Stdin.Fd()), t.state)
	}
}

// Say prints a full message line.
func (t *Terminal) Say(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Ask prints a prompt fragment without a trailing newline.
func (t *Terminal) Ask(format string, args ...any) {
	fmt.Printf(format, args...)
}

// Line reads one line of at most max characters. Longer input is flushed to
// the next newline and the user is asked again.
func (t *Terminal) Line(max int) string {
	for {
		line, err := t.in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			report.Internal(fmt.Errorf("read standard input: %w", err))
		}

		line = trimNewline(line)
		if len(line) <= max {
			return line
		}

		t.Say("Entry is too long.  Try again:")
	}
}

// YesNo asks until it gets a recognizable answer. Empty input selects the
// default.
func (t *Terminal) YesNo(defaultYes bool) bool {
	for {
		switch t.Line(3) {
		case "":
			return defaultYes
		case "y", "Y", "yes", "Yes", "YES":
			return true
		case "n", "N", "no", "No", "NO":
			return false
		}

		t.Say("I don't understand.  Please answer yes or no.")
	}
}

// Uint asks until it gets an unsigned integer within [min, max].
func (t *Terminal) Uint(min, max uint) uint {
	for {
		line := t.Line(9)

		val, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			t.Say("Please enter a number.")
			continue
		}

		if uint(val) >= min && uint(val) <= max {
			return uint(val)
		}
		t.Say("Value must be between %d and %d.", min, max)
	}
}

// Secret reads a line of at most max characters with echo suppressed.
func (t *Terminal) Secret(max int) []byte {
	for {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			report.Internal(fmt.Errorf("read passphrase: %w", err))
		}

		if len(pw) <= max {
			return pw
		}

		for i := range pw {
			pw[i] = 0
		}
		t.Say("Entry is too long.  Try again:")
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
