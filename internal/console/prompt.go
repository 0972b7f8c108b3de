package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/samber/lo"

	"player-control/internal/player"
)

// Controller is the part of the orchestrator the prompt drives.
type Controller interface {
	Status() player.Status
	Do(ctx context.Context, fn func() error) error
	Dispatch(name string, args ...string) error
}

// Prompt reads intents line by line and runs them on the control
// goroutine.
type Prompt struct {
	ctrl Controller
	out  io.Writer
	in   io.ReadCloser
}

// NewPrompt returns a prompt writing to out. A nil in reads the terminal.
func NewPrompt(ctrl Controller, in io.ReadCloser, out io.Writer) *Prompt {
	return &Prompt{ctrl: ctrl, in: in, out: out}
}

// Interactive reports whether standard input is a terminal.
func Interactive() bool {
	return readline.IsTerminal(int(os.Stdin.Fd()))
}

// Run reads lines until quit, end of input or ctx is done.
func (p *Prompt) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "player> ",
		Stdin:           p.in,
		Stdout:          p.out,
		AutoComplete:    readline.NewPrefixCompleter(completions()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if quit := p.Exec(ctx, line); quit {
			return nil
		}
	}
}

// Exec runs one prompt line and reports whether the user asked to quit.
// Errors are printed, not returned.
func (p *Prompt) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit":
		return true
	case "help", "?":
		p.help()
		return false
	case "status":
		p.status()
		return false
	}

	err := p.ctrl.Do(ctx, func() error { return p.ctrl.Dispatch(name, args...) })
	if err != nil {
		fmt.Fprintln(p.out, badStyle.Render("error: ")+err.Error())
	}
	return false
}

func (p *Prompt) help() {
	lines := append(player.Intents(), "status", "help", "quit")
	fmt.Fprintln(p.out, boxStyle.Render(strings.Join(lines, "\n")))
}

func (p *Prompt) status() {
	st := p.ctrl.Status()
	rows := [][2]string{
		{"state", st.State.String()},
		{"uri", st.URI},
		{"item", fmt.Sprintf("%d/%d", st.Index+1, st.Count)},
		{"backend", st.Backend},
		{"aspect", st.Aspect},
		{"position", player.FormatTime(st.PositionMs) + " / " + player.FormatTime(st.DurationMs)},
	}
	if st.LastOutcome != "" {
		rows = append(rows, [2]string{"last", st.LastOutcome})
	}
	fmt.Fprintln(p.out, Table("", rows))
}

func completions() []readline.PrefixCompleterInterface {
	names := lo.Map(player.Intents(), func(usage string, _ int) string {
		return strings.Fields(usage)[0]
	})
	names = append(names, "play", "pause", "status", "help", "quit")
	return lo.Map(names, func(n string, _ int) readline.PrefixCompleterInterface {
		return readline.PcItem(n)
	})
}
