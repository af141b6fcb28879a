// Package console is an interactive line-oriented front end for a session.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/menta2k/image-chat/pkg/session"
)

// ErrQuit is returned by Execute for the quit command
var ErrQuit = errors.New("quit")

const help = `commands:
  :file <path>      select an image
  :prompt <text>    set the prompt (a bare line does the same)
  :endpoint <host>  set the endpoint domain
  :key <key>        set the API access key
  :analyze          send the image and prompt
  :html             print the last answer as HTML
  :state            show the current state
  :config           toggle the configuration dialog
  :quit             exit`

// Console dispatches commands to a session
type Console struct {
	session *session.Session
	out     io.Writer
}

// New creates a console writing its output to out
func New(s *session.Session, out io.Writer) *Console {
	return &Console{session: s, out: out}
}

// Run reads lines from a readline prompt until EOF, interrupt or :quit
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return err
	}
	var closeOnce sync.Once
	closeRL := func() {
		closeOnce.Do(func() { _ = rl.Close() })
	}
	defer closeRL()
	c.out = rl.Stdout()

	// Unblock Readline when the caller gives up
	stop := context.AfterFunc(ctx, closeRL)
	defer stop()

	fmt.Fprintln(c.out, help)
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		if err := c.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintln(c.out, "error:", err)
		}
	}
}

// Execute runs a single console line
func (c *Console) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		c.session.EditPrompt(line)
		return nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "file":
		return c.selectFile(arg)
	case "prompt":
		c.session.EditPrompt(arg)
	case "endpoint":
		return c.session.EditConfig(session.FieldEndpoint, arg)
	case "key":
		return c.session.EditConfig(session.FieldAPIKey, arg)
	case "analyze":
		return c.analyze(ctx)
	case "html":
		st := c.session.Snapshot()
		fmt.Fprintln(c.out, st.HTML)
	case "state":
		c.printState()
	case "config":
		if c.session.ToggleConfigDialog() {
			st := c.session.Snapshot()
			fmt.Fprintf(c.out, "endpoint: %s\napi key set: %t\n", st.Endpoint, st.HasAPIKey)
		} else {
			fmt.Fprintln(c.out, "configuration closed")
		}
	case "help":
		fmt.Fprintln(c.out, help)
	case "quit", "q", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command :%s", cmd)
	}
	return nil
}

func (c *Console) selectFile(path string) error {
	if path == "" {
		return errors.New("usage: :file <path>")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.session.SelectFile(path, f); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "selected %s\n", path)
	return nil
}

func (c *Console) analyze(ctx context.Context) error {
	res, err := c.session.Analyze(ctx)
	if err != nil {
		return err
	}
	if res.Failed() {
		fmt.Fprintln(c.out, res.Message)
		return nil
	}
	fmt.Fprintln(c.out, res.Text)
	return nil
}

func (c *Console) printState() {
	st := c.session.Snapshot()
	image := "(none)"
	if st.ImageName != "" {
		image = st.ImageName
	}
	fmt.Fprintf(c.out, "endpoint: %s\napi key set: %t\nimage: %s\nprompt: %s\n", st.Endpoint, st.HasAPIKey, image, st.Prompt)
	if st.Result != nil {
		fmt.Fprintf(c.out, "last result: %s\n", st.Result.Kind)
	}
}
