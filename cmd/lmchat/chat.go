package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lmchat/internal/app"
	"lmchat/internal/chat"
	"lmchat/internal/manager"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var noPull bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat (Ctrl-C stops a reply, Ctrl-D or /exit quits)",
		Long: "Starts an interactive conversation with the local model. The model is\n" +
			"downloaded first when missing. Commands: /reset starts a new conversation,\n" +
			"/exit quits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := opts.openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			if !a.ModelPresent() {
				if noPull {
					return fmt.Errorf("model not found at %s (run `lmchat pull`)", a.Config().ModelPath)
				}
				pp := newProgressPrinter(cmd.ErrOrStderr())
				if err := a.Download(ctx, "", "", pp.handle); err != nil {
					return err
				}
			}
			return runChat(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout(), notifyInterrupt, log)
		},
	}
	cmd.Flags().BoolVar(&noPull, "no-pull", false, "Fail instead of downloading a missing model")
	return cmd
}

// interruptFunc subscribes to Ctrl-C for the duration of one reply. The
// returned func unsubscribes.
type interruptFunc func() (<-chan os.Signal, func())

// notifyInterrupt captures SIGINT only while a reply streams, so Ctrl-C at
// the prompt keeps its default meaning.
func notifyInterrupt() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// runChat drives the read-eval-print loop until EOF or /exit.
func runChat(ctx context.Context, a *app.App, in io.Reader, out io.Writer, interrupt interruptFunc, log zerolog.Logger) error {
	if err := a.Initialize(ctx, ""); err != nil {
		return err
	}
	transcript := chat.NewTranscriptWithSystem(a.Config().SystemPrompt)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	prompt := func() { fmt.Fprint(out, "> ") }
	prompt()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			prompt()
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			a.Cleanup()
			if err := a.Initialize(ctx, ""); err != nil {
				return err
			}
			transcript = chat.NewTranscriptWithSystem(a.Config().SystemPrompt)
			fmt.Fprintln(out, "(new conversation)")
			prompt()
			continue
		}
		transcript.AddUser(line)
		if err := streamReply(ctx, a.Manager(), transcript, line, out, interrupt); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() == nil {
				fmt.Fprintln(out, "[stopped]")
			} else {
				log.Warn().Err(err).Msg("reply failed")
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		prompt()
	}
	return sc.Err()
}

// streamReply prints the reply as it arrives and records it in transcript.
func streamReply(ctx context.Context, m *manager.Manager, transcript *chat.Transcript, text string, out io.Writer, interrupt interruptFunc) error {
	var interrupts <-chan os.Signal
	if interrupt != nil {
		ch, stop := interrupt()
		defer stop()
		interrupts = ch
	}
	s, err := m.Send(ctx, text)
	if err != nil {
		return err
	}
	defer s.Close()
	transcript.Begin(chat.RoleAssistant)
	defer transcript.Finish()
	printed := 0
	for {
		select {
		case c, ok := <-s.Chunks():
			if !ok {
				fmt.Fprintln(out)
				return s.Err()
			}
			transcript.Apply(s.Mode(), c)
			if last, ok := transcript.Last(); ok && printed <= len(last.Text) {
				fmt.Fprint(out, last.Text[printed:])
				printed = len(last.Text)
			}
		case <-interrupts:
			_ = s.Close()
			fmt.Fprintln(out)
			return s.Err()
		}
	}
}
