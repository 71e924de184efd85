package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Ayash-Bera/travelbot/internal/agent"
)

const (
	Banner      = "✈️ Travel Assistant Ready. Type 'exit' to quit."
	Prompt      = "You: "
	ReplyPrefix = "Bot: "
	ExitCommand = "exit"
)

// Runner answers one utterance within a session.
type Runner interface {
	Run(ctx context.Context, sessionID, utterance string) (agent.Reply, error)
}

// Run reads utterances from in until "exit" or end of input and writes each
// reply to out. A failed turn ends the session with that error.
func Run(ctx context.Context, in io.Reader, out io.Writer, runner Runner, sessionID string) error {
	if _, err := fmt.Fprintln(out, Banner); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprint(out, "\n"+Prompt); err != nil {
			return err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, ExitCommand) {
			return nil
		}

		reply, err := runner.Run(ctx, sessionID, line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, ReplyPrefix+reply.Text); err != nil {
			return err
		}
	}
}
