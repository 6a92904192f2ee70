package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cortex-on/agentdeck/pkg/session"
	"github.com/cortex-on/agentdeck/pkg/status"
	"github.com/cortex-on/agentdeck/pkg/transcript"
)

var replayPrompt string

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Fold a JSONL event log into a session and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open event log")
		}
		defer func() { _ = f.Close() }()

		sess := session.New(session.NopSender{})
		if err := sess.StartTask(context.Background(), replayPrompt); err != nil {
			return err
		}

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			raw := strings.TrimSpace(scanner.Text())
			if raw == "" {
				continue
			}
			var ev transcript.UpdateEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				log.Warn().Int("line", line).Err(err).Msg("skipping undecodable event")
				continue
			}
			if gen, started := sess.Apply(ev); started {
				sess.Gallery().Settle(gen)
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrap(err, "read event log")
		}

		printSession(sess)
		return nil
	},
}

func printSession(sess *session.Session) {
	for _, turn := range sess.Transcript().Turns() {
		switch turn.Role {
		case transcript.RoleUser:
			fmt.Printf("user> %s\n", turn.Prompt)
		case transcript.RoleSystem:
			for _, rec := range turn.Records() {
				fmt.Printf("  [%s] %d step(s), output %d byte(s)\n",
					rec.AgentName, len(rec.Steps), len(rec.Output))
			}
			fmt.Printf("  status: %s\n", turn.Status)
			if msg := status.FailureMessage(turn); msg != "" {
				fmt.Printf("  failure: %s\n", msg)
			}
		}
	}

	g := sess.Gallery()
	if g.Len() > 0 {
		fmt.Println("outputs:")
		selected, hasSelection := g.Selected()
		for i, entry := range g.Entries() {
			marker := " "
			if hasSelection && i == selected {
				marker = "*"
			}
			fmt.Printf(" %s %s\n", marker, entry.AgentName)
		}
	}
}

func init() {
	replayCmd.Flags().StringVar(&replayPrompt, "prompt", "replayed task", "prompt text for the replayed session")
}
