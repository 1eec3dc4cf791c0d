package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/localdev/devassist/internal/mcp"
)

// maxHistory caps the conversation history sent with each chat turn.
// History is pass-through state owned by this loop; the server keeps
// nothing between calls.
const maxHistory = 20

// cmdChat runs the interactive read-print loop. A failed turn is
// reported and the loop continues; only EOF or an exit word ends it.
func (c *cli) cmdChat(ctx context.Context) error {
	fmt.Fprintln(c.stdout, "Chat with DevAssist")
	fmt.Fprintln(c.stdout, "Type 'exit', 'quit', or 'bye' to leave")
	fmt.Fprintln(c.stdout, strings.Repeat("-", 50))

	var history []map[string]any
	scanner := bufio.NewScanner(c.stdin)

	for {
		fmt.Fprint(c.stdout, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(c.stdout, "\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			fmt.Fprintln(c.stdout, "Goodbye!")
			return nil
		}

		resp, err := c.dispatch.Dispatch(ctx, &mcp.Request{
			Action: "chat",
			Parameters: map[string]any{
				"message": input,
				"history": history,
			},
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			fmt.Fprintf(c.stdout, "Error: %s\n\n", resp.Error)
			continue
		}

		var reply mcp.ChatReply
		if err := decodeData(resp.Data, &reply); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Assistant: %s\n\n", reply.Response)

		history = append(history,
			map[string]any{"role": "user", "content": input},
			map[string]any{"role": "assistant", "content": reply.Response},
		)
		if len(history) > maxHistory {
			history = history[len(history)-maxHistory:]
		}
	}
}
