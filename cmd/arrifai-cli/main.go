// Command arrifai-cli is an interactive chat client for the relay's WebSocket endpoint.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr      string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:          "arrifai-cli",
		Short:        "Chat with ARRIFAI over WebSocket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, sessionID)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8000/ws", "WebSocket server address")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to join (empty lets the server pick one)")

	return cmd
}

func run(addr, sessionID string) error {
	fmt.Printf("Connecting to %s...\n", addr)

	client, err := NewClient(addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	if err := client.SendHello(sessionID); err != nil {
		return err
	}

	fmt.Printf("Session established: %s\n", client.SessionID())
	fmt.Println("\nType a message and press Enter to send.")
	fmt.Println("Commands: /reset to clear the session, /quit to exit")

	go client.ReadMessages(os.Stdout)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input := strings.TrimSpace(line)
			switch input {
			case "":
				continue
			case "/quit":
				fmt.Println("Bye!")
				return nil
			case "/reset":
				if err := client.SendReset(); err != nil {
					slog.Error("send reset failed", "error", err)
				}
				continue
			}

			if _, err := client.SendChat(input); err != nil {
				slog.Error("send failed", "error", err)
			}
		}
	}
}
