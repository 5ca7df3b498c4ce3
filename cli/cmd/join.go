package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ponyo877/chatroom/server/domain"
)

// joinCmd represents the join command
var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Joins a chat room and streams messages.",
	Long: `Joins the given room on the chatroom server. Recent room history is
replayed first; after that, lines typed on stdin are sent as chat messages.
Type 'exit' to leave the room.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := args[0]

		conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
		}
		defer conn.Close()

		if err := conn.WriteJSON(domain.NewJoinRequest(room, displayName)); err != nil {
			return fmt.Errorf("failed to send join request: %w", err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var event domain.Event
				if err := conn.ReadJSON(&event); err != nil {
					return
				}
				printEvent(event)
			}
		}()

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}
			if err := conn.WriteJSON(domain.NewChatRequest(line)); err != nil {
				fmt.Fprintf(os.Stderr, "Error sending message: %v\n", err)
				break
			}
		}

		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return nil
	},
}

func printEvent(event domain.Event) {
	switch event.Type {
	case domain.EventChat:
		prefix := ""
		if event.IsHistory {
			prefix = "[history] "
		}
		user := event.User
		if user == "" {
			user = "bot"
		}
		if domain.IsSpecial(event.Content) {
			printSpecial(prefix, event.Content)
			return
		}
		fmt.Printf("%s%s %s: %s\n", prefix, event.Timestamp, user, event.Content)

	case domain.EventSystem:
		fmt.Printf("* %s\n", event.Content)

	case domain.EventUsers:
		fmt.Printf("* online (%d): %s\n", event.Count, strings.Join(event.Users, ", "))

	case domain.EventStreamStart:
		fmt.Printf("%s: ", event.User)

	case domain.EventStreamChunk:
		fmt.Print(event.Content)

	case domain.EventStreamEnd:
		fmt.Println()
	}
}

func printSpecial(prefix, content string) {
	payload, err := domain.DecodeSpecial(content)
	if err != nil {
		fmt.Printf("%s<unreadable special message>\n", prefix)
		return
	}
	fmt.Printf("%s<%s> %v\n", prefix, payload.Type, payload.Data)
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
