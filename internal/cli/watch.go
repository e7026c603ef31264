package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var count int
	var untilFinished bool

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Stream a game's WebSocket feed",
		Long: `Connect to the game's WebSocket endpoint and print messages in real-time.

Messages include:
  - connected: Socket accepted, with your role
  - lobby_active: The second player joined
  - round_started: A round window opened
  - round_resolved: Both choices are in or the window closed
  - disconnect / resume: A player left or came back
  - game_finished: The game is over
  - chat-*: Chat relayed from other subscribers

Without a token the socket connects as an observer. Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return watchGame(ctx, args[0], count, untilFinished)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many messages")
	cmd.Flags().BoolVar(&untilFinished, "until-finished", false, "Exit after the game_finished message")

	return cmd
}

// WatchEvent is one received socket message as printed in JSON mode
type WatchEvent struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

func watchGame(ctx context.Context, id string, count int, untilFinished bool) error {
	wsURL, err := client.WebSocketURL("/ws/game/" + id)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on Ctrl+C
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	jsonOutput := cfg.Output == "json"
	received := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("Disconnected")
				}
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("socket closed: %d %s", closeErr.Code, closeErr.Text)
			}
			return fmt.Errorf("stream error: %w", err)
		}

		msgType := printMessage(data, jsonOutput)
		received++
		if count > 0 && received >= count {
			return nil
		}
		if untilFinished && msgType == "game_finished" {
			return nil
		}
	}
}

// printMessage writes one socket message and returns its type
func printMessage(data []byte, jsonOutput bool) string {
	var msg struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &msg)
	now := time.Now()

	if jsonOutput {
		line, _ := json.Marshal(WatchEvent{Time: now, Type: msg.Type, Message: data})
		fmt.Println(string(line))
		return msg.Type
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	text := msg.Message
	if text == "" {
		text = string(data)
	}
	fmt.Fprintf(os.Stdout, "[%s] %s: %s\n", timestamp, msg.Type, text)
	return msg.Type
}
