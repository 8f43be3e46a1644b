// Terminal client for the ticket chat. Joins one ticket room, prints the
// history and live messages, and sends whatever is typed on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/chatclient"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws/chat", "chat WebSocket endpoint")
	ticket := flag.String("ticket", "", "ticket ID to join (required)")
	id := flag.String("id", "", "sender ID (required)")
	name := flag.String("name", "", "display name (required)")
	role := flag.String("role", "customer", "sender role: customer or agent")
	flag.Parse()

	if *ticket == "" || *id == "" || *name == "" {
		flag.Usage()
		os.Exit(2)
	}
	senderRole := domain.SenderRole(*role)
	if !domain.ValidSenderRole(senderRole) {
		fmt.Fprintf(os.Stderr, "invalid role %q\n", *role)
		os.Exit(2)
	}

	session := chatclient.NewSession(chatclient.Config{
		URL:      *addr,
		TicketID: *ticket,
		OnHistory: func(messages []domain.ChatMessage) {
			fmt.Printf("--- %d earlier message(s) ---\n", len(messages))
			for _, msg := range messages {
				printMessage(msg)
			}
		},
		OnMessage: printMessage,
		OnState: func(state chatclient.State) {
			fmt.Printf("[%s]\n", state)
		},
		OnError: func(message string) {
			fmt.Fprintf(os.Stderr, "[server error] %s\n", message)
		},
	})
	session.Start()
	defer session.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-sigCh:
			fmt.Println("\nleaving chat")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := session.Send(*id, *name, senderRole, line); err != nil {
				switch err {
				case chatclient.ErrEmptyMessage:
					// Nothing to send.
				case chatclient.ErrNotConnected:
					fmt.Fprintln(os.Stderr, "not connected, message not sent")
				default:
					fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
				}
			}
		}
	}
}

func printMessage(msg domain.ChatMessage) {
	fmt.Printf("%s %s (%s): %s\n",
		msg.Timestamp.Local().Format("15:04:05"), msg.SenderName, msg.SenderRole, msg.Body)
}
