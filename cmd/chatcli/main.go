package main

import (
	"bufio"
	"context"
	"duochat/backend/internal/chatclient"
	"duochat/backend/internal/logger"
	"duochat/backend/internal/models"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// chatcli is a terminal client: it logs in, subscribes to realtime events and
// sends each stdin line to the selected peer. Lines starting with "/" are
// commands: /open <userId>, /close, /users, /online, /unread, /quit.
func main() {
	server := flag.String("server", "http://localhost:5001", "server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	peer := flag.String("peer", "", "user id to open on start")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logger.New(*logLevel, true)
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: chatcli -email you@example.com -password secret [-peer userId]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := chatclient.NewAPIClient(*server)
	me, err := api.Login(ctx, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	fmt.Printf("signed in as %s (%s)\n", me.FullName, me.ID)

	reconciler := chatclient.NewReconciler(api)
	session := chatclient.NewSession(&chatclient.WSDialer{
		URL:   wsURL(*server),
		Token: api.Token(),
	}, reconciler, log)
	session.SetEventHook(func(ev models.Event, outcome chatclient.Outcome) {
		printEvent(ev, outcome, me.ID)
	})

	if err := session.Connect(ctx, me.ID); err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer session.Disconnect()

	if *peer != "" {
		openConversation(ctx, reconciler, *peer)
	}

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
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleLine(ctx, api, session, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

func handleLine(ctx context.Context, api *chatclient.APIClient, session *chatclient.Session, line string) bool {
	reconciler := session.Reconciler()
	switch {
	case line == "":
	case line == "/quit":
		return false
	case line == "/close":
		reconciler.DeselectConversation()
	case strings.HasPrefix(line, "/open "):
		openConversation(ctx, reconciler, strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
	case line == "/users":
		users, err := api.Users(ctx)
		if err != nil {
			fmt.Println("error:", err)
			break
		}
		for _, u := range users {
			status := "offline"
			if session.IsOnline(u.ID) {
				status = "online"
			}
			fmt.Printf("  %s  %-20s %s unread=%d\n", u.ID, u.FullName, status, session.UnreadCount(u.ID))
		}
	case line == "/online":
		fmt.Println("online:", strings.Join(session.OnlineUsers(), ", "))
	case line == "/unread":
		for peer, n := range reconciler.UnreadCounts() {
			fmt.Printf("  %s: %d\n", peer, n)
		}
	default:
		m, outcome, err := session.SendToSelected(ctx, api, line, "")
		switch {
		case errors.Is(err, chatclient.ErrNoConversation):
			fmt.Println("no conversation open, use /open <userId>")
		case err != nil:
			fmt.Println("send failed:", err)
		case outcome == chatclient.OutcomeAppended:
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.SenderID, content(m))
		}
	}
	return true
}

func openConversation(ctx context.Context, reconciler *chatclient.Reconciler, peer string) {
	if err := reconciler.SelectConversation(ctx, peer); err != nil {
		fmt.Println("history failed:", err)
		return
	}
	for _, m := range reconciler.VisibleMessages() {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.SenderID, content(m))
	}
}

func printEvent(ev models.Event, outcome chatclient.Outcome, me string) {
	switch ev.Type {
	case models.EventOnlineUsers:
		fmt.Println("* online:", strings.Join(ev.OnlineUsers, ", "))
	case models.EventNewMessage:
		switch outcome {
		case chatclient.OutcomeAppended:
			m := ev.Message
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.SenderID, content(*m))
		case chatclient.OutcomeUnread:
			fmt.Printf("* new message from %s\n", ev.Message.Peer(me))
		}
	}
}

func content(m models.Message) string {
	if m.Image != "" && m.Text != "" {
		return m.Text + " [image]"
	}
	if m.Image != "" {
		return "[image]"
	}
	return m.Text
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return base + "/ws"
	}
}
