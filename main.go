package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/mockbackend"
	"friendsClient/middleware"
	"friendsClient/services"
	"friendsClient/views"
)

var log = logrus.New()

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	middleware.InitPrometheus()
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [args]

Commands:
  friends [page]        list your friends
  sent [page]           list friend requests you sent
  received [page]       list friend requests you received
  search <query>        search users (filtered against friends/pending)
  send <username>       send a friend request
  accept <id>           accept a received request
  reject <id>           reject a received request
  cancel <id>           cancel a sent request
  request <id>          show one friend request
  scores <username>     show a user's leaderboard entries
  mockserver            run the in-memory reference backend

Environment:
  FRIENDS_API_BASE_URL  backend base URL (default http://localhost:3333)
  FRIENDS_API_TOKEN     bearer token
  FRIENDS_USER_ID       your user id (for friend/role resolution)
  METRICS_ADDR          optional /metrics listener address
  LOG_LEVEL             logrus level (default info)
`, os.Args[0])
	os.Exit(2)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.WithError(err).Warn("metrics listener stopped")
			}
		}()
	}

	if args[0] == "mockserver" {
		runMockServer()
		return
	}

	baseURL := os.Getenv("FRIENDS_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3333"
	}
	token := os.Getenv("FRIENDS_API_TOKEN")
	currentUserID := os.Getenv("FRIENDS_USER_ID")

	api, err := apiclient.New(apiclient.Config{
		BaseURL:    baseURL,
		HTTPClient: middleware.NewTransport(middleware.StaticToken(token)),
		Logger:     log,
	})
	if err != nil {
		log.Fatal(err)
	}

	friends := services.NewFriendsService(api, log)
	boards := services.NewLeaderboardService(api, log)
	notify := &printNotifier{}
	page := views.NewFriendsPage(friends, currentUserID, notify, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "friends":
		page.Friends.Refresh(ctx)
		if n := pageArg(args); n > 1 {
			page.Friends.SetPage(ctx, n)
		}
		for _, friend := range page.Friends.Friends() {
			fmt.Printf("%-24s @%s\n", friend.DisplayName(), friend.Username)
		}
		fmt.Printf("page %d of %d known\n", page.Friends.Page(), page.Friends.TotalPagesKnown())

	case "sent", "received":
		view := page.Sent
		if args[0] == "received" {
			view = page.Received
		}
		view.Refresh(ctx)
		if n := pageArg(args); n > 1 {
			view.SetPage(ctx, n)
		}
		for _, req := range view.Requests() {
			other := req.FriendOf(currentUserID)
			name := "(unknown)"
			if other != nil {
				name = "@" + other.Username
			}
			fmt.Printf("%s  %-10s %s  %s\n", req.ID, req.Status, name, req.CreatedAt.Format("2006-01-02"))
		}
		fmt.Printf("page %d of %d known\n", view.Page(), view.TotalPagesKnown())

	case "search":
		if len(args) < 2 {
			usage()
		}
		page.RefreshExclusions(ctx)
		page.Search.SearchNow(ctx, args[1])
		for _, u := range page.Search.Results() {
			fmt.Printf("%-24s @%s\n", u.DisplayName(), u.Username)
		}

	case "send":
		if len(args) < 2 {
			usage()
		}
		if _, err := friends.SendRequest(ctx, args[1]); err != nil {
			fmt.Fprintln(os.Stderr, apiclient.UserMessage(err))
			os.Exit(1)
		}
		fmt.Println("Friend request sent.")

	case "accept", "reject":
		if len(args) < 2 {
			usage()
		}
		page.Received.Refresh(ctx)
		var actErr error
		if args[0] == "accept" {
			actErr = page.Received.Accept(ctx, args[1])
		} else {
			actErr = page.Received.Reject(ctx, args[1])
		}
		if actErr != nil {
			os.Exit(1)
		}

	case "cancel":
		if len(args) < 2 {
			usage()
		}
		page.Sent.Refresh(ctx)
		if err := page.Sent.Cancel(ctx, args[1]); err != nil {
			os.Exit(1)
		}

	case "request":
		if len(args) < 2 {
			usage()
		}
		req, err := friends.GetRequest(ctx, args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, apiclient.UserMessage(err))
			os.Exit(1)
		}
		fmt.Printf("%s: @%s -> @%s  %s\n", req.ID, req.Requester.Username, req.Recipient.Username, req.Status)

	case "scores":
		if len(args) < 2 {
			usage()
		}
		entries, err := boards.UserEntries(ctx, args[1], 1, 10)
		if err != nil {
			fmt.Fprintln(os.Stderr, apiclient.UserMessage(err))
			os.Exit(1)
		}
		for _, e := range entries.Data {
			fmt.Printf("%-24s %.0f\n", e.LeaderboardID, e.Score)
		}

	default:
		usage()
	}
}

func pageArg(args []string) int {
	if len(args) < 2 {
		return 1
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// printNotifier writes transient notifications to the terminal.
type printNotifier struct{}

func (printNotifier) Success(title, message string) { fmt.Println(message) }
func (printNotifier) Error(title, message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
}

func runMockServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}

	backend := mockbackend.New(log)
	seedMockUsers(backend)

	server := http.Server{
		Addr:         ":" + port,
		Handler:      backend.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Mock friends backend listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Error starting mock server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	sig := <-sigChan
	log.Infof("Got signal: %v", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server shutdown error")
	}
	log.Info("Mock server shutdown complete")
}
