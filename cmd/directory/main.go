package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"delegatedir/directory"
	"delegatedir/directory/config"
	"delegatedir/directory/schemes"
	"delegatedir/pkg/ens"
	"delegatedir/pkg/graphql"
	"delegatedir/pkg/logger"
)

const usage = `Usage:
  directory list [order-by]            fetch the first page of delegates
  directory more [order-by]            fetch the first two pages of delegates
  directory show <name-or-address>     resolve and show a single delegate
  directory balance <address>          show a delegate's token balance
  directory activity <scope> <addr>... aggregate votes and proposals per delegate
`

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		Level:         cfg.LogLevel,
		HumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resolve the delegation scheme once
	scheme, err := schemes.NewWithConfig(cfg.Scheme, schemes.Config{Endpoint: cfg.SubgraphURL})
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve delegation scheme", slog.Any("error", err))
		os.Exit(1)
	}

	// HTTP client shared by transport and resolver
	httpClient := &http.Client{Timeout: cfg.HttpClientTimeout}
	querier := graphql.NewClientWithHTTP(httpClient, nil)
	resolver := ens.NewClientWithHTTP(httpClient, cfg.ResolverURL)

	// Create directory service
	svc := directory.NewService(scheme, querier, resolver, directory.WithLogger(log))
	defer svc.Close()

	// Subscribe to state-change events for logging
	subCloser := setupEventLogging(ctx, svc.Events(), log)
	defer subCloser()

	if err := run(ctx, svc, os.Args[1:]); err != nil {
		log.ErrorContext(ctx, "Command failed", slog.Any("error", err))
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *directory.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		svc.FetchDelegates(ctx, orderBy(rest))
		return printDelegates(svc)

	case "more":
		order := orderBy(rest)
		svc.FetchDelegates(ctx, order)
		svc.FetchMoreDelegates(ctx, order)
		return printDelegates(svc)

	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("show takes exactly one identifier")
		}
		svc.FetchDelegate(ctx, rest[0])
		d := svc.Delegate()
		if d == nil {
			fmt.Printf("%s did not resolve to a delegate\n", rest[0])
			return nil
		}
		fmt.Printf("%s  votes=%.2f  holders=%d  cast=%d  proposed=%d\n",
			d.Address, d.DelegatedVotes, d.TokenHolders, d.VoteCount, d.ProposalCount)
		return nil

	case "balance":
		if len(rest) != 1 {
			return fmt.Errorf("balance takes exactly one address")
		}
		balance, err := svc.FetchDelegateBalance(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  balance=%.4f\n", balance.Address, balance.Amount)
		return nil

	case "activity":
		if len(rest) < 2 {
			return fmt.Errorf("activity takes a scope and at least one address")
		}
		svc.FetchDelegateVotesAndProposals(ctx, rest[1:], rest[0])
		for addr, activity := range svc.Activity() {
			fmt.Printf("%s  votes=%d  proposals=%d\n", addr, len(activity.Votes), len(activity.Proposals))
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func orderBy(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "delegatedVotes"
}

func printDelegates(svc *directory.Service) error {
	if svc.ListFailed() {
		return fmt.Errorf("delegate list fetch failed")
	}
	for _, d := range svc.Delegates() {
		fmt.Printf("%s  votes=%.2f  holders=%d\n", d.Address, d.DelegatedVotes, d.TokenHolders)
	}
	if svc.HasMore() {
		fmt.Println("(more available)")
	}
	return nil
}

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan directory.Event, log *slog.Logger) func() {
	return directory.NewSubscriber(events,
		directory.OnDelegatesUpdated(func(event directory.DelegatesUpdated) {
			log.InfoContext(ctx, "Delegate list updated",
				slog.Int("count", event.Count),
				slog.Bool("hasMore", event.HasMore),
				slog.Bool("appended", event.Appended),
			)
		}),
		directory.OnListFetchFailed(func(directory.ListFetchFailed) {
			log.ErrorContext(ctx, "Delegate list fetch failed")
		}),
		directory.OnDelegateLoaded(func(event directory.DelegateLoaded) {
			log.InfoContext(ctx, "Delegate loaded", slog.String("address", event.Address))
		}),
		directory.OnActivityUpdated(func(event directory.ActivityUpdated) {
			log.InfoContext(ctx, "Activity aggregated",
				slog.Int("delegates", event.Delegates),
				slog.Int("votes", event.Votes),
				slog.Int("proposals", event.Proposals),
			)
		}),
	)
}
