// Package main seeds a demo user with the demo albums and a few random
// comparisons, then prints an access token for that user.
//
// Usage:
//
//	DATA_PATH=~/AlbumDuel/data SEED_COMPARISONS=25 go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/di"
	"github.com/albumduel/albumduel-server/internal/service"
)

const defaultComparisons = 20

func main() {
	os.Exit(run())
}

func run() int {
	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		return 1
	}

	log := do.MustInvoke[*slog.Logger](injector)
	authSvc, err := do.Invoke[*service.AuthService](injector)
	if err != nil {
		log.Error("Failed to initialize auth", "error", err)
		return 1
	}
	library := do.MustInvoke[*service.LibraryService](injector)
	comparisons := do.MustInvoke[*service.ComparisonService](injector)

	n := defaultComparisons
	if v := os.Getenv("SEED_COMPARISONS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			log.Error("SEED_COMPARISONS must be a non-negative integer", "value", v)
			return 1
		}
		n = parsed
	}

	ctx := context.Background()

	tok, err := authSvc.IssueToken(ctx, service.IssueTokenRequest{
		Provider:       "demo",
		ProviderUserID: "demo",
		DisplayName:    "Demo User",
	})
	if err != nil {
		log.Error("Failed to create demo user", "error", err)
		return 1
	}
	userID := tok.User.ID

	imported, err := library.ImportDemo(ctx, userID)
	if err != nil {
		log.Error("Failed to import demo albums", "error", err)
		return 1
	}
	log.Info("Demo albums imported",
		"user_id", userID,
		"created", imported.Created,
		"added_to_library", imported.AddedToLibrary,
	)

	for range n {
		pair, err := comparisons.NextPair(ctx, userID)
		if err != nil {
			log.Error("Failed to pick pair", "error", err)
			return 1
		}

		var winner *int64
		switch rand.IntN(5) {
		case 0:
			// draw
		case 1, 2:
			winner = &pair.A.Album.ID
		default:
			winner = &pair.B.Album.ID
		}

		if _, err := comparisons.RecordComparison(ctx, userID, pair.A.Album.ID, pair.B.Album.ID, winner); err != nil {
			log.Error("Failed to record comparison", "error", err)
			return 1
		}
	}

	log.Info("Seed complete", "user_id", userID, "comparisons", n, "role", tok.User.Role)
	fmt.Println(tok.AccessToken)
	return 0
}
