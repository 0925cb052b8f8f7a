package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fivedlabs/beatstore/internal/pkg/env"
	"github.com/fivedlabs/beatstore/internal/pkg/objectstore"
	"github.com/fivedlabs/beatstore/internal/pkg/publisher"
)

type remover interface {
	Remove(ctx context.Context, url string) error
}

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cfg, err := objectstore.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load storage config: %v", err)
	}
	store, err := objectstore.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	switch os.Args[1] {
	case "check":
		if err := store.CheckBucket(ctx); err != nil {
			log.Fatalf("Bucket check failed: %v", err)
		}
		log.Printf("Bucket %s is reachable", store.Bucket())

	case "remove":
		urls := os.Args[2:]
		if len(urls) == 0 {
			log.Fatalf("Please provide at least one object URL")
		}
		if failed := removeAll(ctx, publisher.New(store), urls); failed > 0 {
			log.Fatalf("%d of %d objects could not be removed", failed, len(urls))
		}
		log.Printf("Removed %d objects", len(urls))

	default:
		printUsage()
		os.Exit(1)
	}
}

// removeAll deletes every URL and returns how many failed. URLs come from
// "[BeatAdmin] orphaned object" log lines.
func removeAll(ctx context.Context, r remover, urls []string) int {
	failed := 0
	for _, url := range urls {
		if err := r.Remove(ctx, url); err != nil {
			log.Printf("Failed to remove %s: %v", url, err)
			failed++
			continue
		}
		log.Printf("Removed %s", url)
	}
	return failed
}

func printUsage() {
	fmt.Println("Usage: objects <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  check            Check that the storage bucket is reachable")
	fmt.Println("  remove <url>...  Delete orphaned objects by their public URL")
}
