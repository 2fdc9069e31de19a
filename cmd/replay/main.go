package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/config"
	"github.com/tuannm99/novabuf/internal/replay"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	tracePath := flag.String("trace", "", "Access trace to replay")
	storeDir := flag.String("store-dir", "", "Replay against segment files under this directory instead of memory")
	policyList := flag.String("policies", "lru-k,clock,lru", "Comma separated replacement policies to compare")
	flag.Parse()

	if *tracePath == "" {
		log.Fatal("-trace is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := cfg.NewLogger(os.Stderr)

	var policies []bufferpool.Policy
	for _, s := range strings.Split(*policyList, ",") {
		p, err := bufferpool.ParsePolicy(strings.TrimSpace(s))
		if err != nil {
			log.Fatalf("Invalid -policies: %v", err)
		}
		policies = append(policies, p)
	}

	f, err := os.Open(*tracePath)
	if err != nil {
		log.Fatalf("Failed to open trace: %v", err)
	}
	ops, err := replay.ParseTrace(f)
	_ = f.Close()
	if err != nil {
		log.Fatalf("Failed to parse trace: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("replaying trace",
		"trace", *tracePath,
		"ops", len(ops),
		"capacity", cfg.BufferPool.Capacity,
		"k", cfg.BufferPool.K,
		"policies", *policyList,
	)

	stores := replay.MemStores(cfg.BufferPool.PageSize)
	if *storeDir != "" {
		stores = replay.FileStores(*storeDir, cfg.BufferPool.PageSize)
	}

	results, err := replay.Compare(ctx, ops, policies, cfg.PoolOptions(logger), stores)
	if err != nil {
		logger.Error("replay failed", "err", err)
		stop()
		os.Exit(1)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tHITS\tMISSES\tEVICTIONS\tFLUSHES\tSTALLS\tHIT RATIO")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.3f\n",
			r.Policy, r.Stats.Hits, r.Stats.Misses, r.Stats.Evictions, r.Stats.Flushes, r.Stalls, r.HitRatio())
	}
	_ = tw.Flush()
}
