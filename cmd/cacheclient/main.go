// Command cacheclient runs a single get, put or delete through the quorum
// coordinator.
//
//	cacheclient [flags] get <key>
//	cacheclient [flags] put <key> <value>
//	cacheclient [flags] delete <key>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"cachequorum/internal/config"
	"cachequorum/internal/coordinator"
	"cachequorum/internal/quorum"
	"cachequorum/internal/replica"
	log "github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: cacheclient [flags] get <key> | put <key> <value> | delete <key>\n")
	flag.PrintDefaults()
}

func main() {
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	showMetrics := flag.Bool("metrics", false, "print counters after the command")
	metricsInterval := flag.Duration("metrics-interval", 0, "log counters at this interval while the command runs")
	flag.Usage = usage
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	lvl, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(lvl)

	var tr replica.Transport
	if cfg.Transport == config.TransportGRPC {
		tr = replica.NewGRPCTransport()
	} else {
		tr = replica.NewHTTPTransport(nil)
	}

	coord, err := coordinator.New(cfg.Endpoints(), cfg.Quorum(), tr, coordinator.Options{
		Timeout:         cfg.Timeout,
		RollbackRetries: cfg.RollbackRetries,
	})
	if err != nil {
		tr.Close()
		log.Fatalf("failed to create coordinator: %v", err)
	}

	stop := make(chan struct{})
	if *metricsInterval > 0 {
		coord.Metrics().StartLogger(*metricsInterval, stop)
	}

	code := run(context.Background(), coord, flag.Args())
	coord.Close()
	close(stop)
	tr.Close()

	if *showMetrics {
		snap := coord.Metrics().Snapshot()
		names := make([]string, 0, len(snap))
		for k := range snap {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Printf("%s %d\n", k, snap[k])
		}
	}
	os.Exit(code)
}

func run(ctx context.Context, coord *coordinator.Coordinator, args []string) int {
	if len(args) < 2 {
		usage()
		return 2
	}
	key, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid key %q: %v\n", args[1], err)
		return 2
	}

	switch args[0] {
	case "get":
		v, err := coord.Get(ctx, key)
		if errors.Is(err, quorum.ErrReadQuorum) {
			fmt.Fprintf(os.Stderr, "no value: %v\n", err)
			return 1
		}
		fmt.Println(v)
	case "put":
		if len(args) != 3 {
			usage()
			return 2
		}
		if err := coord.Put(ctx, key, args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "put failed: %v\n", err)
			return 1
		}
		fmt.Println("OK")
	case "delete":
		res := coord.Delete(ctx, key)
		fmt.Printf("removed from %d/%d replicas\n", res.Acks, res.Replicas)
	default:
		usage()
		return 2
	}
	return 0
}
