// Command pvescout searches the Proxmox VE community-scripts catalogue from
// a local, integrity-protected cache.
//
// Usage:
//
//	pvescout [-config path] serve
//	pvescout [-config path] query <terms...>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pvescout/pvescout/pkg/config"
	"github.com/pvescout/pvescout/pkg/engine"
	"github.com/pvescout/pvescout/pkg/logging"
	"github.com/pvescout/pvescout/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvescout: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pvescout: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(level, os.Stderr)

	e := engine.New(cfg, log)
	if !e.Setup() {
		fmt.Fprintln(os.Stderr, "pvescout: engine setup failed")
		os.Exit(1)
	}
	defer e.Close()

	ctx := context.Background()

	switch flag.Arg(0) {
	case "serve":
		if !e.Init(ctx) {
			log.Warn("cache pre-warm failed; queries will refetch on demand")
		}
		srv := server.New(e, log)
		if err := srv.ListenAndServe(cfg.Server.Listen); err != nil {
			fmt.Fprintf(os.Stderr, "pvescout: %v\n", err)
			os.Exit(1)
		}

	case "query":
		query := strings.Join(flag.Args()[1:], " ")
		if strings.TrimSpace(query) == "" {
			fmt.Fprintln(os.Stderr, "pvescout: query requires search terms")
			os.Exit(2)
		}
		results := e.Search(ctx, query)
		if len(results) == 0 {
			fmt.Println("no results")
			return
		}
		for _, r := range results {
			fmt.Printf("%s\n  %s\n", r.Title, r.URL)
			if r.Content != "" {
				fmt.Printf("  %s\n", r.Content)
			}
		}

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  pvescout [-config path] serve           start the HTTP search server
  pvescout [-config path] query <terms>   run one search and print results

Flags:
`)
	flag.PrintDefaults()
}
