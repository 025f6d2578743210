/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command estatectl inspects and edits the console's data from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/suparena/estatestore"
	"github.com/suparena/estatestore/bootstrap"
	"github.com/suparena/estatestore/config"
	"github.com/suparena/estatestore/logging"
	_ "github.com/suparena/estatestore/models"
)

type command struct {
	usage string
	run   func(ctx context.Context, f *estatestore.Facade, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"seed":   {"seed [-seed n]", runSeed},
		"get":    {"get <collection> <id>", runGet},
		"list":   {"list <collection>", runList},
		"query":  {"query <collection> [-where 'field op value']... [-order field[:desc]]... [-limit n]", runQuery},
		"watch":  {"watch <collection> [-where 'field op value']...", runWatch},
		"set":    {"set [-merge] <collection> <id> <json|->", runSet},
		"update": {"update <collection> <id> <json|->", runUpdate},
		"delete": {"delete <collection> <id>", runDelete},
		"upload": {"upload <local-file> <remote-path>", runUpload},
		"url":    {"url <remote-path>", runURL},
		"rm":     {"rm <remote-path>", runRemove},
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "usage: estatectl [-config path] <command> [args]")
	fmt.Fprintln(out, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(out, "\nflags:")
	flag.PrintDefaults()
}

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Show version information")
		vFlag       = flag.Bool("v", false, "Show version information (short)")
		configPath  = flag.String("config", "", "Configuration file (default "+config.BaseConfigFile+" when present)")
	)
	flag.Usage = usage
	flag.Parse()

	if *versionFlag || *vFlag {
		info := estatestore.GetVersionInfo()
		fmt.Printf("estatectl version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(&cfg.Logging)
	f, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	err = cmd.run(ctx, f, args[1:])
	if cerr := f.Close(); cerr != nil {
		logger.Warn("close failed", "error", cerr)
	}
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}
