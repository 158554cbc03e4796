package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yungbote/uniprot-graph/internal/app"
	uniprot_ingest "github.com/yungbote/uniprot-graph/internal/jobs/pipeline/uniprot_ingest"
)

func main() {
	var mode, src, configPath string
	flag.StringVar(&mode, "mode", "local", "local | submit | worker")
	flag.StringVar(&src, "source", "", "entry XML: path, file://, gs://bucket/object or s3://bucket/key")
	flag.StringVar(&configPath, "config", "", "YAML config file (default $"+app.ConfigPathEnv+")")
	flag.Parse()

	mode = strings.ToLower(strings.TrimSpace(mode))
	opts := app.Options{ConfigPath: configPath}
	switch mode {
	case "local":
		opts.Graph = true
	case "submit":
		opts.Temporal = true
	case "worker":
		opts.Graph = true
		opts.Temporal = true
	default:
		fmt.Printf("unknown mode %q (want local, submit or worker)\n", mode)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, opts)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}

	var res *uniprot_ingest.IngestResult
	switch mode {
	case "local":
		res, err = application.RunLocal(ctx, src)
	case "submit":
		res, err = application.Submit(ctx, src)
	case "worker":
		err = application.RunWorker(ctx)
	}
	if res != nil {
		printResult(res)
	}
	if err != nil {
		application.Log.Error("Run failed", "mode", mode, "error", err)
		application.Close()
		os.Exit(1)
	}
	application.Close()
}

func printResult(res *uniprot_ingest.IngestResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}
