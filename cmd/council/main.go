package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"

	"news-council-be/internal/bootstrap"
	"news-council-be/internal/config"
	"news-council-be/pkg/council"
)

// Runs the expert council from the command line. The payload is the same
// JSON the HTTP surface accepts: task/context plus expert_outputs, either
// bare or inside a fenced code block.
//
//	go run ./cmd/council -input payload.json -output report.md
//	cat payload.json | go run ./cmd/council
func main() {
	inputPath := flag.String("input", "", "payload file (default: stdin)")
	outputPath := flag.String("output", "", "write the report to a file instead of stdout")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Parse()

	raw, err := readPayload(*inputPath)
	if err != nil {
		log.Fatalf("read payload: %v", err)
	}

	payload := council.ExtractPayload(string(raw))
	if payload == nil || len(payload.ExpertOutputs) == 0 {
		log.Fatal(council.NoOutputsMessage)
	}

	cfg := config.Load()
	providers, err := bootstrap.BuildProviders(cfg)
	if err != nil {
		log.Fatalf("initialize providers: %v", err)
	}

	opts := []council.RunnerOption{}
	if !*quiet {
		stageColor := color.New(color.FgCyan, color.Bold)
		detailColor := color.New(color.FgHiBlack)
		opts = append(opts, council.WithProgress(func(stage, detail string) {
			stageColor.Fprintf(os.Stderr, "[%s] ", stage)
			detailColor.Fprintln(os.Stderr, detail)
		}))
	}

	runner := council.NewRunner(providers, council.DefaultPrompts(), opts...)
	report, err := runner.RunCouncil(context.Background(), payload.Task, payload.Context, payload.ExpertOutputs)
	if err != nil {
		log.Fatalf("run council: %v", err)
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, []byte(report), 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
		color.New(color.FgGreen).Fprintf(os.Stderr, "报告已保存: %s\n", *outputPath)
		return
	}
	fmt.Println(report)
}

func readPayload(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
