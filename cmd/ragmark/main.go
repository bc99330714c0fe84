// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nicholasgasior/ragmark"
)

func main() {
	var (
		outputDir        string
		accuracyCritical bool
		checkDeps        bool
		verbose          bool
		showVersion      bool
	)

	flag.StringVar(&outputDir, "o", ".", "Output directory")
	flag.StringVar(&outputDir, "output", ".", "Output directory")
	flag.BoolVar(&accuracyCritical, "accuracy-critical", false, "Raise the quality threshold for documents where extraction errors are expensive")
	flag.BoolVar(&checkDeps, "check-deps", false, "Report available extraction capabilities and exit")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ragmark [flags] <source>\n\n")
		fmt.Fprintf(os.Stderr, "Convert documents to RAG-ready Markdown.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  source    File path (pdf, epub, xlsx, xls, csv, html, rss, atom) or URL\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("ragmark %s\n", ragmark.Version)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conv := ragmark.New(ragmark.WithLogger(logger))
	defer conv.Close()

	if checkDeps {
		printCapabilities(conv.Capabilities())
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	source := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := conv.Convert(ctx, source, outputDir, accuracyCritical)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted: %s\n", result.Title)
	fmt.Printf("Output:    %s\n", result.OutputPath)
	if result.Strategy != "" {
		fmt.Printf("Tool:      %s\n", result.Strategy)
		fmt.Printf("Score:     %.2f\n", result.Score.Overall)
	}
	for _, issue := range result.Issues {
		fmt.Printf("Issue:     %s\n", issue)
	}
}

func printCapabilities(caps ragmark.Capabilities) {
	status := func(ok bool) string {
		if ok {
			return "available"
		}
		return "missing"
	}
	fmt.Printf("fast_text:    %s\n", status(caps.FastText))
	fmt.Printf("layout_aware: %s\n", status(caps.LayoutAware))
	fmt.Printf("table_aware:  %s\n", status(caps.TableAware))
	fmt.Printf("ocr:          %s\n", status(caps.OCR))
	if !caps.OCR {
		fmt.Println("hint: install tesseract for scanned document support")
	}
}
