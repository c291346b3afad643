// Package main replays the stock ledger and reports drift between the
// stored material quantities and the replayed values. With -repair the
// stored values are overwritten.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"stockbook/internal/app"
	"stockbook/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file")
	repair := flag.Bool("repair", false, "overwrite stored quantities with replayed values")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	report, err := a.Ledger.Rebuild(ctx, *repair)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild: %v\n", err)
		os.Exit(1)
	}

	drifted := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATERIAL\tSTORED\tCOMPUTED\tDRIFT")
	for _, entry := range report {
		if !entry.HasDrift() {
			continue
		}
		drifted++
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.MaterialName, entry.Stored, entry.Computed, entry.Drift())
	}
	_ = w.Flush()

	if drifted == 0 {
		fmt.Printf("checked %d materials, no drift\n", len(report))
		return
	}
	if *repair {
		fmt.Printf("checked %d materials, repaired %d\n", len(report), drifted)
	} else {
		fmt.Printf("checked %d materials, %d drifted (run with -repair to fix)\n", len(report), drifted)
	}
}
