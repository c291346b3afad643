// Package main exports the current inventory to an Excel workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/infrastructure/export"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file")
	out := flag.String("out", "inventory.xlsx", "output file")
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

	materials, err := a.Materials.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load materials: %v\n", err)
		os.Exit(1)
	}
	transactions, err := a.Ledger.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load transactions: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	wb := export.Workbook{Materials: materials, Transactions: transactions}
	if _, err := wb.WriteTo(f); err != nil {
		fmt.Fprintf(os.Stderr, "write workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s: %d materials, %d transactions\n", *out, len(materials), len(transactions))
}
