// Package main is the stockbook command line interface: materials,
// workers, sofa models and the stock ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/catalogs/material"
	"stockbook/internal/domain/catalogs/sofamodel"
	"stockbook/internal/domain/catalogs/worker"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/sales"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig()
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	switch os.Args[1] {
	case "material":
		runMaterial(ctx, a, os.Args[2:])
	case "worker":
		runWorker(ctx, a, os.Args[2:])
	case "model":
		runModel(ctx, a, os.Args[2:])
	case "log":
		runLog(ctx, a, os.Args[2:])
	case "edit":
		runEdit(ctx, a, os.Args[2:])
	case "delete":
		runDelete(ctx, a, os.Args[2:])
	case "adjust":
		runAdjust(ctx, a, os.Args[2:])
	case "confirm-sale":
		runConfirmSale(ctx, a, os.Args[2:])
	case "transactions":
		runTransactions(ctx, a, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: stockbook <command> [flags]

Commands:
  material      manage the material registry (add, list, low-stock, set-quantity, update, delete)
  worker        manage workers (add, list, rename, activate, deactivate, delete)
  model         manage sofa models (add, list, rename, delete)
  log           record a batch of stock movements
  edit          edit a recorded transaction in place
  delete        delete a transaction, rolling back its quantity effect
  adjust        apply a signed quantity change without a ledger entry
  confirm-sale  apply sale consumptions through the adjustment channel
  transactions  list recorded transactions`)
}

func loadConfig() config.Config {
	path := os.Getenv("STOCKBOOK_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", path, err)
		os.Exit(1)
	}
	return cfg
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func mustID(raw, field string) id.ID {
	parsed, err := id.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s %q: %v\n", field, raw, err)
		os.Exit(2)
	}
	return parsed
}

func mustQuantity(raw, field string) types.Quantity {
	var q types.Quantity
	if err := q.UnmarshalJSON([]byte(raw)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s %q: %v\n", field, raw, err)
		os.Exit(2)
	}
	return q
}

// --- material ---

func runMaterial(ctx context.Context, a *app.App, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stockbook material <add|list|low-stock|set-quantity|update|delete> [flags]")
		os.Exit(2)
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("material add", flag.ExitOnError)
		name := fs.String("name", "", "material name")
		category := fs.String("category", "", "category")
		unit := fs.String("unit", "", "unit of measure")
		quantity := fs.String("quantity", "0", "initial quantity")
		minStock := fs.String("min-stock", "0", "reorder threshold")
		cost := fs.String("cost", "0", "cost per unit")
		supplier := fs.String("supplier", "", "supplier")
		_ = fs.Parse(args[1:])

		m := material.New(*name, *category, *unit)
		m.Quantity = mustQuantity(*quantity, "quantity")
		m.MinStock = mustQuantity(*minStock, "min-stock")
		costVal, err := types.NewMoneyFromString(*cost)
		if err != nil {
			fatal(err)
		}
		m.CostPerUnit = costVal
		if *supplier != "" {
			m.Supplier = supplier
		}
		if err := a.Materials.Create(ctx, m); err != nil {
			fatal(err)
		}
		fmt.Println(m.ID)

	case "list":
		items, err := a.Materials.List(ctx)
		if err != nil {
			fatal(err)
		}
		printMaterials(items)

	case "low-stock":
		items, err := a.Materials.FindLowStock(ctx)
		if err != nil {
			fatal(err)
		}
		printMaterials(items)

	case "set-quantity":
		fs := flag.NewFlagSet("material set-quantity", flag.ExitOnError)
		idRaw := fs.String("id", "", "material id")
		quantity := fs.String("quantity", "", "new quantity")
		_ = fs.Parse(args[1:])

		err := a.Materials.OverrideQuantity(ctx,
			mustID(*idRaw, "material id"),
			mustQuantity(*quantity, "quantity"))
		if err != nil {
			fatal(err)
		}

	case "update":
		fs := flag.NewFlagSet("material update", flag.ExitOnError)
		idRaw := fs.String("id", "", "material id")
		name := fs.String("name", "", "new name")
		category := fs.String("category", "", "new category")
		unit := fs.String("unit", "", "new unit")
		minStock := fs.String("min-stock", "", "new reorder threshold")
		cost := fs.String("cost", "", "new cost per unit")
		supplier := fs.String("supplier", "", "new supplier")
		_ = fs.Parse(args[1:])

		var patch material.Patch
		if *name != "" {
			patch.Name = name
		}
		if *category != "" {
			patch.Category = category
		}
		if *unit != "" {
			patch.Unit = unit
		}
		if *minStock != "" {
			q := mustQuantity(*minStock, "min-stock")
			patch.MinStock = &q
		}
		if *cost != "" {
			c, err := types.NewMoneyFromString(*cost)
			if err != nil {
				fatal(err)
			}
			patch.CostPerUnit = &c
		}
		if *supplier != "" {
			patch.Supplier = supplier
		}
		if err := a.Materials.Update(ctx, mustID(*idRaw, "material id"), patch); err != nil {
			fatal(err)
		}

	case "delete":
		fs := flag.NewFlagSet("material delete", flag.ExitOnError)
		idRaw := fs.String("id", "", "material id")
		_ = fs.Parse(args[1:])

		if err := a.Materials.Delete(ctx, mustID(*idRaw, "material id")); err != nil {
			fatal(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown material command %q\n", args[0])
		os.Exit(2)
	}
}

func printMaterials(items []material.Material) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUNIT\tQUANTITY\tMIN\tLOW")
	for _, m := range items {
		low := ""
		if m.IsLowStock() {
			low = "!"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Name, m.Category, m.Unit, m.Quantity, m.MinStock, low)
	}
	_ = w.Flush()
}

// --- worker ---

func runWorker(ctx context.Context, a *app.App, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stockbook worker <add|list|rename|activate|deactivate|delete> [flags]")
		os.Exit(2)
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("worker add", flag.ExitOnError)
		name := fs.String("name", "", "worker name")
		_ = fs.Parse(args[1:])

		w := worker.New(*name)
		if err := a.Workers.Create(ctx, w); err != nil {
			fatal(err)
		}
		fmt.Println(w.ID)

	case "list":
		items, err := a.Workers.List(ctx)
		if err != nil {
			fatal(err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tACTIVE")
		for _, w := range items {
			fmt.Fprintf(tw, "%s\t%s\t%v\n", w.ID, w.Name, w.Active)
		}
		_ = tw.Flush()

	case "rename":
		fs := flag.NewFlagSet("worker rename", flag.ExitOnError)
		idRaw := fs.String("id", "", "worker id")
		name := fs.String("name", "", "new name")
		_ = fs.Parse(args[1:])

		if err := a.Workers.Rename(ctx, mustID(*idRaw, "worker id"), *name); err != nil {
			fatal(err)
		}

	case "activate", "deactivate":
		fs := flag.NewFlagSet("worker "+args[0], flag.ExitOnError)
		idRaw := fs.String("id", "", "worker id")
		_ = fs.Parse(args[1:])

		if err := a.Workers.SetActive(ctx, mustID(*idRaw, "worker id"), args[0] == "activate"); err != nil {
			fatal(err)
		}

	case "delete":
		fs := flag.NewFlagSet("worker delete", flag.ExitOnError)
		idRaw := fs.String("id", "", "worker id")
		_ = fs.Parse(args[1:])

		if err := a.Workers.Delete(ctx, mustID(*idRaw, "worker id")); err != nil {
			fatal(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown worker command %q\n", args[0])
		os.Exit(2)
	}
}

// --- model ---

func runModel(ctx context.Context, a *app.App, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: stockbook model <add|list|rename|delete> [flags]")
		os.Exit(2)
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("model add", flag.ExitOnError)
		name := fs.String("name", "", "model name")
		_ = fs.Parse(args[1:])

		m := sofamodel.New(*name)
		if err := a.SofaModels.Create(ctx, m); err != nil {
			fatal(err)
		}
		fmt.Println(m.ID)

	case "list":
		items, err := a.SofaModels.List(ctx)
		if err != nil {
			fatal(err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, m := range items {
			fmt.Fprintf(tw, "%s\t%s\n", m.ID, m.Name)
		}
		_ = tw.Flush()

	case "rename":
		fs := flag.NewFlagSet("model rename", flag.ExitOnError)
		idRaw := fs.String("id", "", "model id")
		name := fs.String("name", "", "new name")
		_ = fs.Parse(args[1:])

		if err := a.SofaModels.Rename(ctx, mustID(*idRaw, "model id"), *name); err != nil {
			fatal(err)
		}

	case "delete":
		fs := flag.NewFlagSet("model delete", flag.ExitOnError)
		idRaw := fs.String("id", "", "model id")
		_ = fs.Parse(args[1:])

		if err := a.SofaModels.Delete(ctx, mustID(*idRaw, "model id")); err != nil {
			fatal(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown model command %q\n", args[0])
		os.Exit(2)
	}
}

// --- stock operations ---

// itemFlags collects repeated -item flags of the form
// material-id:quantity[:worker-id[:model-id]].
type itemFlags []ledger.LineItem

func (f *itemFlags) String() string { return fmt.Sprintf("%d items", len(*f)) }

func (f *itemFlags) Set(raw string) error {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return fmt.Errorf("want material-id:quantity[:worker-id[:model-id]], got %q", raw)
	}

	materialID, err := id.Parse(parts[0])
	if err != nil {
		return fmt.Errorf("material id: %w", err)
	}

	var quantity types.Quantity
	if err := quantity.UnmarshalJSON([]byte(parts[1])); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}

	item := ledger.LineItem{MaterialID: materialID, Quantity: quantity}
	if len(parts) > 2 && parts[2] != "" {
		workerID, err := id.Parse(parts[2])
		if err != nil {
			return fmt.Errorf("worker id: %w", err)
		}
		item.WorkerID = &workerID
	}
	if len(parts) > 3 && parts[3] != "" {
		modelID, err := id.Parse(parts[3])
		if err != nil {
			return fmt.Errorf("model id: %w", err)
		}
		item.SofaModelID = &modelID
	}

	*f = append(*f, item)
	return nil
}

func runLog(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	typeRaw := fs.String("type", "out", "movement direction: in or out")
	units := fs.Int64("units", 0, "units produced, recorded on the first line")
	dateRaw := fs.String("date", "", "business date (YYYY-MM-DD), default today")
	var items itemFlags
	fs.Var(&items, "item", "material-id:quantity[:worker-id[:model-id]], repeatable")
	_ = fs.Parse(args)

	var date *time.Time
	if *dateRaw != "" {
		parsed, err := time.Parse(dateLayout, *dateRaw)
		if err != nil {
			fatal(err)
		}
		date = &parsed
	}

	created, err := a.Ledger.LogStock(ctx, items, ledger.MovementType(*typeRaw), *units, date)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("recorded %d of %d lines\n", len(created), len(items))
	for _, t := range created {
		fmt.Printf("  %s  %s %s %s\n", t.ID, t.Type, t.Quantity, t.MaterialName)
	}
}

func runEdit(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	idRaw := fs.String("id", "", "transaction id")
	quantity := fs.String("quantity", "", "new quantity")
	typeRaw := fs.String("type", "", "new direction: in or out")
	dateRaw := fs.String("date", "", "new business date (YYYY-MM-DD)")
	workerRaw := fs.String("worker", "", "new worker id")
	modelRaw := fs.String("model", "", "new sofa model id")
	noteText := fs.String("note", "", "new text note")
	_ = fs.Parse(args)

	var patch ledger.TransactionPatch
	if *quantity != "" {
		q := mustQuantity(*quantity, "quantity")
		patch.Quantity = &q
	}
	if *typeRaw != "" {
		t := ledger.MovementType(*typeRaw)
		patch.Type = &t
	}
	if *dateRaw != "" {
		parsed, err := time.Parse(dateLayout, *dateRaw)
		if err != nil {
			fatal(err)
		}
		patch.Date = &parsed
	}
	if *workerRaw != "" {
		workerID := mustID(*workerRaw, "worker id")
		patch.WorkerID = &workerID
	}
	if *modelRaw != "" {
		modelID := mustID(*modelRaw, "model id")
		patch.SofaModelID = &modelID
	}
	if *noteText != "" {
		patch.Note = ledger.TextNote(*noteText)
	}

	if err := a.Ledger.EditTransaction(ctx, mustID(*idRaw, "transaction id"), patch); err != nil {
		fatal(err)
	}
}

func runDelete(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	idRaw := fs.String("id", "", "transaction id")
	_ = fs.Parse(args)

	if err := a.Ledger.DeleteWithRollback(ctx, mustID(*idRaw, "transaction id")); err != nil {
		fatal(err)
	}
}

func runAdjust(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("adjust", flag.ExitOnError)
	idRaw := fs.String("id", "", "material id")
	change := fs.String("change", "", "signed quantity change")
	_ = fs.Parse(args)

	err := a.Ledger.AdjustWithoutRecord(ctx,
		mustID(*idRaw, "material id"),
		mustQuantity(*change, "change"))
	if err != nil {
		fatal(err)
	}
}

func runConfirmSale(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("confirm-sale", flag.ExitOnError)
	var items itemFlags
	fs.Var(&items, "item", "material-id:quantity, repeatable; quantity is the amount consumed")
	_ = fs.Parse(args)

	consumptions := make([]sales.Consumption, 0, len(items))
	for _, item := range items {
		consumptions = append(consumptions, sales.Consumption{
			MaterialID:     item.MaterialID,
			QuantityChange: item.Quantity.Neg(),
		})
	}
	if err := sales.Confirm(ctx, a.Ledger, consumptions); err != nil {
		fatal(err)
	}
}

func runTransactions(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	materialRaw := fs.String("material", "", "filter by material id")
	_ = fs.Parse(args)

	var (
		items []ledger.StockTransaction
		err   error
	)
	if *materialRaw != "" {
		items, err = a.Ledger.ListByMaterial(ctx, mustID(*materialRaw, "material id"))
	} else {
		items, err = a.Ledger.List(ctx)
	}
	if err != nil {
		fatal(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tMATERIAL\tQUANTITY\tDETAILS")
	for _, t := range items {
		details := ""
		if t.SofaDetails != nil {
			details = *t.SofaDetails
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.Format(dateLayout), t.Type, t.MaterialName, t.Quantity, details)
	}
	_ = tw.Flush()
}
