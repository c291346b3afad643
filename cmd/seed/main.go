// Package main seeds the inventory with demo data for development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/catalogs/material"
	"stockbook/internal/domain/catalogs/sofamodel"
	"stockbook/internal/domain/catalogs/worker"
	"stockbook/internal/domain/ledger"
	"stockbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if path := os.Getenv("STOCKBOOK_CONFIG"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			log.Fatalw("failed to load config", "error", err)
		}
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize", "error", err)
	}
	defer a.Close()

	if existing, err := a.Materials.List(ctx); err != nil {
		log.Fatalw("failed to check existing data", "error", err)
	} else if len(existing) > 0 {
		log.Infow("materials already present, skipping seed", "count", len(existing))
		return
	}

	materials := []*material.Material{
		newMaterial("Oak plank 20mm", "Wood", "pcs", 120, 20, "38.50"),
		newMaterial("Foam block HR35", "Foam", "pcs", 45, 10, "12.00"),
		newMaterial("Upholstery fabric gray", "Fabric", "m", 80.5, 15, "9.75"),
		newMaterial("Wood screws 4x40", "Hardware", "pcs", 2400, 500, "0.04"),
		newMaterial("Staples 10mm", "Hardware", "box", 18, 5, "2.30"),
	}
	for _, m := range materials {
		if err := a.Materials.Create(ctx, m); err != nil {
			log.Fatalw("failed to seed material", "name", m.Name, "error", err)
		}
	}
	log.Infow("seeded materials", "count", len(materials))

	workers := []*worker.Worker{
		worker.New("Marcus"),
		worker.New("Elena"),
	}
	for _, w := range workers {
		if err := a.Workers.Create(ctx, w); err != nil {
			log.Fatalw("failed to seed worker", "name", w.Name, "error", err)
		}
	}

	models := []*sofamodel.SofaModel{
		sofamodel.New("Oslo 3-seater"),
		sofamodel.New("Bergen corner"),
	}
	for _, m := range models {
		if err := a.SofaModels.Create(ctx, m); err != nil {
			log.Fatalw("failed to seed sofa model", "name", m.Name, "error", err)
		}
	}

	// One production batch so the ledger is not empty.
	date := time.Now().AddDate(0, 0, -1)
	items := []ledger.LineItem{
		{MaterialID: materials[0].ID, Quantity: types.NewQuantityFromInt(8), WorkerID: &workers[0].ID, SofaModelID: &models[0].ID},
		{MaterialID: materials[1].ID, Quantity: types.NewQuantityFromInt(4), WorkerID: &workers[0].ID, SofaModelID: &models[0].ID},
		{MaterialID: materials[2].ID, Quantity: types.NewQuantityFromFloat64(6.5), WorkerID: &workers[1].ID, SofaModelID: &models[0].ID},
	}
	created, err := a.Ledger.LogStock(ctx, items, ledger.MovementOut, 1, &date)
	if err != nil {
		log.Fatalw("failed to seed stock movements", "error", err)
	}
	log.Infow("seeded stock movements", "count", len(created))

	log.Info("seeding completed")
}

func newMaterial(name, category, unit string, quantity, minStock float64, cost string) *material.Material {
	m := material.New(name, category, unit)
	m.Quantity = types.NewQuantityFromFloat64(quantity)
	m.MinStock = types.NewQuantityFromFloat64(minStock)
	m.CostPerUnit = types.MustMoney(cost)
	return m
}
