// Package main seeds the station catalog and counter ledger from a JSON file.
//
// Usage:
//
//	go run ./cmd/seed --file seed.json
//	DATA_PATH=/var/lib/labeler STORE_DRIVER=badger go run ./cmd/seed --file seed.json
//
// Products and brands are upserted, so the tool can be re-run after catalog edits.
// The counter is only created when the ledger is empty; an existing ledger is never rewound.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/di/providers"
	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/store"
	"github.com/canlabel/labeler-station/internal/validation"
)

var seedFile = flag.String("file", "seed.json", "JSON file with products, brands and the counter")

// seedData is the seed file layout.
type seedData struct {
	Counter  *domain.SequenceCounter `json:"counter"`
	Products []*domain.Product       `json:"products"`
	Brands   []*domain.Brand         `json:"brands"`
}

// seedResult counts what was written.
type seedResult struct {
	Products      int
	Brands        int
	CounterSeeded bool
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	data, err := loadSeedFile(*seedFile)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	st, path, err := providers.OpenStore(cfg.Storage, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	fmt.Printf("Seeding %s store at: %s\n", cfg.Storage.Driver, path)

	result, err := seed(context.Background(), st, data)
	if err != nil {
		log.Fatalf("Seed failed: %v", err) //nolint:gocritic // Store closed by process exit
	}

	fmt.Printf("Products: %d\n", result.Products)
	fmt.Printf("Brands:   %d\n", result.Brands)
	if result.CounterSeeded {
		fmt.Printf("Counter %s starts at %d\n", data.Counter.ID, data.Counter.NextID)
	} else if data.Counter != nil {
		fmt.Println("Counter already exists, left unchanged")
	}
}

func loadSeedFile(path string) (*seedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data seedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	v := validation.New()
	for i, p := range data.Products {
		if err := v.Validate(p); err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i, p.Name, err)
		}
	}
	for i, b := range data.Brands {
		if err := v.Validate(b); err != nil {
			return nil, fmt.Errorf("brand %d (%s): %w", i, b.Name, err)
		}
	}
	if c := data.Counter; c != nil {
		if c.ID == "" {
			c.ID = "ctr-main"
		}
		if c.NextID < 1 {
			return nil, fmt.Errorf("counter next_id must be at least 1, got %d", c.NextID)
		}
	}
	return &data, nil
}

func seed(ctx context.Context, st store.Seeder, data *seedData) (seedResult, error) {
	var result seedResult

	for _, p := range data.Products {
		if err := st.UpsertProduct(ctx, p); err != nil {
			return result, fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		result.Products++
	}
	for _, b := range data.Brands {
		if err := st.UpsertBrand(ctx, b); err != nil {
			return result, fmt.Errorf("upsert brand %s: %w", b.Name, err)
		}
		result.Brands++
	}

	if data.Counter != nil {
		err := st.SeedCounter(ctx, data.Counter)
		switch {
		case err == nil:
			result.CounterSeeded = true
		case errors.Is(err, store.ErrAlreadyExists):
		default:
			return result, fmt.Errorf("seed counter: %w", err)
		}
	}
	return result, nil
}
