// Package main prints a ledger audit of the station database.
//
// Usage:
//
//	go run ./cmd/dbinspect
//	go run ./cmd/dbinspect --recent 20 --json
//
// Exit status is 2 when the ledger needs reconciliation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/canlabel/labeler-station/internal/config"
	"github.com/canlabel/labeler-station/internal/di/providers"
	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/store"
)

// maxGaps bounds the gap listing in text output.
const maxGaps = 20

var (
	recent = flag.Int("recent", 10, "Number of recent records to list")
	asJSON = flag.Bool("json", false, "Print the audit as JSON")
)

type report struct {
	Audit  *store.LedgerAudit    `json:"audit"`
	Recent []*domain.PrintRecord `json:"recent"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, path, err := providers.OpenStore(cfg.Storage, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	rep, err := inspect(context.Background(), st, *recent)
	if err != nil {
		log.Fatalf("Inspection failed: %v", err) //nolint:gocritic // Store closed by process exit
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("Encode report: %v", err)
		}
	} else {
		fmt.Printf("=== Ledger Inspection (%s) ===\n\n", path)
		printReport(os.Stdout, rep)
	}

	if rep.Audit.Lagging {
		os.Exit(2)
	}
}

func inspect(ctx context.Context, st store.Store, recent int) (*report, error) {
	audit, err := st.Audit(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	recs, err := st.ListRecentRecords(ctx, recent)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return &report{Audit: audit, Recent: recs}, nil
}

func printReport(w io.Writer, rep *report) {
	a := rep.Audit
	if a.Counter == nil {
		fmt.Fprintln(w, "Counter: not seeded")
	} else {
		fmt.Fprintf(w, "Counter %s: next id %d\n", a.Counter.ID, a.Counter.NextID)
	}
	fmt.Fprintf(w, "Records: %d", a.Records)
	if a.Records > 0 {
		fmt.Fprintf(w, " (can ids %d..%d)", a.MinCanID, a.MaxCanID)
	}
	fmt.Fprintln(w)

	if a.Lagging {
		fmt.Fprintf(w, "\n!! Counter lags the print log: can id %d is already recorded.\n", a.MaxCanID)
		fmt.Fprintln(w, "!! Reconcile from the station before printing.")
	}

	if len(a.Gaps) > 0 {
		fmt.Fprintf(w, "\nGaps (%d):\n", len(a.Gaps))
		for i, g := range a.Gaps {
			if i == maxGaps {
				fmt.Fprintf(w, "  ... %d more\n", len(a.Gaps)-maxGaps)
				break
			}
			if g.From == g.To {
				fmt.Fprintf(w, "  %d\n", g.From)
			} else {
				fmt.Fprintf(w, "  %d-%d\n", g.From, g.To)
			}
		}
	}

	if len(rep.Recent) > 0 {
		fmt.Fprintf(w, "\nRecent records:\n")
		for _, r := range rep.Recent {
			fmt.Fprintf(w, "  #%06d  %s  lot %s  %5dg  %s\n",
				r.CanID, r.Code21, r.Lot, r.WeightGrams, r.PrintedAt.Format("2006-01-02 15:04:05"))
		}
	}
}
