package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/aluiziolira/go-scrape-duelmasters/pipeline"
	"github.com/aluiziolira/go-scrape-duelmasters/store"
)

func TestWithStoreMirrorsSets(t *testing.T) {
	dir := t.TempDir()
	files, err := pipeline.NewSetWriterFactory("csv", dir)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	db, err := store.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	open := withStore(files, db, "run-1")
	writer, err := open("DM22-RP1")
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}

	record := &models.CardRecord{
		No:           1,
		Rarity:       "Rare",
		ID:           "5B/22",
		JapaneseName: "ボルシャック",
		EnglishName:  "Bolshack Dragon",
		Civilization: "Fire",
		Set:          "DM22-RP1",
		Reference:    "https://duelmasters.fandom.com/wiki/Bolshack_Dragon",
		PriceYen:     1200,
		PriceSGD:     10.44,
	}
	if err := writer.Write([]*models.CardRecord{record}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "DM22-RP1.csv")); err != nil {
		t.Fatalf("expected csv file: %v", err)
	}
	cards, err := db.Cards("DM22-RP1")
	if err != nil {
		t.Fatalf("cards: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "5B/22" {
		t.Fatalf("unexpected stored cards: %+v", cards)
	}
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	saved := *flags
	t.Cleanup(func() { *flags = saved })

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&flags.OutputDir, "output-dir", flags.OutputDir, "")
	cmd.Flags().StringVar(&flags.OutputFormat, "format", flags.OutputFormat, "")
	cmd.Flags().Float64Var(&flags.Rate, "rate", flags.Rate, "")
	if err := cmd.Flags().Set("format", "XLSX"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	loaded := config.DefaultConfig()
	loaded.OutputDir = "from-env"
	loaded.Rate = 0.01
	applyFlags(cmd, loaded)

	if loaded.OutputFormat != "xlsx" {
		t.Fatalf("expected format xlsx, got %q", loaded.OutputFormat)
	}
	if loaded.OutputDir != "from-env" {
		t.Fatalf("unchanged flag overrode env value: %q", loaded.OutputDir)
	}
	if loaded.Rate != 0.01 {
		t.Fatalf("unchanged flag overrode env rate: %v", loaded.Rate)
	}
}
