package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"betterfiction/internal/store"
	"betterfiction/pkg/database"
)

func main() {
	out := flag.String("out", "bookmarks.json", "output JSON path")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	st := store.New(db)
	blob, err := st.ExportJSON(ctx)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("prepare output dir: %v", err)
		}
	}
	if err := os.WriteFile(*out, blob, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}

	log.Printf("exported store to %s", *out)
}
