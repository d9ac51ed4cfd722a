package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"betterfiction/internal/store"
	"betterfiction/pkg/database"
)

func main() {
	in := flag.String("in", "bookmarks.json", "input JSON path")
	flag.Parse()

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	// full replace, not a merge
	st := store.New(db)
	if err := st.ImportJSON(ctx, data); err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("imported store from %s", *in)
}
