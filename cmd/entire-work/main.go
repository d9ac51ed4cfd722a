package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"betterfiction/internal/fetch"
	"betterfiction/internal/reader"
	"betterfiction/internal/store"
	"betterfiction/internal/work"
	"betterfiction/pkg/database"
	"betterfiction/pkg/models"
	"betterfiction/pkg/utils"
)

func main() {
	var (
		storyID  = flag.String("story", "", "story id to assemble")
		chapters = flag.Int("chapters", 0, "total chapter count")
		out      = flag.String("out", "", "output HTML path (default <story>.html)")
		retries  = flag.Int("resume", 3, "automatic resume attempts after a stall")
	)
	flag.Parse()

	if *storyID == "" || *chapters < 1 {
		log.Fatalf("usage: entire-work -story <id> -chapters <n> [-out file.html]")
	}
	outPath := *out
	if outPath == "" {
		outPath = *storyID + ".html"
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}
	st := store.New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	info, err := st.Settings(ctx)
	if err != nil {
		log.Printf("[entire-work] settings unavailable, using defaults: %v", err)
		info = models.DefaultSettings()
	}
	dir, err := st.GetDir(ctx)
	if err != nil {
		log.Printf("[entire-work] bookmark directory unavailable: %v", err)
		dir = map[string]models.Bookmark{}
	}
	page := reader.NewPage(info, dir, st, *storyID, *chapters)

	client := fetch.NewClient(utils.LoadSourceConfig().BaseURL, st)

	asm, err := work.NewAssembler(work.Config{
		StoryID:  *storyID,
		Chapters: *chapters,
		Fetcher:  client,
		Progress: func(line string) { log.Printf("[entire-work] %s", line) },
		OnComplete: func(doc *work.Document) {
			for _, ctrl := range page.Reconcile(doc) {
				if ctrl.Marked {
					log.Printf("[entire-work] bookmark at chapter %d (%s)", ctrl.Chapter, ctrl.Color)
				}
			}
		},
	})
	if err != nil {
		log.Fatalf("assembler: %v", err)
	}

	if err := asm.Run(ctx); err != nil {
		// the stalled context is spent; each resume gets a fresh deadline
		for attempt := 0; attempt < *retries && asm.State() == work.Stalled; attempt++ {
			log.Printf("[entire-work] resuming from chapter %d", asm.NextChapter())
			resumeCtx, resumeCancel := context.WithTimeout(context.Background(), 10*time.Minute)
			err = asm.Resume(resumeCtx)
			resumeCancel()
		}
		if asm.State() != work.Complete {
			log.Fatalf("assembly stopped: %v", err)
		}
	}

	if failed := asm.Failed(); len(failed) > 0 {
		log.Printf("[entire-work] %d chapter(s) missing after retries: %v", len(failed), failed)
	}

	doc := asm.Document()
	words := 0
	for _, f := range doc.Fragments() {
		words += f.WordCount()
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("prepare output dir: %v", err)
		}
	}
	if err := os.WriteFile(outPath, []byte(doc.HTML()), 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}

	fmt.Printf("wrote %s: %d/%d chapters, %d words\n", outPath, doc.Len(), *chapters, words)
}
