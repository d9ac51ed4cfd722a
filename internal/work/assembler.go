package work

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Fetcher fetches one chapter of one story.
type Fetcher interface {
	FetchChapter(ctx context.Context, storyID string, chapter int) (*Fragment, error)
}

// State of the assembly state machine.
type State int

const (
	Idle State = iota
	Running
	Stalled
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stalled:
		return "stalled"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// DefaultBatchSize is the number of chapters fetched concurrently as one
// unit of progress.
const DefaultBatchSize = 4

// DefaultYield is the cooperative pause between batches.
const DefaultYield = 50 * time.Millisecond

var (
	// ErrRunning is returned when Run is invoked while a pass is already in
	// flight. Assembly is single-shot per document.
	ErrRunning = errors.New("work: assembly already running")
	// ErrComplete is returned when Run is invoked after completion.
	ErrComplete = errors.New("work: assembly already complete")
	// ErrNotStalled is returned when Resume is invoked in any state but Stalled.
	ErrNotStalled = errors.New("work: assembly is not stalled")
)

// Config wires an Assembler.
type Config struct {
	StoryID  string
	Chapters int
	Fetcher  Fetcher

	// Resident holds chapters already in memory (the originally displayed
	// one); they are reused with zero network cost.
	Resident []*Fragment

	BatchSize int
	Yield     time.Duration

	// Progress receives the user-visible status line.
	Progress func(string)
	// OnComplete runs one final reconciliation pass over the assembled document.
	OnComplete func(*Document)
	// OnRecolor triggers the cosmetic contrast refresh.
	OnRecolor func()
}

// Assembler fetches every chapter of a work in ordered, fixed-size batches
// and merges them into a Document. Per-chapter fetch failures are absorbed;
// a failure at the batch boundary stalls the machine at the exact chapter
// where it stopped, resumable via Resume.
type Assembler struct {
	mu sync.Mutex

	storyID   string
	chapters  int
	fetcher   Fetcher
	resident  map[int]*Fragment
	batchSize int
	yield     time.Duration

	progress   func(string)
	onComplete func(*Document)
	onRecolor  func()

	state  State
	next   int
	doc    *Document
	failed map[int]error
}

func NewAssembler(cfg Config) (*Assembler, error) {
	if cfg.StoryID == "" {
		return nil, fmt.Errorf("work: story id required")
	}
	if cfg.Chapters < 1 {
		return nil, fmt.Errorf("work: chapters must be >= 1")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("work: fetcher required")
	}

	a := &Assembler{
		storyID:    cfg.StoryID,
		chapters:   cfg.Chapters,
		fetcher:    cfg.Fetcher,
		resident:   make(map[int]*Fragment),
		batchSize:  cfg.BatchSize,
		yield:      cfg.Yield,
		progress:   cfg.Progress,
		onComplete: cfg.OnComplete,
		onRecolor:  cfg.OnRecolor,
		state:      Idle,
		next:       1,
		doc:        NewDocument(),
		failed:     make(map[int]error),
	}
	if a.batchSize <= 0 {
		a.batchSize = DefaultBatchSize
	}
	if a.yield <= 0 {
		a.yield = DefaultYield
	}
	for _, f := range cfg.Resident {
		if f != nil && f.Chapter >= 1 && f.Chapter <= a.chapters {
			a.resident[f.Chapter] = f
		}
	}
	return a, nil
}

// State returns the current machine state.
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// NextChapter returns the next chapter to be requested; after a stall this
// is the exact resume point.
func (a *Assembler) NextChapter() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// Document returns the assembled document.
func (a *Assembler) Document() *Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc
}

// Failed returns the chapters whose fetch exhausted all retries, ascending.
func (a *Assembler) Failed() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int, 0, len(a.failed))
	for ch := range a.failed {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// Run starts assembly from Idle. A second Run while one is in flight is
// rejected rather than racing the first.
func (a *Assembler) Run(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case Running:
		a.mu.Unlock()
		return ErrRunning
	case Complete:
		a.mu.Unlock()
		return ErrComplete
	}
	a.state = Running
	a.mu.Unlock()

	return a.run(ctx)
}

// Resume continues a stalled assembly from the chapter where it stopped.
func (a *Assembler) Resume(ctx context.Context) error {
	a.mu.Lock()
	if a.state != Stalled {
		a.mu.Unlock()
		return ErrNotStalled
	}
	a.state = Running
	a.mu.Unlock()

	return a.run(ctx)
}

func (a *Assembler) run(ctx context.Context) error {
	for {
		a.mu.Lock()
		start := a.next
		if start > a.chapters {
			a.mu.Unlock()
			break
		}
		batch := make([]int, 0, a.batchSize)
		for ch := start; ch <= a.chapters && len(batch) < a.batchSize; ch++ {
			batch = append(batch, ch)
		}
		a.mu.Unlock()

		a.report(fmt.Sprintf("Loading chapters %d to %d...", batch[0], batch[len(batch)-1]))

		results := a.fetchBatch(ctx, batch)

		// A cancelled context is a batch-boundary failure, not a per-chapter
		// one: stall at the start of this batch and let Resume retry it.
		if err := ctx.Err(); err != nil {
			a.mu.Lock()
			a.state = Stalled
			a.next = start
			a.mu.Unlock()
			a.report(fmt.Sprintf("Stopped at chapter %d. Click resume to retry.", start))
			return fmt.Errorf("batch starting at %d: %w", start, err)
		}

		// All in-batch fetches have settled; completion handling runs
		// sequentially here. Failed chapters are omitted, not fatal.
		a.mu.Lock()
		for _, r := range results {
			if r.err != nil {
				log.Printf("[work] failed to load chapter %d of %s: %v", r.chapter, a.storyID, r.err)
				a.failed[r.chapter] = r.err
				continue
			}
			delete(a.failed, r.chapter)
			a.doc.Insert(r.frag)
		}
		a.next = batch[len(batch)-1] + 1
		done := a.next > a.chapters
		a.mu.Unlock()

		if done {
			break
		}

		// cooperative yield between batches
		select {
		case <-time.After(a.yield):
		case <-ctx.Done():
			a.mu.Lock()
			a.state = Stalled
			a.mu.Unlock()
			a.report(fmt.Sprintf("Stopped at chapter %d. Click resume to retry.", a.NextChapter()))
			return fmt.Errorf("between batches: %w", ctx.Err())
		}
	}

	a.mu.Lock()
	a.state = Complete
	a.mu.Unlock()

	a.report(fmt.Sprintf("Loaded all %d chapters.", a.chapters))
	if a.onComplete != nil {
		a.onComplete(a.doc)
	}
	if a.onRecolor != nil {
		a.onRecolor()
	}
	return nil
}

type settled struct {
	chapter int
	frag    *Fragment
	err     error
}

// fetchBatch issues every non-resident fetch of the batch concurrently and
// waits for all of them to settle. Resident chapters cost no network call.
func (a *Assembler) fetchBatch(ctx context.Context, batch []int) []settled {
	out := make([]settled, len(batch))
	var wg sync.WaitGroup
	for i, ch := range batch {
		if frag, ok := a.resident[ch]; ok {
			out[i] = settled{chapter: ch, frag: frag}
			continue
		}
		wg.Add(1)
		go func(i, ch int) {
			defer wg.Done()
			frag, err := a.fetcher.FetchChapter(ctx, a.storyID, ch)
			out[i] = settled{chapter: ch, frag: frag, err: err}
		}(i, ch)
	}
	wg.Wait()
	return out
}

func (a *Assembler) report(line string) {
	if a.progress != nil {
		a.progress(line)
	}
}
