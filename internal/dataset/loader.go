package dataset

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KaranKumar0402/Commodity-price/internal/logger"
)

// Loader fetches and parses tables, memoizing the result per location
type Loader struct {
	fetcher *Fetcher

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once  sync.Once
	table *Table
	err   error
}

// NewLoader creates a loader that fetches through fetcher
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		entries: make(map[string]*entry),
	}
}

// Load returns the table at location, fetching it on the first call only.
// Failures are memoized too: there is no retry for the process lifetime.
func (l *Loader) Load(ctx context.Context, location string) (*Table, error) {
	l.mu.Lock()
	e, ok := l.entries[location]
	if !ok {
		e = &entry{}
		l.entries[location] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		e.table, e.err = l.fetch(ctx, location)
	})
	return e.table, e.err
}

func (l *Loader) fetch(ctx context.Context, location string) (*Table, error) {
	start := time.Now()
	logger.Info("Loading historical prices from %s", location)

	body, err := l.fetcher.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	counter := &countingReader{r: body}
	records, err := ParseCSV(counter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	logger.Info("Loaded %s records (%s) in %v",
		humanize.Comma(int64(len(records))), humanize.Bytes(counter.n), time.Since(start))
	return NewTable(records), nil
}

// countingReader tracks how many bytes were read, for the load log line
type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	return n, err
}
