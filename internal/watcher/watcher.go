// Package watcher drives the change-detection pipeline: it monitors the
// source CSV, detects real content changes by hash comparison, and re-derives
// the cleaned dataset and statistics into the cache exactly once per change.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/cleaner"
	"github.com/jonesrussell/diet-data/internal/loader"
	"github.com/jonesrussell/diet-data/internal/logger"
)

// State is the pipeline's position in its per-file lifecycle.
type State int

const (
	// StateUninitialized means no content hash has been recorded yet.
	StateUninitialized State = iota
	// StateWatching means a hash is recorded and the pipeline is idle.
	StateWatching
	// StateProcessing means a change was detected and cleaning is in progress.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWatching:
		return "watching"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

const (
	hashChunkSize    = 32 * 1024
	debounceInterval = 100 * time.Millisecond
)

// Pipeline watches one source file and keeps the cache in sync with it.
// Request handlers and the pipeline share no in-process lock; the cache's
// atomic single-key writes are the only coordination point.
type Pipeline struct {
	path    string
	cache   *cache.Cache
	loader  *loader.CSVLoader
	cleaner *cleaner.Cleaner
	log     logger.Logger

	fsw  *fsnotify.Watcher
	stop chan struct{}
	done chan struct{}

	mu    sync.Mutex
	state State
}

func New(path string, c *cache.Cache, cl *cleaner.Cleaner, log logger.Logger) *Pipeline {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Pipeline{
		path:    abs,
		cache:   c,
		loader:  loader.New(abs),
		cleaner: cl,
		log:     log,
		state:   StateUninitialized,
	}
}

// Path returns the absolute path of the watched file.
func (p *Pipeline) Path() string {
	return p.path
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Start performs one forced processing pass (the file may have changed while
// unwatched), then subscribes to filesystem notifications for the file's
// directory in a background goroutine. The context cancels the subscription.
func (p *Pipeline) Start(ctx context.Context) error {
	// Startup pass is forced past the state check but still hash-gated, so
	// identical bytes never trigger a second clean.
	if err := p.Process(ctx, false); err != nil {
		p.log.Error("Initial processing pass failed",
			logger.String("path", p.path),
			logger.Error(err),
		)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace files by rename, which
	// drops a watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(p.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	p.fsw = fsw
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go p.run(ctx)

	p.log.Info("Started watching source file",
		logger.String("path", p.path),
	)
	return nil
}

// Stop closes the filesystem subscription and waits for any in-flight
// processing pass to finish.
func (p *Pipeline) Stop() {
	if p.fsw == nil {
		return
	}
	close(p.stop)
	_ = p.fsw.Close()
	<-p.done
	p.log.Info("Stopped file watcher")
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)

	var debounce *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case event, ok := <-p.fsw.Events:
			if !ok {
				return
			}
			if event.Name != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce bursts of write events into one pass.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			p.log.Info("Detected change in source file",
				logger.String("path", p.path),
			)
			if err := p.Process(ctx, false); err != nil {
				p.log.Error("Processing failed",
					logger.String("path", p.path),
					logger.Error(err),
				)
			}
		case _, ok := <-p.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Process runs one change-detection pass. It hashes the file content, skips
// when the hash matches the recorded one (unless force is set), and otherwise
// cleans the dataset, stores it and its statistics in the cache, and records
// the new hash last. The hash write ordering is deliberate: a crash before it
// leaves the old hash in place, so the next pass redoes the work instead of
// silently skipping it. Errors never update the hash, so the same change is
// retried on the next trigger.
func (p *Pipeline) Process(ctx context.Context, force bool) error {
	hash, err := hashFile(p.path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", p.path, err)
	}

	if !force {
		if cached, ok := p.cache.GetFileHash(ctx, p.path); ok && cached == hash {
			p.log.Info("File hash unchanged, skipping processing",
				logger.String("path", p.path),
			)
			p.setState(StateWatching)
			return nil
		}
	}

	p.setState(StateProcessing)
	defer p.setState(StateWatching)

	p.log.Info("File changed, starting data processing",
		logger.String("path", p.path),
		logger.String("hash", hash),
	)

	raw, err := p.loader.Load()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	records := p.cleaner.Clean(raw)
	if !p.cache.SetRecords(ctx, cache.KeyCleanedData, records, 0) {
		return fmt.Errorf("cache cleaned dataset: backend unavailable")
	}

	stats := p.cleaner.Statistics(records)
	if !p.cache.Set(ctx, cache.KeyStatistics, stats, 0) {
		return fmt.Errorf("cache statistics: backend unavailable")
	}

	// Only now is this generation observable as processed.
	p.cache.SetFileHash(ctx, p.path, hash)

	p.log.Info("Data processing completed",
		logger.Int("records", len(records)),
	)
	return nil
}

// hashFile computes a SHA-256 digest over the full file content, streamed in
// fixed-size chunks. Metadata (mtime, size) plays no part, so touch without a
// content change never triggers reprocessing.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", readErr
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
