package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumerag/config"
)

// Ingester is the part of the pipeline the watcher feeds.
type Ingester interface {
	Ingest(ctx context.Context, text, sourceID string) ([]string, error)
}

// Watcher polls a drop directory and ingests resume PDFs once they have
// stopped changing for the monitoring window. Processed files move to the
// archive directory, failed ones to the bad directory.
type Watcher struct {
	cfg      *config.Config
	ingester Ingester
	logger   *slog.Logger

	mu         sync.Mutex
	firstSeen  map[string]time.Time
	processing map[string]bool
}

func NewWatcher(cfg *config.Config, ingester Ingester) (*Watcher, error) {
	if err := createDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir); err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:        cfg,
		ingester:   ingester,
		logger:     slog.Default(),
		firstSeen:  make(map[string]time.Time),
		processing: make(map[string]bool),
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("watching resume drop directory", "dir", w.cfg.SourceDir)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	files, err := os.ReadDir(w.cfg.SourceDir)
	if err != nil {
		w.logger.Error("read source directory", "error", err)
		return
	}

	currentFiles := make(map[string]bool)

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		filePath := filepath.Join(w.cfg.SourceDir, file.Name())
		currentFiles[filePath] = true

		if !w.markReady(filePath) {
			continue
		}

		if err := w.process(ctx, filePath); err != nil {
			w.logger.Error("process resume", "file", filePath, "error", err)
			w.moveTo(filePath, w.cfg.BadDir)
		} else {
			w.moveTo(filePath, w.cfg.ArchiveDir)
		}
	}

	// Drop tracking state for files that disappeared from the directory.
	w.mu.Lock()
	for filePath := range w.firstSeen {
		if !currentFiles[filePath] {
			delete(w.firstSeen, filePath)
			delete(w.processing, filePath)
		}
	}
	w.mu.Unlock()
}

// markReady tracks when a file was first seen and reports whether it has
// been stable long enough to process. A file is claimed at most once.
func (w *Watcher) markReady(filePath string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.processing[filePath] {
		return false
	}

	firstSeen, exists := w.firstSeen[filePath]
	if !exists {
		w.firstSeen[filePath] = time.Now()
		w.logger.Info("new file detected", "file", filePath)
		return false
	}

	if time.Since(firstSeen) <= w.cfg.MonitoringTime {
		return false
	}

	w.processing[filePath] = true
	return true
}

func (w *Watcher) process(ctx context.Context, filePath string) error {
	sourcePath := filePath

	if w.cfg.CropTop > 0 || w.cfg.CropBottom > 0 {
		cropped := filepath.Join(os.TempDir(), "cropped_"+filepath.Base(filePath))
		if err := CropHeaderFooter(filePath, cropped, w.cfg.CropTop, w.cfg.CropBottom); err != nil {
			return err
		}
		defer os.Remove(cropped)
		sourcePath = cropped
	}

	text, err := ExtractText(sourcePath)
	if err != nil {
		return err
	}

	chunks, err := w.ingester.Ingest(ctx, text, filePath)
	if err != nil {
		return err
	}

	w.logger.Info("resume ingested from drop directory", "file", filePath, "chunks", len(chunks))
	return nil
}

func (w *Watcher) moveTo(filePath, dir string) {
	target := filepath.Join(dir, filepath.Base(filePath))
	if err := os.Rename(filePath, target); err != nil {
		w.logger.Error("move file", "file", filePath, "target", target, "error", err)
	}
}

func createDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
