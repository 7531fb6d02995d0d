package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/domain"
)

// Download streams the completed job's archive into w and returns the
// filename it should be saved under.
func (o *Orchestrator) Download(ctx context.Context, w io.Writer) (string, int64, error) {
	o.mu.Lock()
	job := o.jobLocked()
	o.mu.Unlock()

	if job == nil || job.Status != domain.StatusCompleted {
		return "", 0, ErrNoCompletedJob
	}

	n, err := o.api.Download(ctx, job.ID, w)
	if err != nil {
		o.mu.Lock()
		o.failLocked(client.UserMessage(err))
		o.mu.Unlock()
		return "", n, fmt.Errorf("download %s: %w", job.ID, err)
	}

	o.log.Info("Export downloaded", logger.JobID(job.ID), logger.Int64("bytes", n))
	return job.Filename(), n, nil
}

// DownloadTo saves the completed job's archive into dir and returns its path.
func (o *Orchestrator) DownloadTo(ctx context.Context, dir string) (string, error) {
	o.mu.Lock()
	job := o.jobLocked()
	o.mu.Unlock()

	if job == nil || job.Status != domain.StatusCompleted {
		return "", ErrNoCompletedJob
	}

	return SaveFile(dir, job.Filename(), func(w io.Writer) (int64, error) {
		_, n, err := o.Download(ctx, w)
		return n, err
	})
}

// SaveFile writes name into dir through a temporary file so a failed
// transfer never leaves a partial archive behind.
func SaveFile(dir, name string, write func(io.Writer) (int64, error)) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, werr := write(tmp)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmpPath)
		return "", werr
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
