package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/deusflow/mainewire/internal/metrics"
)

const ModeLocal = "dev"

// LocalFilePublisher writes records under a root directory. Existing files
// are never overwritten.
type LocalFilePublisher struct {
	root string
}

func NewLocalFilePublisher(root string) *LocalFilePublisher {
	if root == "" {
		root = "."
	}
	return &LocalFilePublisher{root: root}
}

func (p *LocalFilePublisher) Mode() string { return ModeLocal }

// ExistingSlugs is empty in local mode; Publish checks each file instead.
func (p *LocalFilePublisher) ExistingSlugs(ctx context.Context) (*SlugIndex, error) {
	return NewSlugIndex(), nil
}

// Publish writes every record it can. A failing file is logged and counted
// but does not stop the batch.
func (p *LocalFilePublisher) Publish(ctx context.Context, records []Record) (*PublishResult, error) {
	result := &PublishResult{}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		full := filepath.Join(p.root, filepath.FromSlash(r.Path))

		if _, err := os.Stat(full); err == nil {
			slog.Debug("File already exists, skipping", "path", full)
			result.Skipped++
			continue
		}

		if err := p.write(full, r.Content); err != nil {
			slog.Error("Failed to write content file", "path", full, "error", err)
			result.Failed++
			continue
		}

		if r.Kind == KindVideo {
			result.SavedVideos++
		} else {
			result.Saved++
		}
		slog.Debug("Wrote content file", "path", full)
	}

	metrics.RecordPublish(ModeLocal, result.Saved+result.SavedVideos)
	if result.Failed > 0 {
		metrics.RecordPublishError(ModeLocal, "write")
	}
	return result, nil
}

func (p *LocalFilePublisher) write(full, content string) error {
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
