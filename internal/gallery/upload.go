package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jo-hoe/gardengallery/internal/imageservice"
	"github.com/jo-hoe/gardengallery/internal/transport"
)

var ErrNothingToUpload = errors.New("no files staged for upload")

// BatchUploader submits one multipart batch.
type BatchUploader interface {
	BatchUpload(ctx context.Context, ownerID int64, isMain bool, files []imageservice.UploadFile, progress transport.ProgressFunc) (imageservice.BatchUploadResult, error)
}

// MainResolver decides the batch-level isMain flag.
type MainResolver interface {
	ResolveBatchMain(ctx context.Context, ownerID int64, requested *bool) (bool, error)
}

// UploadCoordinator sends all candidate files of an owner in one request and
// reports byte progress as a non-decreasing percentage.
type UploadCoordinator struct {
	uploader BatchUploader
	resolver MainResolver
}

func NewUploadCoordinator(uploader BatchUploader, resolver MainResolver) *UploadCoordinator {
	return &UploadCoordinator{uploader: uploader, resolver: resolver}
}

// Upload returns the per-file outcome. A partial result is not an error;
// the successful subset is already persisted and is never rolled back.
func (c *UploadCoordinator) Upload(ctx context.Context, ownerID int64, files []File, isMain *bool, onProgress func(percent int)) (imageservice.BatchUploadResult, error) {
	if len(files) == 0 {
		return imageservice.BatchUploadResult{}, ErrNothingToUpload
	}

	batchMain, err := c.resolver.ResolveBatchMain(ctx, ownerID, isMain)
	if err != nil {
		return imageservice.BatchUploadResult{}, err
	}
	if batchMain && len(files) > 1 {
		slog.Warn("UploadCoordinator: multi-file batch flagged main, server decides which file wins",
			"owner_id", ownerID, "files", len(files))
	}

	progress := newProgressTracker(onProgress)
	progress.report(0)

	slog.Info("UploadCoordinator: starting batch upload",
		"owner_id", ownerID, "files", len(files), "is_main", batchMain)
	result, err := c.uploader.BatchUpload(ctx, ownerID, batchMain, files, progress.bytes)
	if err != nil {
		slog.Error("UploadCoordinator: batch upload failed", "owner_id", ownerID, "error", err)
		return imageservice.BatchUploadResult{}, fmt.Errorf("batch upload failed: %w", err)
	}
	progress.report(100)

	slog.Info("UploadCoordinator: batch upload completed",
		"owner_id", ownerID, "success_count", result.SuccessCount, "error_count", result.ErrorCount)
	return result, nil
}

// progressTracker turns byte counts into a percentage that never goes down,
// even when the transport resends the body after a 401. The body may be read
// on a transport goroutine, so reports are serialized.
type progressTracker struct {
	mu       sync.Mutex
	last     int
	callback func(percent int)
}

func newProgressTracker(callback func(percent int)) *progressTracker {
	return &progressTracker{last: -1, callback: callback}
}

func (p *progressTracker) bytes(sent, total int64) {
	if total <= 0 {
		return
	}
	p.report(int(sent * 100 / total))
}

func (p *progressTracker) report(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	percent = min(max(percent, 0), 100)
	if percent <= p.last {
		return
	}
	p.last = percent
	if p.callback != nil {
		p.callback(percent)
	}
}
