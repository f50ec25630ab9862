package mainimage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/gardengallery/internal/imageservice"
)

// ImageService is the subset of the image service the policy needs.
type ImageService interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]imageservice.Image, error)
	GetMain(ctx context.Context, ownerID int64) (*imageservice.Image, error)
	SetAsMain(ctx context.Context, imageID int64) error
}

// Snapshot is the canonical gallery as re-fetched after a main-image change.
type Snapshot struct {
	Images []imageservice.Image
	Main   *imageservice.Image
}

// Policy keeps at most one main image per owner. The server clears the
// previous main image; the client never toggles flags locally and only
// trusts a full re-fetch.
type Policy struct {
	service ImageService
}

func NewPolicy(service ImageService) *Policy {
	return &Policy{service: service}
}

// SetAsMain flags imageID as main and re-fetches the gallery and main image.
// If the flag call succeeds but the re-fetch fails, the error says so and no
// snapshot is returned.
func (p *Policy) SetAsMain(ctx context.Context, ownerID, imageID int64) (Snapshot, error) {
	if err := p.service.SetAsMain(ctx, imageID); err != nil {
		slog.Warn("MainImagePolicy: set-as-main failed", "owner_id", ownerID, "image_id", imageID, "error", err)
		return Snapshot{}, fmt.Errorf("failed to set image %d as main: %w", imageID, err)
	}
	snapshot, err := p.Refresh(ctx, ownerID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("image %d was set as main but the gallery could not be reloaded: %w", imageID, err)
	}
	if snapshot.Main != nil && snapshot.Main.ID != imageID {
		slog.Warn("MainImagePolicy: server reports a different main image",
			"owner_id", ownerID, "requested", imageID, "reported", snapshot.Main.ID)
	}
	return snapshot, nil
}

// Refresh fetches the gallery and the main image for the owner.
func (p *Policy) Refresh(ctx context.Context, ownerID int64) (Snapshot, error) {
	images, err := p.service.ListByOwner(ctx, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	main, err := p.service.GetMain(ctx, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	if count := CountMain(images); count > 1 {
		slog.Error("MainImagePolicy: server returned more than one main image",
			"owner_id", ownerID, "count", count)
	}
	return Snapshot{Images: images, Main: main}, nil
}

// ResolveBatchMain decides the batch-level isMain flag. An explicit request
// wins; otherwise the batch is main only if the owner has no images yet.
// Within a multi-file batch the server decides which file ends up main.
func (p *Policy) ResolveBatchMain(ctx context.Context, ownerID int64, requested *bool) (bool, error) {
	if requested != nil {
		return *requested, nil
	}
	images, err := p.service.ListByOwner(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to count existing images of owner %d: %w", ownerID, err)
	}
	if len(images) == 0 {
		slog.Debug("MainImagePolicy: owner has no images, batch becomes main", "owner_id", ownerID)
		return true, nil
	}
	return false, nil
}

func CountMain(images []imageservice.Image) int {
	count := 0
	for _, image := range images {
		if image.IsMain {
			count++
		}
	}
	return count
}
