package core

import (
	"fmt"
	"log/slog"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jo-hoe/gardengallery/internal/imageservice"
)

// SeedDemoImages adds imagesPerOwner URL images to every owner that has no
// images yet. The first seeded image of an owner is its main image.
func (service *CoreService) SeedDemoImages(owners []int64, imagesPerOwner int) error {
	for _, ownerID := range owners {
		existing, err := service.ListImages(ownerID, false)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			slog.Debug("seed: owner already has images, skipping", "owner_id", ownerID, "count", len(existing))
			continue
		}
		for i := 0; i < imagesPerOwner; i++ {
			description := fmt.Sprintf("%s %s, %s", gofakeit.Adjective(), gofakeit.Noun(), gofakeit.Sentence(6))
			_, err := service.AddImage(imageservice.NewImage{
				OwnerID:     ownerID,
				IsMain:      i == 0,
				ImageURL:    gofakeit.ImageURL(640, 480),
				Description: &description,
			})
			if err != nil {
				return fmt.Errorf("failed to seed image %d of owner %d: %w", i, ownerID, err)
			}
		}
		slog.Info("seed: demo images added", "owner_id", ownerID, "count", imagesPerOwner)
	}
	return nil
}
