package aggregate

import "github.com/noah-isme/sma-portal-sync/internal/models"

// HonorBand maps an average floor to a tier.
type HonorBand struct {
	Tier models.HonorTier
	Min  float64
}

// HonorBands is the single table honor classification reads from, highest
// floor first.
var HonorBands = []HonorBand{
	{Tier: models.HonorWithHighest, Min: 98},
	{Tier: models.HonorWithHigh, Min: 95},
	{Tier: models.HonorWith, Min: 90},
}

// HonorFor returns the tier for avg, or HonorNone below the lowest floor.
func HonorFor(avg float64) models.HonorTier {
	for _, band := range HonorBands {
		if avg >= band.Min {
			return band.Tier
		}
	}
	return models.HonorNone
}
