package aggregate

import (
	"fmt"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// BMIBand maps a BMI ceiling (exclusive) to a category.
type BMIBand struct {
	Category models.BMICategory
	Below    float64
}

// BMIBands is ordered by ceiling; values at or above the last ceiling are Obese.
var BMIBands = []BMIBand{
	{Category: models.BMISeverelyWasted, Below: 16},
	{Category: models.BMIWasted, Below: 18.5},
	{Category: models.BMINormal, Below: 25},
	{Category: models.BMIOverweight, Below: 30},
}

// BMICategoryFor returns the band for bmi.
func BMICategoryFor(bmi float64) models.BMICategory {
	for _, band := range BMIBands {
		if bmi < band.Below {
			return band.Category
		}
	}
	return models.BMIObese
}

// ComputeBMI derives kg/m² rounded to one decimal. Missing or zero
// measurements yield Unknown; negative ones are malformed.
func ComputeBMI(r models.BMIRecord) (models.BMIResult, error) {
	res := models.BMIResult{StudentID: r.StudentID, StudentName: r.StudentName, Category: models.BMIUnknown}
	if (r.HeightCM.Valid && r.HeightCM.Float64 < 0) || (r.WeightKG.Valid && r.WeightKG.Float64 < 0) {
		return models.BMIResult{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("negative measurement for student %d", r.StudentID))
	}
	if !r.HeightCM.Valid || !r.WeightKG.Valid || r.HeightCM.Float64 == 0 || r.WeightKG.Float64 == 0 {
		return res, nil
	}
	m := r.HeightCM.Float64 / 100
	bmi := Round(r.WeightKG.Float64/(m*m), 1)
	res.BMI = null.Float64From(bmi)
	res.Category = BMICategoryFor(bmi)
	return res, nil
}

// BMIDistribution is the section roll-up.
type BMIDistribution struct {
	Results  []models.BMIResult         `json:"results"`
	Counts   map[models.BMICategory]int `json:"counts"`
	Measured int                        `json:"measured"`
}

// DistributeBMI computes every student's BMI and counts categories.
func DistributeBMI(records []models.BMIRecord) (BMIDistribution, error) {
	dist := BMIDistribution{Results: make([]models.BMIResult, 0, len(records)), Counts: map[models.BMICategory]int{}}
	for _, r := range records {
		res, err := ComputeBMI(r)
		if err != nil {
			return BMIDistribution{}, err
		}
		dist.Results = append(dist.Results, res)
		dist.Counts[res.Category]++
		if res.BMI.Valid {
			dist.Measured++
		}
	}
	sort.SliceStable(dist.Results, func(i, j int) bool { return dist.Results[i].StudentID < dist.Results[j].StudentID })
	return dist, nil
}
