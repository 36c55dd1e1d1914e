// Package service contains the application's business logic, sitting between
// the HTTP handlers and the repositories.
package service

import (
	"math"
	"time"

	"nutribunda/internal/models"
)

// akgEntry is one row of the AKG tables (Angka Kecukupan Gizi, the Indonesian
// recommended dietary allowance, Permenkes 28/2019). Reference weight backs
// the body-size calibration; child rows have none and are used as-is.
type akgEntry struct {
	Energy      float64
	ProteinG    float64
	FatG        float64
	CarbsG      float64
	RefWeightKg float64
	RefHeightCm float64
}

// Adult female AKG by age bucket.
var (
	akgWomen19to29 = akgEntry{Energy: 2250, ProteinG: 60, FatG: 65, CarbsG: 360, RefWeightKg: 55, RefHeightCm: 159}
	akgWomen30to49 = akgEntry{Energy: 2150, ProteinG: 60, FatG: 60, CarbsG: 340, RefWeightKg: 56, RefHeightCm: 158}
	akgWomen50to64 = akgEntry{Energy: 1800, ProteinG: 60, FatG: 50, CarbsG: 280, RefWeightKg: 56, RefHeightCm: 158}
	akgWomen65to80 = akgEntry{Energy: 1550, ProteinG: 58, FatG: 45, CarbsG: 230, RefWeightKg: 53, RefHeightCm: 157}
	akgWomenOver80 = akgEntry{Energy: 1400, ProteinG: 58, FatG: 40, CarbsG: 200, RefWeightKg: 53, RefHeightCm: 157}
)

// Child AKG by age bucket, birth through three years.
var (
	akgChild0to5Months  = akgEntry{Energy: 550, ProteinG: 9, FatG: 31, CarbsG: 59, RefWeightKg: 6, RefHeightCm: 60}
	akgChild6to11Months = akgEntry{Energy: 800, ProteinG: 15, FatG: 35, CarbsG: 105, RefWeightKg: 9, RefHeightCm: 72}
	akgChild1to3Years   = akgEntry{Energy: 1350, ProteinG: 20, FatG: 45, CarbsG: 215, RefWeightKg: 13, RefHeightCm: 92}
)

// nutrientDelta is an additive adjustment on top of a base AKG row.
type nutrientDelta struct {
	Energy   float64
	ProteinG float64
	FatG     float64
	CarbsG   float64
}

// Pregnancy increments per trimester.
var (
	trimester1Increment = nutrientDelta{Energy: 180, ProteinG: 1, FatG: 2.3, CarbsG: 25}
	trimester2Increment = nutrientDelta{Energy: 300, ProteinG: 10, FatG: 2.3, CarbsG: 40}
	trimester3Increment = nutrientDelta{Energy: 300, ProteinG: 30, FatG: 2.3, CarbsG: 40}
)

// Lactation increments by phase (months since birth).
var (
	lactation0to6Increment  = nutrientDelta{Energy: 330, ProteinG: 20, FatG: 2.2, CarbsG: 45}
	lactation6to12Increment = nutrientDelta{Energy: 400, ProteinG: 15, FatG: 2.2, CarbsG: 55}
)

// Lactation phases accepted in preferences.
const (
	LactationPhase0to6  = "0-6"
	LactationPhase6to12 = "6-12"
)

const (
	firstTrimesterEndWeek  = 13
	secondTrimesterEndWeek = 28

	// Mid-upper arm circumference below this marks chronic energy
	// deficiency (KEK) in pregnant women and earns a supplement.
	lilaRiskThresholdCm = 23.5
	lilaEnergyBoost     = 200
	lilaProteinBoost    = 10

	// Calibration ratio bounds. Outside this band the AKG reference is no
	// longer a sane anchor for a linear scale.
	minCalibrationRatio = 0.7
	maxCalibrationRatio = 1.5
)

// NutritionTargets is a computed daily goal. BMI is nil when height is
// unknown.
type NutritionTargets struct {
	Calories int      `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
	BMI      *float64 `json:"bmi"`
}

// baseAKG picks the adult bucket for an age. A missing age falls back to the
// 19-29 reference cohort, the app's main audience.
func baseAKG(ageYear *int) akgEntry {
	age := 0
	if ageYear != nil {
		age = *ageYear
	}
	switch {
	case age < 30:
		return akgWomen19to29
	case age < 50:
		return akgWomen30to49
	case age < 65:
		return akgWomen50to64
	case age < 80:
		return akgWomen65to80
	default:
		return akgWomenOver80
	}
}

// childBaseAKG picks the child bucket. Anything from one year up uses the
// toddler row; below that the month split decides, defaulting to the 6-11
// month row when the month is not recorded.
func childBaseAKG(ageYear, ageMonth *int) akgEntry {
	if ageYear != nil && *ageYear >= 1 {
		return akgChild1to3Years
	}
	months := 6
	if ageMonth != nil {
		months = *ageMonth
	}
	if months <= 5 {
		return akgChild0to5Months
	}
	return akgChild6to11Months
}

// calibrate scales an AKG row by the ratio of actual to reference body
// weight. Overweight adults (BMI over 25) are scaled from the Brocca ideal
// weight plus a quarter of the excess instead, so the target tracks lean
// mass rather than total mass; children never get that adjustment. The
// ratio is clamped to keep extreme inputs from producing clinical nonsense.
func calibrate(base akgEntry, weightKg, heightCm float64, child bool) akgEntry {
	if weightKg == 0 || base.RefWeightKg == 0 {
		return base
	}
	calcWeight := weightKg
	if !child && heightCm > 100 {
		bmi := weightKg / math.Pow(heightCm/100, 2)
		if bmi > 25 {
			ideal := (heightCm - 100) * 0.9
			calcWeight = ideal + 0.25*(weightKg-ideal)
		}
	}
	ratio := calcWeight / base.RefWeightKg
	if ratio < minCalibrationRatio {
		ratio = minCalibrationRatio
	}
	if ratio > maxCalibrationRatio {
		ratio = maxCalibrationRatio
	}
	base.Energy *= ratio
	base.ProteinG *= ratio
	base.FatG *= ratio
	base.CarbsG *= ratio
	return base
}

func (e *akgEntry) add(d nutrientDelta) {
	e.Energy += d.Energy
	e.ProteinG += d.ProteinG
	e.FatG += d.FatG
	e.CarbsG += d.CarbsG
}

// pregnancyIncrement maps gestational age in weeks to the trimester
// increment.
func pregnancyIncrement(weeks int) nutrientDelta {
	switch {
	case weeks < firstTrimesterEndWeek:
		return trimester1Increment
	case weeks < secondTrimesterEndWeek:
		return trimester2Increment
	default:
		return trimester3Increment
	}
}

// lactationIncrement maps a lactation phase to its increment. An unset or
// unrecognized phase is treated as the first six months.
func lactationIncrement(phase *string) nutrientDelta {
	if phase != nil && *phase == LactationPhase6to12 {
		return lactation6to12Increment
	}
	return lactation0to6Increment
}

// CalculateNutritionTargets derives the daily nutrition goal from a
// preference profile. Toddlers use the child tables unscaled; adult roles
// use the age-bucketed female tables calibrated to body size, plus the
// pregnancy or lactation increment where the role calls for one.
func CalculateNutritionTargets(pref *models.UserPreference, now time.Time) NutritionTargets {
	var weight, height float64
	if pref.WeightKg != nil {
		weight = *pref.WeightKg
	}
	if pref.HeightCm != nil {
		height = float64(*pref.HeightCm)
	}

	var base akgEntry
	switch pref.Role {
	case models.RoleToddler:
		base = calibrate(childBaseAKG(pref.AgeYear, pref.AgeMonth), weight, height, true)
	default:
		base = calibrate(baseAKG(pref.AgeYear), weight, height, false)
	}

	switch pref.Role {
	case models.RolePregnant:
		weeks := 0
		if w := pref.GestationalAgeWeeks(now); w != nil {
			weeks = *w
		}
		base.add(pregnancyIncrement(weeks))
		if pref.LilaCm != nil && *pref.LilaCm > 0 && *pref.LilaCm < lilaRiskThresholdCm {
			base.Energy += lilaEnergyBoost
			base.ProteinG += lilaProteinBoost
		}
	case models.RoleLactating:
		base.add(lactationIncrement(pref.LactationPhase))
	}

	targets := NutritionTargets{
		Calories: int(base.Energy),
		ProteinG: round1(base.ProteinG),
		CarbsG:   round1(base.CarbsG),
		FatG:     round1(base.FatG),
	}
	if height > 0 && weight > 0 {
		bmi := round1(weight / math.Pow(height/100, 2))
		targets.BMI = &bmi
	}
	return targets
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
