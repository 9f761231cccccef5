package models

import (
	"sort"
	"time"

	"natours/db"
)

const (
	UnitMiles      = "mi"
	UnitKilometers = "km"

	earthRadiusMiles      = 3963.2
	earthRadiusKilometers = 6378.1
)

type TourStats struct {
	Difficulty string  `json:"_id"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// GetTourStats groups well rated tours by difficulty
func GetTourStats() (stats []TourStats, err error) {
	err = db.Instance.Model(&Tour{}).
		Select("UPPER(difficulty) AS difficulty, COUNT(*) AS num_tours, SUM(ratings_quantity) AS num_ratings, "+
			"AVG(ratings_average) AS avg_rating, AVG(price) AS avg_price, MIN(price) AS min_price, MAX(price) AS max_price").
		Where("ratings_average >= ?", DefaultRatingsAverage).
		Group("UPPER(difficulty)").
		Order("avg_price").
		Find(&stats).Error
	return
}

type MonthlyPlan struct {
	MonthNum              int      `json:"monthNum"`
	NumToursStartsInMonth int      `json:"numToursStartsInMonth"`
	Tours                 []string `json:"tours"`
}

// GetMonthlyPlan counts tour starts per month of the given year, busiest
// months first.
func GetMonthlyPlan(year int) ([]MonthlyPlan, error) {
	var tours []Tour
	if err := db.Instance.Select("id", "name", "start_dates").Find(&tours).Error; err != nil {
		return nil, err
	}
	byMonth := map[time.Month]*MonthlyPlan{}
	for _, tour := range tours {
		for _, start := range tour.StartDates {
			start = start.UTC()
			if start.Year() != year {
				continue
			}
			plan, ok := byMonth[start.Month()]
			if !ok {
				plan = &MonthlyPlan{MonthNum: int(start.Month()), Tours: []string{}}
				byMonth[start.Month()] = plan
			}
			plan.NumToursStartsInMonth++
			plan.Tours = append(plan.Tours, tour.Name)
		}
	}
	result := make([]MonthlyPlan, 0, len(byMonth))
	for _, plan := range byMonth {
		result = append(result, *plan)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].NumToursStartsInMonth != result[j].NumToursStartsInMonth {
			return result[i].NumToursStartsInMonth > result[j].NumToursStartsInMonth
		}
		return result[i].MonthNum < result[j].MonthNum
	})
	return result, nil
}

// ToursWithin returns the tours starting within distance (in unit) of the
// given point.
func ToursWithin(lat, lng, distance float64, unit string) ([]Tour, error) {
	radius := distance / earthRadiusKilometers
	if unit == UnitMiles {
		radius = distance / earthRadiusMiles
	}
	var tours []Tour
	if err := db.Instance.Find(&tours).Error; err != nil {
		return nil, err
	}
	result := []Tour{}
	for _, tour := range tours {
		if !tour.StartLocation.Valid() {
			continue
		}
		if haversine(tour.StartLocation.Lat(), tour.StartLocation.Lng(), lat, lng) <= radius {
			result = append(result, tour)
		}
	}
	return result, nil
}

type TourDistance struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// GetDistances returns the distance (in unit) from the given point to the
// start of every tour, nearest first.
func GetDistances(lat, lng float64, unit string) ([]TourDistance, error) {
	multiplier := 0.001
	if unit == UnitMiles {
		multiplier = 0.000621371
	}
	var tours []Tour
	if err := db.Instance.Select("id", "name", "start_coordinates").Find(&tours).Error; err != nil {
		return nil, err
	}
	result := []TourDistance{}
	for _, tour := range tours {
		if !tour.StartLocation.Valid() {
			continue
		}
		result = append(result, TourDistance{
			ID:       tour.ID,
			Name:     tour.Name,
			Distance: tour.StartLocation.DistanceTo(lat, lng) * multiplier,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Distance < result[j].Distance })
	return result, nil
}
