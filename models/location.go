package models

import (
	"math"
	"strings"

	"natours/utils"
)

const (
	PointType = "Point"

	MinLocationDisplaySize = 5

	earthRadiusMeters = 6378137.0
)

// Location is a GeoJSON point with some tour specific details
type Location struct {
	Type        string    `gorm:"type:varchar(10)" json:"type"`
	Coordinates []float64 `gorm:"serializer:json" json:"coordinates"` // [lng, lat]
	Address     string    `gorm:"type:varchar(250)" json:"address,omitempty"`
	Description string    `gorm:"type:varchar(250)" json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
	Timezone    string    `gorm:"type:varchar(64)" json:"timezone,omitempty"`
}

func (l *Location) Valid() bool {
	return len(l.Coordinates) == 2
}

func (l *Location) Lng() float64 {
	if !l.Valid() {
		return 0
	}
	return l.Coordinates[0]
}

func (l *Location) Lat() float64 {
	if !l.Valid() {
		return 0
	}
	return l.Coordinates[1]
}

// DistanceTo returns the great-circle distance in meters
func (l *Location) DistanceTo(lat, lng float64) float64 {
	return haversine(l.Lat(), l.Lng(), lat, lng) * earthRadiusMeters
}

// haversine returns the central angle between two points in radians
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// GeoPlace is used as cache to avoid hammering the Geocoding service
type GeoPlace struct {
	GpsLat      float64 `gorm:"primaryKey;autoIncrement:false"` // Rounded to 0.0001
	GpsLong     float64 `gorm:"primaryKey;autoIncrement:false"` // Rounded to 0.0001
	Display     string  `gorm:"type:varchar(250)"`
	Area        string  `gorm:"type:varchar(100)"`
	City        string  `gorm:"type:varchar(100)"`
	Country     string  `gorm:"type:varchar(100)"`
	CountryCode string  `gorm:"type:varchar(10)"`
}

func NewGeoPlace(lat, lng float64) GeoPlace {
	return GeoPlace{
		GpsLat:  utils.Round(lat, 4),
		GpsLong: utils.Round(lng, 4),
	}
}

func (n *GeoPlace) GetShortDisplay() string {
	r := strings.SplitN(n.Display, ",", 3)
	if len(r) == 1 || len(r[0]) >= MinLocationDisplaySize {
		return r[0]
	}
	return r[0] + "," + r[1]
}

// Address is the human readable form stored on tour locations
func (n *GeoPlace) Address() string {
	parts := []string{}
	for _, p := range []string{n.Area, n.City, n.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return n.GetShortDisplay()
	}
	return strings.Join(parts, ", ")
}
