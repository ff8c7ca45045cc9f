package dataset

import (
	"strings"
	"time"
)

// Site is a fixed geographic location used for solar calculations.
type Site struct {
	Name         string
	Latitude     float64
	Longitude    float64
	Timezone     string
	UTCOffsetSec int
}

// Location resolves the site timezone, falling back to the fixed UTC
// offset when the zone database is unavailable.
func (s Site) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.FixedZone(s.Name, s.UTCOffsetSec)
}

// DGFC is the Danau Girang Field Centre receive site on the
// Kinabatangan river, Sabah.
var DGFC = Site{
	Name:         "DGFC",
	Latitude:     5.4139,
	Longitude:    118.0385,
	Timezone:     "Asia/Kuching",
	UTCOffsetSec: 8 * 3600,
}

// StationProfile carries the per-station constants used to derive foF2
// estimates from relative ionosonde signal strength. Baseline and scale
// interpolate linearly across the analysis period; estimates clamp to
// the physically plausible bounds for the station's latitude.
type StationProfile struct {
	Site
	Sheet        string
	BaselineLow  float64
	BaselineHigh float64
	ScaleLow     float64
	ScaleHigh    float64
	ClampMin     float64
	ClampMax     float64
	DistanceKM   float64
}

var (
	// Guam is the low-latitude reference ionosonde, roughly 2100 km
	// from the field site.
	Guam = StationProfile{
		Site: Site{
			Name:         "Guam",
			Latitude:     13.4443,
			Longitude:    144.7937,
			Timezone:     "Pacific/Guam",
			UTCOffsetSec: 10 * 3600,
		},
		Sheet:        "Guam",
		BaselineLow:  10.5,
		BaselineHigh: 11.2,
		ScaleLow:     10,
		ScaleHigh:    10,
		ClampMin:     4,
		ClampMax:     18,
		DistanceKM:   2100,
	}

	// Darwin is the mid-latitude comparison ionosonde.
	Darwin = StationProfile{
		Site: Site{
			Name:         "Darwin",
			Latitude:     -12.45,
			Longitude:    130.95,
			Timezone:     "Australia/Darwin",
			UTCOffsetSec: int(9.5 * 3600),
		},
		Sheet:        "Darwin",
		BaselineLow:  8.5,
		BaselineHigh: 9.2,
		ScaleLow:     10,
		ScaleHigh:    12,
		ClampMin:     3,
		ClampMax:     15,
		DistanceKM:   2700,
	}
)

// ProfileFor looks up a built-in station profile by name.
func ProfileFor(name string) (StationProfile, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "guam":
		return Guam, true
	case "darwin":
		return Darwin, true
	}
	return StationProfile{}, false
}

// SiteFor looks up a known site by name, covering both the receive
// site and the ionosonde stations.
func SiteFor(name string) (Site, bool) {
	if strings.EqualFold(strings.TrimSpace(name), DGFC.Name) {
		return DGFC, true
	}
	if profile, ok := ProfileFor(name); ok {
		return profile.Site, true
	}
	return Site{}, false
}

// EstimateFoF2 maps a relative signal strength in dB to an foF2 estimate
// in MHz. progress is the 0..1 position of the sample within the
// analysis period.
func (p StationProfile) EstimateFoF2(signalDB, progress float64) float64 {
	base := p.BaselineLow + (p.BaselineHigh-p.BaselineLow)*progress
	scale := p.ScaleLow + (p.ScaleHigh-p.ScaleLow)*progress
	if scale == 0 {
		scale = 1
	}
	f := base + signalDB/scale
	if f < p.ClampMin {
		return p.ClampMin
	}
	if f > p.ClampMax {
		return p.ClampMax
	}
	return f
}
