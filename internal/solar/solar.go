// Package solar computes sunrise and sunset times with the NOAA solar
// position method, used for day/night chart shading and workbook
// enrichment.
package solar

import (
	"errors"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ErrNoRiseSet indicates the sun neither rises nor sets on the given
// date at the given latitude.
var ErrNoRiseSet = errors.New("sun does not rise or set on this date")

// Times holds the computed sun events for one date at one site,
// expressed in the requested location.
type Times struct {
	Date      time.Time
	Sunrise   time.Time
	Sunset    time.Time
	DayLength time.Duration
}

// Daylight reports whether the instant falls between sunrise and sunset.
func (t Times) Daylight(at time.Time) bool {
	return !at.Before(t.Sunrise) && at.Before(t.Sunset)
}

// zenith at rise/set: 90 degrees plus refraction and solar semidiameter.
const riseSetZenith = 90.833

// Calculate returns sunrise and sunset for the local calendar date of
// the site at the given coordinates. East longitude is positive.
func Calculate(date time.Time, lat, lon float64, loc *time.Location) (Times, error) {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := date.Date()

	// Julian centuries from J2000 at approximate local noon.
	jd := julian.TimeToJD(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
	T := (jd - 2451545.0) / 36525.0

	meanLong := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	meanAnom := 357.52911 + T*(35999.05029-0.0001537*T)
	eccent := 0.016708634 - T*(0.000042037+0.0000001267*T)

	center := math.Sin(degToRad(meanAnom))*(1.914602-T*(0.004817+0.000014*T)) +
		math.Sin(degToRad(2*meanAnom))*(0.019993-0.000101*T) +
		math.Sin(degToRad(3*meanAnom))*0.000289
	trueLong := meanLong + center

	omega := 125.04 - 1934.136*T
	apparentLong := trueLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))

	obliquity := 23.0 + (26.0+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60.0)/60.0
	obliquity += 0.00256 * math.Cos(degToRad(omega))

	declination := math.Asin(math.Sin(degToRad(obliquity)) * math.Sin(degToRad(apparentLong)))

	varY := math.Tan(degToRad(obliquity/2)) * math.Tan(degToRad(obliquity/2))
	eqTime := 4 * radToDeg(varY*math.Sin(2*degToRad(meanLong))-
		2*eccent*math.Sin(degToRad(meanAnom))+
		4*eccent*varY*math.Sin(degToRad(meanAnom))*math.Cos(2*degToRad(meanLong))-
		0.5*varY*varY*math.Sin(4*degToRad(meanLong))-
		1.25*eccent*eccent*math.Sin(2*degToRad(meanAnom)))

	haCos := math.Cos(degToRad(riseSetZenith))/(math.Cos(degToRad(lat))*math.Cos(declination)) -
		math.Tan(degToRad(lat))*math.Tan(declination)
	if haCos < -1 || haCos > 1 {
		return Times{}, ErrNoRiseSet
	}
	hourAngle := radToDeg(math.Acos(haCos))

	// Event minutes relative to 00:00 UTC of the calendar date.
	noonMin := 720 - 4*lon - eqTime
	riseMin := noonMin - 4*hourAngle
	setMin := noonMin + 4*hourAngle

	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	sunrise := midnight.Add(time.Duration(riseMin * float64(time.Minute))).In(loc)
	sunset := midnight.Add(time.Duration(setMin * float64(time.Minute))).In(loc)

	return Times{
		Date:      time.Date(year, month, day, 0, 0, 0, 0, loc),
		Sunrise:   sunrise,
		Sunset:    sunset,
		DayLength: sunset.Sub(sunrise),
	}, nil
}

// ForDays computes sun times for each of the given dates, skipping dates
// without a rise or set.
func ForDays(days []time.Time, lat, lon float64, loc *time.Location) []Times {
	out := make([]Times, 0, len(days))
	for _, day := range days {
		t, err := Calculate(day, lat, lon, loc)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// fixAngle normalizes an angle to [0, 360).
func fixAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
