// Package moon computes moon illumination and phase names for trip
// planning. The astronomy follows the low-precision formulas popularised by
// the SunCalc library, which are accurate to well under a day for phase
// boundaries.
package moon

import (
	"math"
	"time"
)

const (
	rad       = math.Pi / 180
	dayMs     = 1000 * 60 * 60 * 24
	j1970     = 2440588
	j2000     = 2451545
	obliquity = rad * 23.4397

	// sunDistance is the mean Earth-Sun distance in km.
	sunDistance = 149598000
)

// Info describes the moon at an instant.
type Info struct {
	// Fraction is the illuminated fraction of the disc, 0 to 1.
	Fraction float64 `json:"fraction"`
	// Phase runs 0 (new) through 0.5 (full) back to 1 (new).
	Phase float64 `json:"phase"`
	// Angle is the midpoint angle of the illuminated limb in radians.
	// Negative while waxing, positive while waning.
	Angle float64 `json:"angle"`
}

// Percent returns the illuminated fraction rounded to a whole percent.
func (i Info) Percent() int {
	return int(math.Round(i.Fraction * 100))
}

// Illumination returns the moon state at t.
func Illumination(t time.Time) Info {
	d := toDays(t)
	sun := sunCoords(d)
	m := moonCoords(d)

	phi := math.Acos(math.Sin(sun.dec)*math.Sin(m.dec) +
		math.Cos(sun.dec)*math.Cos(m.dec)*math.Cos(sun.ra-m.ra))
	inc := math.Atan2(sunDistance*math.Sin(phi), m.dist-sunDistance*math.Cos(phi))
	angle := math.Atan2(math.Cos(sun.dec)*math.Sin(sun.ra-m.ra),
		math.Sin(sun.dec)*math.Cos(m.dec)-math.Cos(sun.dec)*math.Sin(m.dec)*math.Cos(sun.ra-m.ra))

	sign := 1.0
	if angle < 0 {
		sign = -1
	}

	return Info{
		Fraction: (1 + math.Cos(inc)) / 2,
		Phase:    0.5 + 0.5*inc*sign/math.Pi,
		Angle:    angle,
	}
}

// PhaseName buckets a phase value into one of eight names.
func PhaseName(phase float64) string {
	switch {
	case phase <= 0.05 || phase > 0.95:
		return "New Moon"
	case phase <= 0.20:
		return "Waxing Crescent"
	case phase <= 0.30:
		return "First Quarter"
	case phase <= 0.45:
		return "Waxing Gibbous"
	case phase <= 0.55:
		return "Full Moon"
	case phase <= 0.70:
		return "Waning Gibbous"
	case phase <= 0.80:
		return "Last Quarter"
	default:
		return "Waning Crescent"
	}
}

var phaseEmoji = map[string]string{
	"New Moon":        "🌑",
	"Waxing Crescent": "🌒",
	"First Quarter":   "🌓",
	"Waxing Gibbous":  "🌔",
	"Full Moon":       "🌕",
	"Waning Gibbous":  "🌖",
	"Last Quarter":    "🌗",
	"Waning Crescent": "🌘",
}

// PhaseEmoji returns the moon glyph for a phase value.
func PhaseEmoji(phase float64) string {
	return phaseEmoji[PhaseName(phase)]
}

// Day is the moon summary for one calendar day.
type Day struct {
	Date  time.Time `json:"date"`
	Info  Info      `json:"info"`
	Name  string    `json:"name"`
	Emoji string    `json:"emoji"`
}

// ForDay evaluates the moon at local noon of the day containing t.
func ForDay(t time.Time) Day {
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
	info := Illumination(noon)
	return Day{
		Date:  noon,
		Info:  info,
		Name:  PhaseName(info.Phase),
		Emoji: PhaseEmoji(info.Phase),
	}
}

// Month returns one Day per calendar day of month in loc. A nil loc means
// UTC.
func Month(year int, month time.Month, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 12, 0, 0, 0, loc)
	n := first.AddDate(0, 1, -1).Day()

	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, ForDay(first.AddDate(0, 0, i)))
	}
	return days
}

type coords struct {
	ra, dec, dist float64
}

func toDays(t time.Time) float64 {
	return float64(t.UnixMilli())/dayMs - 0.5 + j1970 - j2000
}

func rightAscension(l, b float64) float64 {
	return math.Atan2(math.Sin(l)*math.Cos(obliquity)-math.Tan(b)*math.Sin(obliquity), math.Cos(l))
}

func declination(l, b float64) float64 {
	return math.Asin(math.Sin(b)*math.Cos(obliquity) + math.Cos(b)*math.Sin(obliquity)*math.Sin(l))
}

func sunCoords(d float64) coords {
	m := rad * (357.5291 + 0.98560028*d)
	c := rad * (1.9148*math.Sin(m) + 0.02*math.Sin(2*m) + 0.0003*math.Sin(3*m))
	l := m + c + rad*102.9372 + math.Pi

	return coords{
		ra:  rightAscension(l, 0),
		dec: declination(l, 0),
	}
}

func moonCoords(d float64) coords {
	lng := rad * (218.316 + 13.176396*d)
	m := rad * (134.963 + 13.064993*d)
	f := rad * (93.272 + 13.229350*d)

	l := lng + rad*6.289*math.Sin(m)
	b := rad * 5.128 * math.Sin(f)

	return coords{
		ra:   rightAscension(l, b),
		dec:  declination(l, b),
		dist: 385001 - 20905*math.Cos(m),
	}
}
