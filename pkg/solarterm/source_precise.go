package solarterm

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
)

// Mean tropical year in days
const tropicalYear = 365.2422

// deltaTFunc returns ΔT = TT − UT in seconds for a decimal year
type deltaTFunc func(year float64) float64

// astronomicalSource solves for each term crossing with the truncated VSOP87
// solar longitude, then converts dynamical time to UT.
type astronomicalSource struct {
	tier    Tier
	minYear int
	maxYear int
	deltaT  deltaTFunc
}

// NewPreciseSource returns the primary source: VSOP87 apparent longitude with
// the Espenak-Meeus ΔT polynomials, 1900 through 2100.
func NewPreciseSource() Source {
	return &astronomicalSource{
		tier:    TierPrecise,
		minYear: 1900,
		maxYear: 2100,
		deltaT:  polynomialDeltaT,
	}
}

func (a *astronomicalSource) Tier() Tier { return a.tier }

func (a *astronomicalSource) Terms(year int) ([NumTerms]time.Time, bool) {
	var out [NumTerms]time.Time
	if year < a.minYear || year > a.maxYear {
		return out, false
	}
	for i := range out {
		jde := solveCrossing(year, Term(i))
		// ΔT is evaluated at the approximate decimal year of the term
		dt := a.deltaT(float64(year) + (float64(i)+0.5)/NumTerms)
		out[i] = jdToUTC(jde - dt/86400)
	}
	return out, true
}

// solveCrossing returns the JDE at which the apparent solar longitude equals
// the term's longitude, by Newton iteration on the Sun's mean motion.
func solveCrossing(year int, t Term) float64 {
	target := unit.AngleFromDeg(t.Longitude())
	// Minor Cold falls around January 6; terms are ~15.2 days apart
	jde := julian.CalendarGregorianToJD(year, 1, 6) + float64(t)*tropicalYear/NumTerms

	for i := 0; i < 20; i++ {
		lon := apparentLongitudeVSOP87(jde)
		diff := math.Mod((target-lon).Deg()+540, 360) - 180
		jde += diff * tropicalYear / 360
		if math.Abs(diff) < 1e-7 {
			break
		}
	}
	return jde
}

// jdToUTC converts a Julian day in UT to a time rounded to the second
func jdToUTC(jd float64) time.Time {
	return julian.JDToTime(jd).UTC().Round(time.Second)
}

// polynomialDeltaT implements the Espenak-Meeus polynomial expressions for
// ΔT, valid 1800 through 2150.
func polynomialDeltaT(y float64) float64 {
	switch {
	case y < 1860:
		t := y - 1800
		return 13.72 - 0.332447*t + 0.0068612*t*t + 0.0041116*math.Pow(t, 3) -
			0.00037436*math.Pow(t, 4) + 0.0000121272*math.Pow(t, 5) -
			0.0000001699*math.Pow(t, 6) + 0.000000000875*math.Pow(t, 7)
	case y < 1900:
		t := y - 1860
		return 7.62 + 0.5737*t - 0.251754*t*t + 0.01680668*math.Pow(t, 3) -
			0.0004473624*math.Pow(t, 4) + math.Pow(t, 5)/233174
	case y < 1920:
		t := y - 1900
		return -2.79 + 1.494119*t - 0.0598939*t*t + 0.0061966*math.Pow(t, 3) - 0.000197*math.Pow(t, 4)
	case y < 1941:
		t := y - 1920
		return 21.20 + 0.84493*t - 0.076100*t*t + 0.0020936*math.Pow(t, 3)
	case y < 1961:
		t := y - 1950
		return 29.07 + 0.407*t - t*t/233 + math.Pow(t, 3)/2547
	case y < 1986:
		t := y - 1975
		return 45.45 + 1.067*t - t*t/260 - math.Pow(t, 3)/718
	case y < 2005:
		t := y - 2000
		return 63.86 + 0.3345*t - 0.060374*t*t + 0.0017275*math.Pow(t, 3) +
			0.000651814*math.Pow(t, 4) + 0.00002373599*math.Pow(t, 5)
	case y < 2050:
		t := y - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	}
}
