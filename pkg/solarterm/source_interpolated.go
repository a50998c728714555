package solarterm

import (
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/solar"
	"gonum.org/v1/gonum/interp"
)

// interpolatedSource samples the low-precision solar longitude of Meeus
// ch. 25 once per day and inverts the samples with a piecewise-linear fit.
// It covers the whole supported range, at the cost of several minutes of
// accuracy.
type interpolatedSource struct{}

// NewInterpolatedSource returns the last-resort source
func NewInterpolatedSource() Source {
	return interpolatedSource{}
}

func (interpolatedSource) Tier() Tier { return TierInterpolated }

func (interpolatedSource) Terms(year int) ([NumTerms]time.Time, bool) {
	var out [NumTerms]time.Time
	if year < firstComputedYear || year > MaxYear {
		return out, false
	}

	// Sample from two days before January 1 to two days after the next
	// January 1, so Minor Cold (285°) and Winter Solstice (270°+360°) are
	// both inside the sampled span. Sample instants are in dynamical time.
	start := julian.CalendarGregorianToJD(year, 1, 1) - 2
	end := julian.CalendarGregorianToJD(year+1, 1, 1) + 2
	n := int(end-start) + 1

	lons := make([]float64, n)
	jds := make([]float64, n)
	prev := 0.0
	offset := 0.0
	for i := 0; i < n; i++ {
		jd := start + float64(i)
		lon := lowPrecisionLongitude(jd)
		// Unwrap at 360° so the longitude is strictly increasing
		if i > 0 && lon+offset < prev {
			offset += 360
		}
		lons[i] = lon + offset
		jds[i] = jd
		prev = lons[i]
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(lons, jds); err != nil {
		return out, false
	}

	first := lons[0]
	for i := range out {
		target := Term(i).Longitude()
		for target < first {
			target += 360
		}
		jde := pl.Predict(target)
		dt := polynomialDeltaT(float64(year) + (float64(i)+0.5)/NumTerms)
		out[i] = jdToUTC(jde - dt/86400)
	}
	return out, true
}

// lowPrecisionLongitude is the apparent solar longitude in degrees, [0, 360)
func lowPrecisionLongitude(jde float64) float64 {
	return solar.ApparentLongitude(base.J2000Century(jde)).Mod1().Deg()
}
