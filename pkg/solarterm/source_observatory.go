package solarterm

// Observed ΔT in seconds at the start of each decade, as published from
// observatory timing records (IERS / Astronomical Almanac).
var observedDeltaT = []struct {
	year  float64
	value float64
}{
	{1850, 7.1},
	{1860, 7.9},
	{1870, 1.6},
	{1880, -5.4},
	{1890, -5.9},
	{1900, -2.7},
	{1910, 10.5},
	{1920, 21.2},
	{1930, 24.0},
	{1940, 24.4},
	{1950, 29.1},
	{1960, 33.2},
	{1970, 40.2},
	{1980, 50.5},
	{1990, 56.9},
	{2000, 63.8},
	{2010, 66.1},
	{2020, 69.4},
}

// NewObservatorySource returns the second-tier source. It uses the same
// longitude solver as the precise source but takes ΔT from observed values,
// which reaches back before 1900 where the polynomial fit is poorly
// constrained.
func NewObservatorySource() Source {
	return &astronomicalSource{
		tier:    TierObservatory,
		minYear: firstComputedYear,
		maxYear: 2020,
		deltaT:  interpolateObservedDeltaT,
	}
}

// interpolateObservedDeltaT linearly interpolates the decade table, holding
// the end values flat outside it
func interpolateObservedDeltaT(y float64) float64 {
	first, last := observedDeltaT[0], observedDeltaT[len(observedDeltaT)-1]
	if y <= first.year {
		return first.value
	}
	if y >= last.year {
		return last.value
	}
	for i := 1; i < len(observedDeltaT); i++ {
		hi := observedDeltaT[i]
		if y > hi.year {
			continue
		}
		lo := observedDeltaT[i-1]
		f := (y - lo.year) / (hi.year - lo.year)
		return lo.value + f*(hi.value-lo.value)
	}
	return last.value
}
