package solarterm

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// within reports whether a and b are no more than tol apart
func within(a, b time.Time, tol time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestLookupPublishedInstants(t *testing.T) {
	// Published Start of Spring / solstice instants (Purple Mountain
	// Observatory almanac, converted to UTC)
	tests := []struct {
		name     string
		year     int
		term     Term
		expected time.Time
	}{
		{"Start of Spring 1984", 1984, StartOfSpring, time.Date(1984, 2, 4, 15, 19, 0, 0, time.UTC)},
		{"Start of Spring 2000", 2000, StartOfSpring, time.Date(2000, 2, 4, 12, 40, 20, 0, time.UTC)},
		{"Start of Spring 2024", 2024, StartOfSpring, time.Date(2024, 2, 4, 8, 26, 53, 0, time.UTC)},
		{"Start of Spring 2025", 2025, StartOfSpring, time.Date(2025, 2, 3, 14, 10, 13, 0, time.UTC)},
		{"Major Snow 1999", 1999, MajorSnow, time.Date(1999, 12, 7, 13, 47, 0, 0, time.UTC)},
		{"Minor Cold 2000", 2000, MinorCold, time.Date(2000, 1, 6, 1, 0, 40, 0, time.UTC)},
		{"Winter Solstice 2000", 2000, WinterSolstice, time.Date(2000, 12, 21, 13, 37, 30, 0, time.UTC)},
		{"Cold Dew 2023", 2023, ColdDew, time.Date(2023, 10, 8, 12, 15, 44, 0, time.UTC)},
	}

	table := NewTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Lookup(tt.year, tt.term)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !within(got, tt.expected, 2*time.Minute) {
				t.Errorf("Lookup(%d, %s) = %s, expected within 2m of %s", tt.year, tt.term, got, tt.expected)
			}
			if got.Location() != time.UTC {
				t.Errorf("instant not in UTC: %v", got.Location())
			}
		})
	}
}

func TestLookupAllOrdering(t *testing.T) {
	table := NewTable()
	for _, year := range []int{1850, 1899, 1900, 1984, 2000, 2020, 2021, 2100} {
		terms, err := table.LookupAll(year)
		if err != nil {
			t.Fatalf("LookupAll(%d): %v", year, err)
		}
		if terms[0].Year() != year || terms[0].Month() != time.January {
			t.Errorf("%d: Minor Cold = %s, expected early January", year, terms[0])
		}
		if terms[NumTerms-1].Month() != time.December {
			t.Errorf("%d: Winter Solstice = %s, expected December", year, terms[NumTerms-1])
		}
		for i := 1; i < NumTerms; i++ {
			gap := terms[i].Sub(terms[i-1])
			if gap < 14*24*time.Hour || gap > 17*24*time.Hour {
				t.Errorf("%d: gap between %s and %s is %s", year, Term(i-1), Term(i), gap)
			}
		}
	}
}

func TestOutOfRangeYear(t *testing.T) {
	table := NewTable()
	for _, year := range []int{1849, 2101, 0, -500} {
		if _, err := table.LookupAll(year); !errors.Is(err, ErrOutOfRangeYear) {
			t.Errorf("LookupAll(%d) error = %v, expected ErrOutOfRangeYear", year, err)
		}
	}
	if _, err := table.Lookup(2000, Term(24)); err == nil {
		t.Error("expected error for term index 24")
	}
}

func TestDefaultTierCoverage(t *testing.T) {
	table := NewTable()
	tests := []struct {
		year     int
		expected Tier
	}{
		{1850, TierObservatory},
		{1899, TierObservatory},
		{1900, TierPrecise},
		{2000, TierPrecise},
		{2100, TierPrecise},
	}
	for _, tt := range tests {
		got, err := table.SourceFor(tt.year)
		if err != nil {
			t.Fatalf("SourceFor(%d): %v", tt.year, err)
		}
		if got != tt.expected {
			t.Errorf("SourceFor(%d) = %s, expected %s", tt.year, got, tt.expected)
		}
	}
}

func TestSourcesAgree(t *testing.T) {
	precise := NewPreciseSource()
	observatory := NewObservatorySource()
	interpolated := NewInterpolatedSource()

	for _, year := range []int{1900, 1950, 1984, 2000, 2020} {
		p, ok := precise.Terms(year)
		if !ok {
			t.Fatalf("precise source has no data for %d", year)
		}
		o, ok := observatory.Terms(year)
		if !ok {
			t.Fatalf("observatory source has no data for %d", year)
		}
		in, ok := interpolated.Terms(year)
		if !ok {
			t.Fatalf("interpolated source has no data for %d", year)
		}
		for i := 0; i < NumTerms; i++ {
			if !within(p[i], o[i], 2*time.Minute) {
				t.Errorf("%d %s: precise %s vs observatory %s", year, Term(i), p[i], o[i])
			}
			if !within(p[i], in[i], 15*time.Minute) {
				t.Errorf("%d %s: precise %s vs interpolated %s", year, Term(i), p[i], in[i])
			}
		}
	}
}

// fakeSource serves fixed data for a set of years and counts calls
type fakeSource struct {
	tier  Tier
	years map[int]bool
	mu    sync.Mutex
	calls []int
}

func (f *fakeSource) Tier() Tier { return f.tier }

func (f *fakeSource) Terms(year int) ([NumTerms]time.Time, bool) {
	f.mu.Lock()
	f.calls = append(f.calls, year)
	f.mu.Unlock()

	var out [NumTerms]time.Time
	if !f.years[year] {
		return out, false
	}
	for i := range out {
		out[i] = time.Date(year, 1, 6, int(f.tier), 0, 0, 0, time.UTC).AddDate(0, 0, 15*i)
	}
	return out, true
}

func TestFallbackOrder(t *testing.T) {
	precise := &fakeSource{tier: TierPrecise, years: map[int]bool{2000: true}}
	observatory := &fakeSource{tier: TierObservatory, years: map[int]bool{2000: true, 1900: true}}
	interpolated := &fakeSource{tier: TierInterpolated, years: map[int]bool{2000: true, 1900: true, 1850: true}}
	sources := map[Tier]Source{
		TierPrecise:      precise,
		TierObservatory:  observatory,
		TierInterpolated: interpolated,
	}

	tests := []struct {
		year     int
		expected Tier
		ok       bool
	}{
		{2000, TierPrecise, true},
		{1900, TierObservatory, true},
		{1850, TierInterpolated, true},
		{1999, 0, false},
	}
	for _, tt := range tests {
		_, tier, ok := fallback(sources, tt.year)
		if ok != tt.ok {
			t.Errorf("fallback(%d) ok = %v, expected %v", tt.year, ok, tt.ok)
			continue
		}
		if ok && tier != tt.expected {
			t.Errorf("fallback(%d) tier = %s, expected %s", tt.year, tier, tt.expected)
		}
	}

	// 2000 must never reach the lower tiers
	for _, y := range observatory.calls {
		if y == 2000 {
			t.Error("observatory source consulted for a year the precise source covers")
		}
	}
}

func TestMissingSolarTermData(t *testing.T) {
	only := &fakeSource{tier: TierInterpolated, years: map[int]bool{1984: true}}
	table := NewTable(
		WithoutTier(TierPrecise),
		WithoutTier(TierObservatory),
		WithSource(only),
	)

	if _, err := table.LookupAll(1984); err != nil {
		t.Fatalf("LookupAll(1984): %v", err)
	}
	if _, err := table.LookupAll(1985); !errors.Is(err, ErrMissingSolarTermData) {
		t.Errorf("LookupAll(1985) error = %v, expected ErrMissingSolarTermData", err)
	}
	if tier, _ := table.SourceFor(1984); tier != TierInterpolated {
		t.Errorf("SourceFor(1984) = %s, expected interpolated", tier)
	}
}

func TestLoadOnce(t *testing.T) {
	src := &fakeSource{tier: TierPrecise, years: map[int]bool{2000: true}}
	table := NewTable(WithSource(src), WithoutTier(TierObservatory), WithoutTier(TierInterpolated))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := table.Lookup(2000, StartOfSpring); err != nil {
				t.Errorf("Lookup: %v", err)
			}
		}()
	}
	wg.Wait()

	// One call per supported year plus the lead-in year before MinYear
	if len(src.calls) != MaxYear-MinYear+2 {
		t.Errorf("source consulted %d times, expected once per year (%d)", len(src.calls), MaxYear-MinYear+2)
	}
}

func TestLastBoundary(t *testing.T) {
	table := NewTable()
	lichun, err := table.Lookup(2000, StartOfSpring)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	tests := []struct {
		name     string
		instant  time.Time
		expected Term
	}{
		{"exactly at Start of Spring", lichun, StartOfSpring},
		{"one second before Start of Spring", lichun.Add(-time.Second), MinorCold},
		{"New Year's Day", time.Date(2000, 1, 1, 4, 0, 0, 0, time.UTC), MajorSnow},
		{"mid October", time.Date(2000, 10, 20, 0, 0, 0, 0, time.UTC), ColdDew},
		{"late December", time.Date(2000, 12, 31, 23, 0, 0, 0, time.UTC), MajorSnow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.LastBoundary(tt.instant)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Term != tt.expected {
				t.Errorf("LastBoundary(%s) = %s, expected %s", tt.instant, got.Term, tt.expected)
			}
			if got.At.After(tt.instant) {
				t.Errorf("boundary %s is after instant %s", got.At, tt.instant)
			}
		})
	}

	// Early January of the first supported year is in the month Major Snow
	// 1849 opened
	got, err := table.LastBoundary(time.Date(1850, 1, 2, 4, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LastBoundary(1850-01-02): %v", err)
	}
	if got.Term != MajorSnow || got.At.Year() != 1849 {
		t.Errorf("LastBoundary(1850-01-02) = %s at %s, expected Major Snow 1849", got.Term, got.At)
	}
	if _, err := table.LastBoundary(time.Date(1849, 1, 2, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrOutOfRangeYear) {
		t.Errorf("expected ErrOutOfRangeYear before Major Snow 1849, got %v", err)
	}
}

func TestTermAttributes(t *testing.T) {
	if StartOfSpring.Longitude() != 315 || SpringEquinox.Longitude() != 0 || WinterSolstice.Longitude() != 270 {
		t.Error("term longitudes are wrong")
	}
	if !StartOfSpring.IsMonthBoundary() || RainWater.IsMonthBoundary() {
		t.Error("month boundary flags are wrong")
	}
	if StartOfSpring.String() != "立春" || StartOfSpring.English() != "Start of Spring" {
		t.Error("term names are wrong")
	}
}
