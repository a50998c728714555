package solarterm

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tier names a solar term data source by its place in the fallback order
type Tier int

const (
	TierPrecise Tier = iota
	TierObservatory
	TierInterpolated
)

func (t Tier) String() string {
	switch t {
	case TierPrecise:
		return "precise"
	case TierObservatory:
		return "observatory"
	case TierInterpolated:
		return "interpolated"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText renders the tier by name
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Source provides the 24 term instants of a year. ok is false when the
// source has no data for that year.
type Source interface {
	Tier() Tier
	Terms(year int) (terms [NumTerms]time.Time, ok bool)
}

// fallbackState is a step of the source fallback machine:
// TryPrecise → TryObservatory → TryInterpolated → Fail
type fallbackState int

const (
	tryPrecise fallbackState = iota
	tryObservatory
	tryInterpolated
	fail
)

func (s fallbackState) tier() Tier {
	switch s {
	case tryObservatory:
		return TierObservatory
	case tryInterpolated:
		return TierInterpolated
	default:
		return TierPrecise
	}
}

// fallback walks the sources for a year in tier order and returns the first
// that has data. A missing tier is skipped like a miss.
func fallback(sources map[Tier]Source, year int) ([NumTerms]time.Time, Tier, bool) {
	state := tryPrecise
	for {
		if state == fail {
			return [NumTerms]time.Time{}, 0, false
		}
		if src, ok := sources[state.tier()]; ok && src != nil {
			if terms, ok := src.Terms(year); ok {
				return terms, state.tier(), true
			}
		}
		state++
	}
}

// firstComputedYear is one year before MinYear: the Major Snow of that year
// opens the month containing early January of MinYear.
const firstComputedYear = MinYear - 1

type yearEntry struct {
	terms   [NumTerms]time.Time
	tier    Tier
	present bool
}

// Table is the read-only solar term table. It is filled once, on first use,
// and is safe for concurrent readers afterwards.
type Table struct {
	once    sync.Once
	sources map[Tier]Source
	years   [MaxYear - firstComputedYear + 1]yearEntry
	logger  *zap.SugaredLogger
}

// Option configures a Table
type Option func(*Table)

// WithSource installs src in its tier, replacing the default for that tier
func WithSource(src Source) Option {
	return func(t *Table) {
		t.sources[src.Tier()] = src
	}
}

// WithoutTier removes a tier from the fallback chain
func WithoutTier(tier Tier) Option {
	return func(t *Table) {
		delete(t.sources, tier)
	}
}

// WithLogger sets the logger used to report data gaps
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// NewTable creates a table backed by the precise, observatory and
// interpolated sources. Nothing is computed until the first lookup.
func NewTable(opts ...Option) *Table {
	t := &Table{
		sources: map[Tier]Source{
			TierPrecise:      NewPreciseSource(),
			TierObservatory:  NewObservatorySource(),
			TierInterpolated: NewInterpolatedSource(),
		},
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the process-wide table
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable()
	})
	return defaultTable
}

// Load fills the table. It runs at most once; later calls return immediately.
func (t *Table) Load() {
	t.once.Do(func() {
		start := time.Now()
		tierCounts := make(map[Tier]int)
		for y := firstComputedYear; y <= MaxYear; y++ {
			terms, tier, ok := fallback(t.sources, y)
			if !ok {
				t.logger.Errorf("no solar term source has data for %d", y)
				continue
			}
			t.years[y-firstComputedYear] = yearEntry{terms: terms, tier: tier, present: true}
			tierCounts[tier]++
		}
		t.logger.Debugw("solar term table loaded",
			"years", MaxYear-firstComputedYear+1,
			"precise", tierCounts[TierPrecise],
			"observatory", tierCounts[TierObservatory],
			"interpolated", tierCounts[TierInterpolated],
			"elapsed", time.Since(start))
	})
}

func (t *Table) entry(year int) (*yearEntry, error) {
	if err := checkYear(year); err != nil {
		return nil, err
	}
	return t.computed(year)
}

// computed returns a year's entry including the lead-in year before MinYear
func (t *Table) computed(year int) (*yearEntry, error) {
	if year < firstComputedYear || year > MaxYear {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRangeYear, year)
	}
	t.Load()
	e := &t.years[year-firstComputedYear]
	if !e.present {
		return nil, fmt.Errorf("%w: %d", ErrMissingSolarTermData, year)
	}
	return e, nil
}

// Lookup returns the UTC instant of a single term
func (t *Table) Lookup(year int, term Term) (time.Time, error) {
	if !term.Valid() {
		return time.Time{}, fmt.Errorf("invalid solar term index %d", int(term))
	}
	e, err := t.entry(year)
	if err != nil {
		return time.Time{}, err
	}
	return e.terms[term], nil
}

// LookupAll returns all 24 term instants of a year in civil order
func (t *Table) LookupAll(year int) ([NumTerms]time.Time, error) {
	e, err := t.entry(year)
	if err != nil {
		return [NumTerms]time.Time{}, err
	}
	return e.terms, nil
}

// SourceFor reports which tier supplied a year's data
func (t *Table) SourceFor(year int) (Tier, error) {
	e, err := t.entry(year)
	if err != nil {
		return 0, err
	}
	return e.tier, nil
}

// MonthBoundary is a sexagenary month opening: the term and its instant
type MonthBoundary struct {
	Term Term
	At   time.Time
}

// LastBoundary returns the most recent month-opening term at or before
// instant. A birth exactly at a term instant belongs to the new period.
func (t *Table) LastBoundary(instant time.Time) (MonthBoundary, error) {
	instant = instant.UTC()
	year := instant.Year()

	for y := year; y >= year-1; y-- {
		e, err := t.computed(y)
		if err != nil {
			return MonthBoundary{}, fmt.Errorf("month boundary before %s: %w", instant.Format(time.RFC3339), err)
		}
		terms := e.terms
		for i := NumTerms - 2; i >= 0; i -= 2 {
			if !instant.Before(terms[i]) {
				return MonthBoundary{Term: Term(i), At: terms[i]}, nil
			}
		}
	}
	// Unreachable: Major Snow of the previous year always precedes January
	return MonthBoundary{}, fmt.Errorf("%w: no month boundary before %s", ErrMissingSolarTermData, instant)
}
