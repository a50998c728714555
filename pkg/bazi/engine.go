// Package bazi is the calculation facade: it takes a birth request through
// solar time correction, pillar resolution, annotation and star matching and
// returns one complete result.
package bazi

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/bazi/pkg/annotate"
	"github.com/chrissnell/bazi/pkg/ganzhi"
	"github.com/chrissnell/bazi/pkg/sexagenary"
	"github.com/chrissnell/bazi/pkg/shensha"
	"github.com/chrissnell/bazi/pkg/solarterm"
	"github.com/chrissnell/bazi/pkg/solartime"
)

// DefaultRuleSet is used when a request names none
const DefaultRuleSet = shensha.Traditional

const defaultBatchConcurrency = 8

// PillarView is everything a narrative collaborator needs about one pillar
type PillarView struct {
	Pillar        sexagenary.Pillar    `json:"pillar"`
	StemBranch    ganzhi.StemBranch    `json:"stemBranch"`
	Stem          ganzhi.Stem          `json:"stem"`
	Branch        ganzhi.Branch        `json:"branch"`
	StemElement   ganzhi.Element       `json:"stemElement"`
	BranchElement ganzhi.Element       `json:"branchElement"`
	NaYin         string               `json:"naYin"`
	StemTenGod    annotate.TenGod      `json:"stemTenGod"`
	BranchTenGod  annotate.TenGod      `json:"branchTenGod"`
	HiddenStems   annotate.HiddenStems `json:"hiddenStems"`
	HiddenTenGods []annotate.TenGod    `json:"hiddenTenGods"`
	Shensha       []string             `json:"shensha"`
}

// Result is a complete calculation. It is never returned partially filled.
type Result struct {
	ExternalID string `json:"externalId,omitempty"`
	Name       string `json:"name,omitempty"`
	Gender     string `json:"gender,omitempty"`

	Pillars     sexagenary.FourPillars `json:"pillars"`
	PillarViews [4]PillarView          `json:"pillarViews"`
	Annotations annotate.Annotations   `json:"annotations"`
	RuleSet     string                 `json:"ruleSet"`
	Shensha     []shensha.Match        `json:"shensha"`

	SolarTime       solartime.Result      `json:"solarTime"`
	ZiHourMode      sexagenary.ZiHourMode `json:"ziHourMode"`
	MonthTerm       string                `json:"monthTerm"`
	SolarTermSource solarterm.Tier        `json:"solarTermSource"`

	Log CalculationLog `json:"calculationLog"`
}

// Engine runs calculations. It is safe for concurrent use.
type Engine struct {
	table    *solarterm.Table
	resolver *sexagenary.Resolver
	rules    *shensha.Registry
	matcher  *shensha.Engine
	logger   *zap.SugaredLogger

	defaultRuleSet   string
	strict           bool
	batchConcurrency int
}

// Option configures an Engine
type Option func(*Engine)

// WithSolarTermTable replaces the process-wide solar term table
func WithSolarTermTable(t *solarterm.Table) Option {
	return func(e *Engine) { e.table = t }
}

// WithRuleRegistry supplies the shensha rule sets
func WithRuleRegistry(r *shensha.Registry) Option {
	return func(e *Engine) { e.rules = r }
}

// WithLogger sets the engine logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDefaultRuleSet names the rule set used when a request names none
func WithDefaultRuleSet(name string) Option {
	return func(e *Engine) { e.defaultRuleSet = name }
}

// WithStrict makes an invalid stem-branch pair panic instead of returning
// an error. Meant for development builds.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithBatchConcurrency bounds the goroutines used by CalculateBatch
func WithBatchConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchConcurrency = n
		}
	}
}

// NewEngine creates an engine. Without options it uses the default solar
// term table and the built-in rule sets.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{batchConcurrency: defaultBatchConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop().Sugar()
	}
	if e.table == nil {
		e.table = solarterm.Default()
	}
	if e.rules == nil {
		rules, err := shensha.LoadRegistry(nil)
		if err != nil {
			return nil, fmt.Errorf("loading shensha rules: %w", err)
		}
		e.rules = rules
	}
	if e.defaultRuleSet == "" {
		e.defaultRuleSet = DefaultRuleSet
	}
	if _, err := e.rules.Get(e.defaultRuleSet); err != nil {
		return nil, fmt.Errorf("default rule set: %w", err)
	}
	e.resolver = sexagenary.NewResolver(e.table)
	e.matcher = shensha.NewEngine(e.logger)
	return e, nil
}

// SolarTerms returns the table the engine resolves against
func (e *Engine) SolarTerms() *solarterm.Table { return e.table }

// RuleSets returns the loaded shensha rule sets
func (e *Engine) RuleSets() *shensha.Registry { return e.rules }

// DefaultRuleSetName returns the name used for requests that name no rule set
func (e *Engine) DefaultRuleSetName() string { return e.defaultRuleSet }

// Calculate runs one request
func (e *Engine) Calculate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := e.calculate(req)
	if err != nil {
		if errors.Is(err, ganzhi.ErrInvalidStemBranchPair) {
			if e.strict {
				panic(err)
			}
			e.logger.Errorw("internal error computing chart", "error", err, "externalId", req.ExternalID)
		}
		if errors.Is(err, solarterm.ErrMissingSolarTermData) {
			e.logger.Errorw("solar term data missing", "error", err, "year", req.Birth.Year)
		}
		return nil, err
	}
	return res, nil
}

func (e *Engine) calculate(req Request) (*Result, error) {
	in := req.Birth
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ruleSetName := req.RuleSet
	if ruleSetName == "" {
		ruleSetName = e.defaultRuleSet
	}
	rs, err := e.rules.Get(ruleSetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	res := &Result{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Gender:     req.Gender,
		RuleSet:    rs.Name,
		ZiHourMode: in.ZiHourMode,
	}
	log := &res.Log
	log.add("input", "civil %s, zone offset %+d min, solar time %s, zi hour %s",
		in.Civil(), in.TimezoneOffsetMinutes, in.SolarTimeMode, in.ZiHourMode)

	st, err := solartime.Correct(in.Civil(), in.TimezoneOffsetMinutes, in.Longitude, in.SolarTimeMode)
	if err != nil {
		return nil, err
	}
	res.SolarTime = st
	log.add("solar_time", "corrected to %s %s (%+.2f min), instant %s",
		st.AdjustedDate, st.AdjustedTime, st.CorrectionMinutes, st.Instant.Format("2006-01-02T15:04:05Z"))
	if st.DayDelta != 0 {
		log.add("day_delta", "correction moved the date by %+d day(s)", st.DayDelta)
	}

	resolution, err := e.resolver.ResolveDetailed(st, in.ZiHourMode)
	if err != nil {
		return nil, err
	}
	if resolution.DayAdvanced {
		log.add("zi_hour", "early zi hour: day pillar taken from %s", resolution.PillarDate.Format("2006-01-02"))
	}
	log.add("month_term", "month opened by %s at %s", resolution.MonthTerm, resolution.MonthTermAt.Format("2006-01-02T15:04:05Z"))
	log.add("year", "sexagenary year %d, Start of Spring at %s", resolution.SexagenaryYear, resolution.StartOfSpring.Format("2006-01-02T15:04:05Z"))

	tier, err := e.table.SourceFor(resolution.EvaluatedAt.Year())
	if err != nil {
		return nil, err
	}
	res.SolarTermSource = tier
	res.MonthTerm = resolution.MonthTerm.String()

	fp := resolution.Pillars
	res.Pillars = fp
	log.add("pillars", "%s", fp)

	res.Annotations = annotate.Annotate(fp)
	log.add("annotations", "day master %s, dominant element %s, yin %d / yang %d",
		fp.DayMaster(), res.Annotations.Wuxing.Dominant(), res.Annotations.YinYang.Yin, res.Annotations.YinYang.Yang)

	matches, err := e.matcher.Calculate(shensha.NewChart(fp), rs)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []shensha.Match{}
	}
	res.Shensha = matches
	log.add("shensha", "%d of %d %s rules matched", len(matches), len(rs.Rules), rs.Name)

	names := shensha.NamesByPillar(matches)
	dm := fp.DayMaster()
	for i, sb := range fp.Array() {
		view := PillarView{
			Pillar:        sexagenary.Pillars[i],
			StemBranch:    sb,
			Stem:          sb.Stem(),
			Branch:        sb.Branch(),
			StemElement:   sb.Stem().Element(),
			BranchElement: sb.Branch().Element(),
			NaYin:         res.Annotations.NaYin[i].Name,
			StemTenGod:    res.Annotations.TenGods.Stems[i],
			BranchTenGod:  res.Annotations.TenGods.Branches[i],
			HiddenStems:   res.Annotations.HiddenStems[i],
			HiddenTenGods: annotate.HiddenTenGods(dm, sb.Branch()),
			Shensha:       names[i],
		}
		if view.Shensha == nil {
			view.Shensha = []string{}
		}
		res.PillarViews[i] = view
	}
	return res, nil
}

// CalculateBatch runs requests concurrently and returns results in input
// order. The first failure cancels the remaining work and is returned.
func (e *Engine) CalculateBatch(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchConcurrency)
	for i := range reqs {
		i := i
		g.Go(func() error {
			res, err := e.Calculate(ctx, reqs[i])
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
