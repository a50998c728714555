package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/chrissnell/bazi/internal/app"
	"github.com/chrissnell/bazi/internal/log"
	"github.com/chrissnell/bazi/pkg/bazi"
	"github.com/chrissnell/bazi/pkg/config"
	"github.com/chrissnell/bazi/pkg/ganzhi"
)

func main() {
	var (
		date      = flag.String("date", "", "Birth date, YYYY-MM-DD (required)")
		clock     = flag.String("time", "", "Birth time, HH:MM (required)")
		tz        = flag.Int("tz", 480, "Zone offset in minutes east of UTC")
		longitude = flag.Float64("lon", 0, "Longitude in degrees east, needed for -solar lmt or tst")
		solarMode = flag.String("solar", "none", "Solar time correction: none, lmt or tst")
		ziMode    = flag.String("zi", "early", "Zi hour convention: early or late")
		ruleSet   = flag.String("ruleset", "", "Shensha rule set (default traditional)")
		rulesFile = flag.String("rules", "", "Path to a rule set file replacing the built-in table of the same name")
		asJSON    = flag.Bool("json", false, "Print the full result as JSON")
		showLog   = flag.Bool("log", false, "Print the calculation log")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *date == "" || *clock == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -date YYYY-MM-DD -time HH:MM [-tz 480] [-lon 116.4 -solar tst]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var lon *float64
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "lon" {
			lon = longitude
		}
	})

	cfg := &config.ConfigData{}
	if *rulesFile != "" {
		name, err := ruleSetName(*rulesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		switch name {
		case "traditional":
			cfg.Rules.TraditionalPath = *rulesFile
		case "legion":
			cfg.Rules.LegionPath = *rulesFile
		default:
			fmt.Fprintf(os.Stderr, "Error: %s replaces unknown rule set %q\n", *rulesFile, name)
			os.Exit(1)
		}
	}

	engine, err := app.BuildEngine(cfg, log.GetSugaredLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	in, err := bazi.ParseBirthInput(*date, *clock, *tz, lon, *solarMode, *ziMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	res, err := engine.Calculate(context.Background(), bazi.Request{Birth: in, RuleSet: *ruleSet})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printChart(res)
	if *showLog {
		fmt.Println("\nCalculation log:")
		for _, s := range res.Log.Steps() {
			fmt.Printf("  %-12s %s\n", s.Stage, s.Message)
		}
	}
}

func printChart(res *bazi.Result) {
	st := res.SolarTime
	fmt.Printf("Chart for %s %s (%s solar time, %s zi hour)\n", st.AdjustedDate, st.AdjustedTime, st.Mode, res.ZiHourMode)
	fmt.Printf("  Month term:   %s (%s source)\n", res.MonthTerm, res.SolarTermSource)
	fmt.Printf("  Day master:   %s\n\n", res.Pillars.DayMaster())

	fmt.Printf("  %-6s %-4s %-8s %-10s %-8s %s\n", "", "柱", "纳音", "十神", "藏干", "神煞")
	for _, v := range res.PillarViews {
		fmt.Printf("  %-6s %-4s %-8s %-10s %-8s %s\n",
			v.Pillar, v.StemBranch, v.NaYin, v.StemTenGod.String()+"/"+v.BranchTenGod.String(),
			v.HiddenStems, strings.Join(v.Shensha, " "))
	}

	w := res.Annotations.Wuxing
	fmt.Printf("\n  Elements:     ")
	for _, e := range ganzhi.Elements {
		fmt.Printf("%s %s  ", e, w.Get(e))
	}
	fmt.Printf("\n  Yin/Yang:     %d/%d\n", res.Annotations.YinYang.Yin, res.Annotations.YinYang.Yang)
}

// ruleSetName reads the name field of a rule set file
func ruleSetName(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var head struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(b, &head); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if head.Name == "" {
		return "", fmt.Errorf("%s has no top-level name", path)
	}
	return head.Name, nil
}
