package shensha

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chrissnell/bazi/pkg/ganzhi"
	"github.com/chrissnell/bazi/pkg/sexagenary"
)

func testChart(t *testing.T, pillars string) Chart {
	t.Helper()
	parts := strings.Fields(pillars)
	if len(parts) != 4 {
		t.Fatalf("chart %q needs four pillars", pillars)
	}
	var sbs [4]ganzhi.StemBranch
	for i, p := range parts {
		sb, err := ganzhi.ParseStemBranch(p)
		if err != nil {
			t.Fatalf("ParseStemBranch(%q): %v", p, err)
		}
		sbs[i] = sb
	}
	return NewChart(sexagenary.FourPillars{Year: sbs[0], Month: sbs[1], Day: sbs[2], Hour: sbs[3]})
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadRegistry(nil)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	return reg
}

func ruleSet(t *testing.T, reg *Registry, name string) *RuleSet {
	t.Helper()
	rs, err := reg.Get(name)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	return rs
}

func keys(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Key
	}
	return out
}

func TestBuiltinRuleSets(t *testing.T) {
	reg := testRegistry(t)

	if diff := cmp.Diff([]string{Legion, Traditional}, reg.Names()); diff != "" {
		t.Errorf("Names mismatch (-expected +got):\n%s", diff)
	}

	traditional := ruleSet(t, reg, Traditional)
	legion := ruleSet(t, reg, Legion)
	if len(traditional.Rules) != 20 {
		t.Errorf("traditional has %d rules, expected 20", len(traditional.Rules))
	}
	if len(legion.Rules) != 34 {
		t.Errorf("legion has %d rules, expected 34", len(legion.Rules))
	}
	if diff := cmp.Diff(traditional.Keys(), legion.Keys()[:20]); diff != "" {
		t.Errorf("legion does not start with the traditional rules (-expected +got):\n%s", diff)
	}

	if _, err := reg.Get("modern"); !errors.Is(err, ErrUnknownRuleSet) {
		t.Errorf("Get(modern) error = %v, expected ErrUnknownRuleSet", err)
	}
}

func TestCalculateFixtures(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(nil)

	tests := []struct {
		name     string
		chart    string
		ruleSet  string
		expected []string
	}{
		{
			name:     "1985 traditional",
			chart:    "乙丑 乙酉 戊寅 壬戌",
			ruleSet:  Traditional,
			expected: []string{"tianyi", "taiji", "huagai", "jiangxing", "jiesha", "tiande", "yinchayangcuo", "guchen", "guasu", "kongwang"},
		},
		{
			name:    "1985 legion",
			chart:   "乙丑 乙酉 戊寅 壬戌",
			ruleSet: Legion,
			expected: []string{"tianyi", "taiji", "huagai", "jiangxing", "jiesha", "tiande", "yinchayangcuo", "guchen", "guasu", "kongwang",
				"guoyin", "fuxing", "hongluan"},
		},
		{
			name:     "1990 traditional",
			chart:    "庚午 乙酉 乙未 庚辰",
			ruleSet:  Traditional,
			expected: []string{"tianyi", "taiji", "wenchang", "yangren", "yuede", "guasu", "kongwang"},
		},
		{
			name:    "1990 legion",
			chart:   "庚午 乙酉 乙未 庚辰",
			ruleSet: Legion,
			expected: []string{"tianyi", "taiji", "wenchang", "yangren", "yuede", "guasu", "kongwang",
				"guoyin", "fuxing", "zaisha", "diaoke", "hongluan"},
		},
		{
			name:    "heaven's net in legion",
			chart:   "壬戌 辛亥 戊戌 丁巳",
			ruleSet: Legion,
			expected: []string{"tianyi", "taiji", "lushen", "huagai", "jiesha", "wangshen", "kuigang", "guchen", "kongwang",
				"tianyi_doctor", "tianluo_diwang", "bazhuan", "hongluan", "tianxi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := engine.Calculate(testChart(t, tt.chart), ruleSet(t, reg, tt.ruleSet))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, keys(matches)); diff != "" {
				t.Errorf("matches mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateEvidence(t *testing.T) {
	reg := testRegistry(t)
	matches, err := NewEngine(nil).Calculate(testChart(t, "乙丑 乙酉 戊寅 壬戌"), ruleSet(t, reg, Traditional))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byKey := make(map[string]Match)
	for _, m := range matches {
		byKey[m.Key] = m
	}

	tianyi := byKey["tianyi"]
	expected := []Evidence{{
		Source:      DayStem,
		SourceValue: "戊",
		Target:      YearBranch,
		TargetValue: "丑",
		Clause:      "day or year stem finds its nobleman branch",
	}}
	if diff := cmp.Diff(expected, tianyi.Evidence); diff != "" {
		t.Errorf("tianyi evidence mismatch (-expected +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sexagenary.Pillar{sexagenary.YearPillar}, tianyi.Pillars); diff != "" {
		t.Errorf("tianyi pillars mismatch (-expected +got):\n%s", diff)
	}
	if tianyi.Category != Auspicious {
		t.Errorf("tianyi category = %s", tianyi.Category)
	}

	taiji := byKey["taiji"]
	if diff := cmp.Diff([]sexagenary.Pillar{sexagenary.YearPillar, sexagenary.HourPillar}, taiji.Pillars); diff != "" {
		t.Errorf("taiji pillars mismatch (-expected +got):\n%s", diff)
	}

	void := byKey["kongwang"]
	if len(void.Evidence) != 1 || void.Evidence[0].Source != DayPillar || void.Evidence[0].Target != MonthBranch ||
		void.Evidence[0].SourceValue != "戊寅" || void.Evidence[0].TargetValue != "酉" {
		t.Errorf("kongwang evidence = %+v", void.Evidence)
	}

	// The default clause is generated from the rule when the table has none
	if !strings.Contains(byKey["guchen"].Evidence[0].Clause, "孤辰") {
		t.Errorf("guchen clause = %q", byKey["guchen"].Evidence[0].Clause)
	}
}

func TestEvidenceCompleteness(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(nil)
	legion := ruleSet(t, reg, Legion)

	for y := 0; y < 60; y += 7 {
		for d := 0; d < 60; d++ {
			fp := sexagenary.FourPillars{
				Year:  ganzhi.FromIndex(y),
				Month: ganzhi.FromIndex(y*3 + d),
				Day:   ganzhi.FromIndex(d),
				Hour:  ganzhi.FromIndex(d*5 + 1),
			}
			matches, err := engine.Calculate(NewChart(fp), legion)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", fp, err)
			}
			for _, m := range matches {
				if len(m.Evidence) == 0 || len(m.Pillars) == 0 {
					t.Fatalf("%s: %s has no evidence", fp, m.Key)
				}
				for _, ev := range m.Evidence {
					attached := false
					for _, p := range m.Pillars {
						if p == ev.Target.Pillar() {
							attached = true
						}
					}
					if !attached || ev.SourceValue == "" || ev.TargetValue == "" || ev.Clause == "" {
						t.Fatalf("%s: %s has incomplete evidence %+v", fp, m.Key, ev)
					}
				}
				if m.Key == "shie_dabai" {
					for _, k := range keys(matches) {
						if k == "kuigang" {
							t.Fatalf("%s: shie_dabai reported alongside kuigang", fp)
						}
					}
				}
			}
		}
	}
}

func TestCalculateDeterministic(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(nil)
	chart := testChart(t, "壬戌 辛亥 戊戌 丁巳")

	first, err := engine.Calculate(chart, ruleSet(t, reg, Legion))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := engine.Calculate(chart, ruleSet(t, reg, Legion))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

const exclusionRules = `
name: exclusion
rules:
  - key: kuigang
    name: 魁罡
    category: neutral
    kind: pillar_set
    source: [day]
    pairs: [庚辰, 庚戌, 壬辰, 戊戌]
    %s
  - key: shie_dabai
    name: 十恶大败
    category: inauspicious
    kind: pillar_set
    source: [day]
    pairs: [甲辰, 乙巳, 丙申, 丁亥, 戊戌, 己丑, 庚辰, 辛巳, 壬申, 癸亥]
`

func TestExclusion(t *testing.T) {
	chart := testChart(t, "壬戌 辛亥 戊戌 丁巳")
	engine := NewEngine(nil)

	tests := []struct {
		name     string
		clause   string
		expected []string
	}{
		{"without precedence both match", "", []string{"kuigang", "shie_dabai"}},
		{"excludes drops the other rule", "excludes: [shie_dabai]", []string{"kuigang"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := ParseRuleSet([]byte(strings.Replace(exclusionRules, "%s", tt.clause, 1)))
			if err != nil {
				t.Fatalf("ParseRuleSet: %v", err)
			}
			matches, err := engine.Calculate(chart, rs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, keys(matches)); diff != "" {
				t.Errorf("matches mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}

func TestParseRuleSetValidation(t *testing.T) {
	rule := func(body string) string {
		return "name: broken\nrules:\n  - key: r1\n    name: R1\n    category: neutral\n" + body
	}

	tests := []struct {
		name string
		yaml string
	}{
		{"no name", "rules: []\n"},
		{"empty rule set", "name: empty\nrules: []\n"},
		{"unknown field", rule("    kind: void\n    source: [day]\n    targets: [branches]\n    colour: red\n")},
		{"unknown kind", rule("    kind: magic\n    source: [day]\n    targets: [branches]\n")},
		{"unknown category", "name: broken\nrules:\n  - key: r1\n    name: R1\n    category: lucky\n    kind: void\n    source: [day]\n    targets: [branches]\n"},
		{"unknown position", rule("    kind: void\n    source: [week]\n    targets: [branches]\n")},
		{"void source is not a pillar", rule("    kind: void\n    source: [day.stem]\n    targets: [branches]\n")},
		{"empty lookup table", rule("    kind: lookup\n    source: [day.stem]\n    targets: [branches]\n")},
		{"bad symbol", rule("    kind: lookup\n    source: [day.stem]\n    targets: [branches]\n    table:\n      甲: [月]\n")},
		{"key kind mismatch", rule("    kind: lookup\n    source: [day.stem]\n    targets: [branches]\n    table:\n      子: [丑]\n")},
		{"value kind mismatch", rule("    kind: lookup\n    source: [day.stem]\n    targets: [branches]\n    table:\n      甲: [乙]\n")},
		{"duplicate table key", rule("    kind: lookup\n    source: [day.stem]\n    targets: [branches]\n    table:\n      \"甲 乙\": [丑]\n      乙: [子]\n")},
		{"invalid pair", rule("    kind: pillar_set\n    source: [day]\n    pairs: [甲丑]\n")},
		{"zero offset", rule("    kind: branch_offset\n    source: [year.branch]\n    targets: [branches]\n    offset: 12\n")},
		{"single member set", rule("    kind: co_occur\n    sets: [[戌]]\n")},
		{"excludes unknown rule", rule("    kind: void\n    source: [day]\n    targets: [branches]\n    excludes: [r2]\n")},
		{"excludes itself", rule("    kind: void\n    source: [day]\n    targets: [branches]\n    excludes: [r1]\n")},
		{"duplicate position", rule("    kind: void\n    source: [day]\n    targets: [branches, day.branch]\n")},
		{"extends without registry", "name: child\nextends: traditional\nrules: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRuleSet([]byte(tt.yaml)); !errors.Is(err, ErrInvalidRule) {
				t.Errorf("error = %v, expected ErrInvalidRule", err)
			}
		})
	}

	dup := "name: dup\nrules:\n" +
		"  - {key: a, name: A, category: neutral, kind: void, source: [day], targets: [branches]}\n" +
		"  - {key: a, name: A, category: neutral, kind: void, source: [year], targets: [branches]}\n"
	if _, err := ParseRuleSet([]byte(dup)); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("duplicate key: error = %v, expected ErrInvalidRule", err)
	}
}

func TestRegistryOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "traditional.yaml")
	custom := "name: traditional\nrules:\n" +
		"  - {key: kongwang, name: 空亡, category: neutral, kind: void, source: [day, year], targets: [branches]}\n"
	if err := os.WriteFile(file, []byte(custom), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reg, err := LoadRegistry(map[string]string{Traditional: file})
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if got := ruleSet(t, reg, Traditional).Keys(); len(got) != 1 || got[0] != "kongwang" {
		t.Errorf("overridden traditional keys = %v", got)
	}
	// legion picks up the overridden base
	if got := len(ruleSet(t, reg, Legion).Rules); got != 15 {
		t.Errorf("legion over the custom base has %d rules, expected 15", got)
	}

	if _, err := LoadRegistry(map[string]string{Legion: file}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("name mismatch: error = %v, expected ErrInvalidRule", err)
	}
	if _, err := LoadRegistry(map[string]string{Traditional: filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("expected error for a missing override file")
	}
}

func TestRegistryExtendsCycle(t *testing.T) {
	dir := t.TempDir()
	write := func(name, extends string) string {
		file := filepath.Join(dir, name+".yaml")
		body := "name: " + name + "\nextends: " + extends + "\nrules:\n" +
			"  - {key: " + name + ", name: X, category: neutral, kind: void, source: [day], targets: [branches]}\n"
		if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		return file
	}
	_, err := LoadRegistry(map[string]string{"a": write("a", "b"), "b": write("b", "a")})
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("error = %v, expected ErrInvalidRule", err)
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in       string
		expected Position
	}{
		{"year.stem", YearStem},
		{"hour.stem", HourStem},
		{"month.branch", MonthBranch},
		{"day", DayPillar},
		{"hour", HourPillar},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if err != nil {
			t.Fatalf("ParsePosition(%q): %v", tt.in, err)
		}
		if got != tt.expected || got.String() != tt.in {
			t.Errorf("ParsePosition(%q) = %s, expected %s", tt.in, got, tt.expected)
		}
	}
	for _, bad := range []string{"", "day.root", "decade.stem"} {
		if _, err := ParsePosition(bad); err == nil {
			t.Errorf("ParsePosition(%q) expected error", bad)
		}
	}
}

func TestNamesByPillar(t *testing.T) {
	reg := testRegistry(t)
	matches, err := NewEngine(nil).Calculate(testChart(t, "乙丑 乙酉 戊寅 壬戌"), ruleSet(t, reg, Traditional))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := NamesByPillar(matches)
	expected := [4][]string{
		{"天乙贵人", "太极贵人"},
		{"将星", "空亡"},
		{"劫煞", "天德贵人", "阴差阳错", "孤辰"},
		{"太极贵人", "华盖", "寡宿"},
	}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("NamesByPillar mismatch (-expected +got):\n%s", diff)
	}
}
