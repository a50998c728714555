package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chrissnell/bazi/pkg/solarterm"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "Year to list the 24 solar terms for (1850-2100)")
	offset := flag.Int("tz", 480, "Display zone offset in minutes east of UTC")
	flag.Parse()

	table := solarterm.Default()
	instants, err := table.LookupAll(*year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	tier, err := table.SourceFor(*year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	zone := time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", *offset/60, abs(*offset%60)), *offset*60)

	fmt.Printf("Solar terms for %d (source: %s)\n", *year, tier)
	for i, at := range instants {
		t := solarterm.Term(i)
		marker := " "
		if t.IsMonthBoundary() {
			marker = "*"
		}
		fmt.Printf("  %s %2d %s %-22s %5.0f°  %s\n", marker, i, t, t.English(), t.Longitude(), at.In(zone).Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println("\n  * opens a sexagenary month")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
