package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/bazi/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite database already exists: %s (use -force to overwrite)\n", *sqliteFile)
		os.Exit(1)
	}

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	cfg, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("Dry run, would store:")
		out, _ := json.MarshalIndent(cfg, "  ", "  ")
		fmt.Printf("  %s\n", out)
		return
	}

	provider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	if err := provider.SaveConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing SQLite config: %v\n", err)
		os.Exit(1)
	}

	// Read it back to make sure the server will see the same settings
	stored, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying SQLite config: %v\n", err)
		os.Exit(1)
	}
	a, _ := json.Marshal(cfg)
	b, _ := json.Marshal(stored)
	if string(a) != string(b) {
		fmt.Fprintf(os.Stderr, "Error: stored configuration differs from the YAML source\n  yaml:   %s\n  sqlite: %s\n", a, b)
		os.Exit(1)
	}

	fmt.Printf("✓ Configuration written to %s\n", *sqliteFile)
}
