package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"

	"github.com/oarkflow/catalogaccess"
	"github.com/oarkflow/catalogaccess/stores"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "convert":
		handleConvert()
	case "validate":
		handleValidate()
	case "stats":
		handleStats()
	case "apply":
		handleApply()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("catalog-config - Configuration tool for catalogaccess")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  catalog-config convert <input> <output>  - Convert between formats")
	fmt.Println("  catalog-config validate <file>           - Validate configuration")
	fmt.Println("  catalog-config stats <file>              - Show configuration statistics")
	fmt.Println("  catalog-config apply <file> <sqlite-db>  - Apply seed rules to a database")
	fmt.Println()
	fmt.Println("Supported formats: .yaml, .yml, .json")
}

func handleConvert() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: catalog-config convert <input> <output>")
		os.Exit(1)
	}

	inputFile := os.Args[2]
	outputFile := os.Args[3]

	cfg, err := loadConfig(inputFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := saveConfig(cfg, outputFile); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s -> %s\n", inputFile, outputFile)
}

func handleValidate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: catalog-config validate <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Version: %d\n", cfg.Version)
	fmt.Printf("  Client rules: %d\n", len(cfg.ClientRules))
	fmt.Printf("  User rules: %d\n", len(cfg.UserRules))
}

func handleStats() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: catalog-config stats <file>")
		os.Exit(1)
	}

	filename := os.Args[2]
	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	stat, _ := os.Stat(filename)

	fmt.Println("Configuration Statistics")
	fmt.Println("========================")
	if stat != nil {
		fmt.Printf("File size: %d bytes\n", stat.Size())
	}
	fmt.Printf("Version: %d\n", cfg.Version)
	fmt.Println()

	fmt.Println("Components:")
	fmt.Printf("  Client rules: %d\n", len(cfg.ClientRules))
	fmt.Printf("  User rules:   %d\n", len(cfg.UserRules))
	fmt.Println()

	if len(cfg.ClientRules) > 0 {
		byMode := map[catalogaccess.AccessMode]int{}
		for _, r := range cfg.ClientRules {
			byMode[r.AccessMode]++
		}
		fmt.Println("Client Rule Details:")
		fmt.Printf("  all:      %d\n", byMode[catalogaccess.AccessAll])
		fmt.Printf("  selected: %d\n", byMode[catalogaccess.AccessSelected])
		fmt.Printf("  none:     %d\n", byMode[catalogaccess.AccessNone])
		fmt.Println()
	}

	if len(cfg.UserRules) > 0 {
		byInheritance := map[catalogaccess.InheritanceMode]int{}
		for _, r := range cfg.UserRules {
			byInheritance[r.InheritanceMode]++
		}
		fmt.Println("User Rule Details:")
		fmt.Printf("  inherit:  %d\n", byInheritance[catalogaccess.InheritanceInherit])
		fmt.Printf("  override: %d\n", byInheritance[catalogaccess.InheritanceOverride])
		fmt.Printf("  extend:   %d\n", byInheritance[catalogaccess.InheritanceExtend])
		fmt.Println()
	}

	fmt.Println("Engine Configuration:")
	fmt.Printf("  Permission cache TTL: %dms\n", cfg.Engine.CacheTTL)
	if cfg.Engine.RedisAddr != "" {
		fmt.Printf("  Redis: %s (prefix %q)\n", cfg.Engine.RedisAddr, cfg.Engine.RedisKeyPrefix)
	}
}

func handleApply() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: catalog-config apply <file> <sqlite-db>")
		os.Exit(1)
	}

	filename := os.Args[2]
	dbPath := os.Args[3]

	cfg, err := loadConfig(filename)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()
	db := squealx.NewDb(sqlDB, "sqlite", "catalogaccess")
	if err := stores.Migrate(db); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	auditStore, err := stores.NewSQLAuditStore(db)
	if err != nil {
		fmt.Printf("Error creating audit store: %v\n", err)
		os.Exit(1)
	}
	cache, err := stores.NewPermissionCacheFromConfig(cfg.Engine)
	if err != nil {
		fmt.Printf("Error creating permission cache: %v\n", err)
		os.Exit(1)
	}
	opts := []catalogaccess.EngineOption{}
	if cache != nil {
		opts = append(opts, catalogaccess.WithPermissionCache(cache))
	}
	engine, err := catalogaccess.NewEngine(
		stores.NewSQLRuleStore(db),
		stores.NewSQLCatalogStore(db),
		auditStore,
		stores.NewSQLDirectory(db),
		opts...,
	)
	if err != nil {
		fmt.Printf("Error creating engine: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := engine.ApplyConfig(ctx, cfg, catalogaccess.Actor{ID: "catalog-config"}); err != nil {
		fmt.Printf("Error applying config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration applied successfully\n")
	fmt.Printf("  Client rules loaded: %d\n", len(cfg.ClientRules))
	fmt.Printf("  User rules loaded: %d\n", len(cfg.UserRules))
}

func loadConfig(filename string) (*catalogaccess.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		loader := catalogaccess.NewConfigLoader()
		return loader.LoadYAML(data)
	case ".json":
		loader := catalogaccess.NewConfigLoader()
		return loader.LoadJSON(data)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func saveConfig(cfg *catalogaccess.Config, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = cfg.ToYAML()
	case ".json":
		data, err = cfg.ToJSON()
	default:
		return fmt.Errorf("unsupported file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
