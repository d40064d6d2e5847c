package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"modport/internal/config"
	"modport/internal/crawler"
	"modport/internal/mapping"
	"modport/internal/pipeline"
	"modport/internal/transpiler"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "modport",
		Short: "Convert Java modloader mods to Bedrock-style scripts",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(convertCmd)
	mappingsCmd.AddCommand(mappingsImportCmd)
	mappingsCmd.AddCommand(mappingsListCmd)
	rootCmd.AddCommand(mappingsCmd)
}

// loadMappings reads the table from the configured SQLite store, falling
// back to the YAML table file.
func loadMappings(ctx context.Context, cfg *config.Config) ([]mapping.APIMapping, error) {
	if cfg.Mappings.Store != "" {
		store, err := mapping.NewStore(cfg.Mappings.Store)
		if err != nil {
			return nil, fmt.Errorf("open mapping store: %w", err)
		}
		defer store.Close()
		return store.LoadAll(ctx)
	}
	if cfg.Mappings.Table != "" {
		return mapping.LoadYAML(cfg.Mappings.Table)
	}
	return nil, fmt.Errorf("no mapping store or table configured")
}

var convertCmd = &cobra.Command{
	Use:   "convert [path]",
	Short: "Convert a mod source tree and write the generated scripts",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Mod.ID == "" {
			cfg.Mod.ID = filepath.Base(path)
		}

		ctx := cmd.Context()
		table, err := loadMappings(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to load mapping table: %v", err)
		}

		files, err := crawler.NewCrawler().Collect(path)
		if err != nil {
			log.Fatalf("Failed to scan %s: %v", path, err)
		}
		log.Printf("Collected %d Java files from %s", len(files), path)

		result, err := pipeline.Convert(ctx, pipeline.Input{
			ModID:          cfg.Mod.ID,
			LoaderVariant:  cfg.Mod.LoaderVariant,
			Files:          files,
			Mappings:       table,
			MappingVersion: cfg.Mappings.Version,
			Strategies: transpiler.Strategies{
				AllowStubs:           cfg.Strategies.AllowStubs,
				AllowWarnings:        cfg.Strategies.AllowWarnings,
				AllowSimplifications: cfg.Strategies.AllowSimplifications,
			},
		})
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}

		for _, f := range result.Files {
			out := filepath.Join(cfg.Output.Dir, filepath.FromSlash(f.Path))
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				log.Fatalf("Failed to create %s: %v", filepath.Dir(out), err)
			}
			if err := os.WriteFile(out, []byte(f.Source), 0o644); err != nil {
				log.Fatalf("Failed to write %s: %v", out, err)
			}
		}
		if err := result.Report.Save(filepath.Join(cfg.Output.Dir, "conversion_report.json")); err != nil {
			log.Printf("Failed to save report: %v", err)
		}

		log.Printf("Wrote %d script(s) to %s", len(result.Files), cfg.Output.Dir)
		for _, u := range result.Unmappable {
			log.Printf("unmappable: %s (%s:%d) - %s", u.Signature, u.File, u.Line, u.RecommendedAction)
		}
		if !result.Success {
			log.Fatalf("Conversion completed with failures; see %s", filepath.Join(cfg.Output.Dir, "conversion_report.json"))
		}
	},
}

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Administer the versioned mapping store",
}

var mappingsImportCmd = &cobra.Command{
	Use:   "import [table.yaml]",
	Short: "Import a YAML mapping table into the SQLite store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Mappings.Store == "" {
			log.Fatalf("No mapping store configured")
		}

		table, err := mapping.LoadYAML(args[0])
		if err != nil {
			log.Fatalf("Failed to load %s: %v", args[0], err)
		}

		store, err := mapping.NewStore(cfg.Mappings.Store)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		defer store.Close()

		if err := store.Import(cmd.Context(), table); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported %d mapping(s) into %s", len(table), cfg.Mappings.Store)
	},
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the mappings currently in the store",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		table, err := loadMappings(cmd.Context(), cfg)
		if err != nil {
			log.Fatalf("Failed to load mappings: %v", err)
		}
		for _, m := range table {
			fmt.Printf("%-40s v%-3d %-10s -> %s\n", m.SourceSignature, m.Version, m.ConversionType, m.TargetEquivalent)
		}
	},
}
