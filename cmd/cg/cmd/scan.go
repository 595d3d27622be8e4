package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/loader"
	"github.com/classgraph/classgraph/internal/repository"
	"github.com/classgraph/classgraph/internal/scan"
	"github.com/classgraph/classgraph/pkg/compression"
	"github.com/classgraph/classgraph/pkg/config"
	"github.com/classgraph/classgraph/pkg/filter"
	"github.com/classgraph/classgraph/pkg/model"
	"github.com/classgraph/classgraph/pkg/writer"
)

var (
	jobUUID            string
	concurrency        int
	nonPublicFields    bool
	blacklistPrefixes  []string
	blacklistSuffixes  []string
	blacklistContains  []string
	persist            bool
	outFile            string
	outCompress        string

	cosBucket    string
	cosRegion    string
	cosSecretID  string
	cosSecretKey string
	cosDomain    string
	cosScheme    string
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan ROOT [ROOT...]",
	Short: "Scan classfiles from one or more classpath roots into a Class Graph",
	Long: `scan walks every root (a directory, a zip/jar archive, or a
"cos://bucket-prefix" object store root), parses every .class file found,
and links the results into one Class Graph.

By default the graph summary is printed to stdout. Pass --persist to save
the graph to the configured database under --job, and --out to write the
summary as JSON to that file instead of stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&jobUUID, "job", "", "Job UUID for this scan (auto-generated if empty)")
	scanCmd.Flags().IntVar(&concurrency, "concurrency", 8, "Number of classfiles parsed concurrently")
	scanCmd.Flags().BoolVar(&nonPublicFields, "non-public-fields", false, "Resolve non-public fields too, not only public ones")
	scanCmd.Flags().StringSliceVar(&blacklistPrefixes, "blacklist-prefix", nil, "Blacklist a dotted-name prefix (repeatable)")
	scanCmd.Flags().StringSliceVar(&blacklistSuffixes, "blacklist-suffix", nil, "Blacklist a dotted-name suffix (repeatable)")
	scanCmd.Flags().StringSliceVar(&blacklistContains, "blacklist-contains", nil, "Blacklist a dotted-name substring (repeatable)")
	scanCmd.Flags().BoolVar(&persist, "persist", false, "Persist the resulting graph to the configured database")
	scanCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the scan summary as JSON to this file instead of stdout")
	scanCmd.Flags().StringVar(&outCompress, "compress", "none", "Compress --out as \"none\", \"gzip\", or \"zstd\"")

	scanCmd.Flags().StringVar(&cosBucket, "cos-bucket", "", "COS bucket name, required for a cos:// root")
	scanCmd.Flags().StringVar(&cosRegion, "cos-region", "", "COS region, required for a cos:// root")
	scanCmd.Flags().StringVar(&cosSecretID, "cos-secret-id", "", "COS secret ID")
	scanCmd.Flags().StringVar(&cosSecretKey, "cos-secret-key", "", "COS secret key")
	scanCmd.Flags().StringVar(&cosDomain, "cos-domain", "", "COS domain override (defaults to myqcloud.com)")
	scanCmd.Flags().StringVar(&cosScheme, "cos-scheme", "", "COS URL scheme override (defaults to https)")

	binName := BinName()
	scanCmd.Example = `  # Scan a local directory
  ` + binName + ` scan ./build/classes

  # Scan a jar, ignoring everything under java. and javax.
  ` + binName + ` scan ./app.jar --blacklist-prefix java. --blacklist-prefix javax.

  # Scan a COS bucket prefix and persist the result
  ` + binName + ` scan cos://builds/latest --cos-bucket my-bucket --cos-region ap-guangzhou \
      --cos-secret-id $COS_SECRET_ID --cos-secret-key $COS_SECRET_KEY --persist --job nightly-001`
}

func runScan(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	uuid := jobUUID
	if uuid == "" {
		uuid = generateJobUUID()
	}

	registry := loader.NewRegistry()
	if needsCOSHandler(args) {
		handler, err := loader.NewCOSHandler(&loader.COSConfig{
			Bucket:    cosBucket,
			Region:    cosRegion,
			SecretID:  cosSecretID,
			SecretKey: cosSecretKey,
			Domain:    cosDomain,
			Scheme:    cosScheme,
		})
		if err != nil {
			return fmt.Errorf("configure cos handler: %w", err)
		}
		registry.Register("cos", handler)
	}

	scanFilter := filter.NewScanFilter()
	for _, p := range blacklistPrefixes {
		scanFilter.AddBlacklistPrefix(p)
	}
	for _, s := range blacklistSuffixes {
		scanFilter.AddBlacklistSuffix(s)
	}
	for _, c := range blacklistContains {
		scanFilter.AddBlacklistContains(c)
	}

	scanner := scan.New(scan.Options{
		Concurrency:            concurrency,
		IncludeNonPublicFields: nonPublicFields,
		Filter:                 scanFilter,
		FieldsWanted:           classfile.FieldsWanted{},
		Logger:                 log,
	}, registry)

	log.Info("scanning %d root(s) as job %s", len(args), uuid)
	start := time.Now()

	g, err := scanner.Scan(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	log.Info("scan completed in %s: %d nodes", time.Since(start), g.Len())

	if persist {
		if err := persistGraph(cmd.Context(), uuid, g); err != nil {
			return fmt.Errorf("persist graph: %w", err)
		}
		log.Info("graph persisted under job %s", uuid)
	}

	result := summarizeGraph(uuid, g)
	return writeScanResult(result)
}

// needsCOSHandler reports whether any root names a "cos://" scheme,
// requiring a configured loader.COSHandler registered under it.
func needsCOSHandler(roots []string) bool {
	for _, r := range roots {
		if len(r) >= 6 && r[:6] == "cos://" {
			return true
		}
	}
	return false
}

func persistGraph(ctx context.Context, uuid string, g *graph.Graph) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gormDB, err := repository.NewGormDB(&repository.DBConfig{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	repos, err := repository.NewRepositories(gormDB)
	if err != nil {
		return fmt.Errorf("initialize repositories: %w", err)
	}

	return repos.Graph.SaveGraph(ctx, uuid, g)
}

// loadConfig reads the config file named by --config, falling back to the
// package default search path when unset.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// summarizeGraph tallies node and edge counts per query category, mirroring
// internal/scanjobs' processor summary so "scan" and the job pipeline report
// identical shapes for the same graph.
func summarizeGraph(jobUUID string, g *graph.Graph) *model.ScanResult {
	result := model.NewScanResult(jobUUID)
	nodes := g.Nodes()
	result.NodeCount = len(nodes)

	for _, c := range []struct {
		name string
		cat  graph.Category
	}{
		{"annotation", graph.CategoryAnnotation},
		{"interface", graph.CategoryInterface},
		{"standard_class", graph.CategoryStandardClass},
	} {
		result.Categories[c.name] = len(graph.Filter(nodes, c.cat, false))
	}

	edgeCount := 0
	for _, n := range nodes {
		edgeCount += len(n.Direct(graph.RelSuperclass))
		edgeCount += len(n.Direct(graph.RelImplementedInterface))
		edgeCount += len(n.Direct(graph.RelAnnotation))
		edgeCount += len(n.Direct(graph.RelFieldType))
	}
	result.EdgeCount = edgeCount

	return result
}

func writeScanResult(result *model.ScanResult) error {
	if outFile == "" {
		fmt.Printf("job:            %s\n", result.JobUUID)
		fmt.Printf("nodes:          %d\n", result.NodeCount)
		fmt.Printf("edges:          %d\n", result.EdgeCount)
		for name, count := range result.Categories {
			fmt.Printf("  %-16s%d\n", name+":", count)
		}
		return nil
	}

	switch outCompress {
	case "", "none":
		return writer.NewPrettyJSONWriter[*model.ScanResult]().WriteToFile(result, outFile)
	case "gzip":
		return writer.NewGzipWriter[*model.ScanResult]().WriteToFile(result, outFile)
	case "zstd":
		w, err := writer.NewZstdWriter[*model.ScanResult](compression.LevelDefault)
		if err != nil {
			return err
		}
		defer w.Close()
		return w.WriteToFile(result, outFile)
	default:
		return fmt.Errorf("unknown --compress value %q (valid: none, gzip, zstd)", outCompress)
	}
}

func generateJobUUID() string {
	return fmt.Sprintf("scan-%d-%d", time.Now().Unix(), os.Getpid())
}
