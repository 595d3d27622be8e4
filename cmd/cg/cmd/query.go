package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/repository"
	"github.com/classgraph/classgraph/pkg/compression"
	"github.com/classgraph/classgraph/pkg/writer"
)

var (
	queryJob              string
	queryClass            string
	queryRelation         string
	queryReachable        bool
	queryCategory         string
	queryIncludeExternals bool
	queryTo               string
)

// queryCmd represents the query command.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a previously persisted Class Graph",
	Long: `query loads a Class Graph saved by "scan --persist" and runs one of the
query surfaces against it:

  --class NAME --relation KIND            direct edges of that kind
  --class NAME --relation KIND --reachable transitive closure of that kind
  --class NAME --relation KIND --to NAME  one path between the two classes
  --category NAME                         every node in that query category

Relation kinds: superclass, subclass, implemented_interface,
implementing_class, annotation, annotated_class, field_type.

Category names: any, annotation, interface, standard_class.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryJob, "job", "", "Job UUID the graph was persisted under (required)")
	queryCmd.Flags().StringVar(&queryClass, "class", "", "Dotted class name to query edges for")
	queryCmd.Flags().StringVar(&queryRelation, "relation", "", "Relation kind to follow from --class")
	queryCmd.Flags().BoolVar(&queryReachable, "reachable", false, "Follow --relation transitively instead of one hop")
	queryCmd.Flags().StringVar(&queryTo, "to", "", "With --class and --relation, report one path to this class instead of every edge")
	queryCmd.Flags().StringVar(&queryCategory, "category", "", "List every node in this query category")
	queryCmd.Flags().BoolVar(&queryIncludeExternals, "include-externals", false, "Include nodes only ever referenced, never scanned")
	queryCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write matching node names as JSON to this file instead of stdout")
	queryCmd.Flags().StringVar(&outCompress, "compress", "none", "Compress --out as \"none\", \"gzip\", or \"zstd\"")
	queryCmd.MarkFlagRequired("job")

	binName := BinName()
	queryCmd.Example = `  # Direct superclass of a class
  ` + binName + ` query --job nightly-001 --class com.example.Widget --relation superclass

  # Every class transitively reachable via superclass edges
  ` + binName + ` query --job nightly-001 --class com.example.Widget --relation superclass --reachable

  # Every annotation-category node, including external (unscanned) ones
  ` + binName + ` query --job nightly-001 --category annotation --include-externals`
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	g, err := repos.Graph.LoadGraph(cmd.Context(), queryJob)
	if err != nil {
		return fmt.Errorf("load graph for job %s: %w", queryJob, err)
	}

	var names []string
	switch {
	case queryClass != "" && queryTo != "":
		names, err = queryPath(g)
	case queryClass != "":
		names, err = queryByClass(g)
	case queryCategory != "":
		names, err = queryByCategory(g)
	default:
		err = fmt.Errorf("one of --class or --category is required")
	}
	if err != nil {
		return err
	}

	return writeNames(names)
}

func queryByClass(g *graph.Graph) ([]string, error) {
	node, ok := g.GetNode(queryClass)
	if !ok {
		return nil, fmt.Errorf("class %s not found in job %s", queryClass, queryJob)
	}

	relation, err := parseRelation(queryRelation)
	if err != nil {
		return nil, err
	}

	var nodes []*graph.Node
	if queryReachable {
		nodes = graph.Reachable(node, relation)
	} else {
		nodes = graph.Direct(node, relation)
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names, nil
}

// queryPath reports one path of --relation edges from --class to --to, the
// same depth-first search a cyclic-inheritance diagnostic would run, as
// opposed to queryByClass's full edge set.
func queryPath(g *graph.Graph) ([]string, error) {
	from, ok := g.GetNode(queryClass)
	if !ok {
		return nil, fmt.Errorf("class %s not found in job %s", queryClass, queryJob)
	}
	to, ok := g.GetNode(queryTo)
	if !ok {
		return nil, fmt.Errorf("class %s not found in job %s", queryTo, queryJob)
	}

	relation, err := parseRelation(queryRelation)
	if err != nil {
		return nil, err
	}

	path := graph.Path(from, to, relation)
	if path == nil {
		return nil, fmt.Errorf("no %s path from %s to %s in job %s", queryRelation, queryClass, queryTo, queryJob)
	}

	names := make([]string, len(path))
	for i, n := range path {
		names[i] = n.Name
	}
	return names, nil
}

func queryByCategory(g *graph.Graph) ([]string, error) {
	category, err := parseCategory(queryCategory)
	if err != nil {
		return nil, err
	}

	nodes := graph.Filter(g.Nodes(), category, queryIncludeExternals)
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names, nil
}

func parseRelation(s string) (graph.RelationKind, error) {
	switch strings.ToLower(s) {
	case "superclass":
		return graph.RelSuperclass, nil
	case "subclass":
		return graph.RelSubclass, nil
	case "implemented_interface":
		return graph.RelImplementedInterface, nil
	case "implementing_class":
		return graph.RelImplementingClass, nil
	case "annotation":
		return graph.RelAnnotation, nil
	case "annotated_class":
		return graph.RelAnnotatedClass, nil
	case "field_type":
		return graph.RelFieldType, nil
	default:
		return 0, fmt.Errorf("unknown relation %q (valid: superclass, subclass, implemented_interface, "+
			"implementing_class, annotation, annotated_class, field_type)", s)
	}
}

func parseCategory(s string) (graph.Category, error) {
	switch strings.ToLower(s) {
	case "any":
		return graph.CategoryAny, nil
	case "annotation":
		return graph.CategoryAnnotation, nil
	case "interface":
		return graph.CategoryInterface, nil
	case "standard_class":
		return graph.CategoryStandardClass, nil
	default:
		return 0, fmt.Errorf("unknown category %q (valid: any, annotation, interface, standard_class)", s)
	}
}

func writeNames(names []string) error {
	if outFile == "" {
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	switch outCompress {
	case "", "none":
		return writer.NewPrettyJSONWriter[[]string]().WriteToFile(names, outFile)
	case "gzip":
		return writer.NewGzipWriter[[]string]().WriteToFile(names, outFile)
	case "zstd":
		w, err := writer.NewZstdWriter[[]string](compression.LevelDefault)
		if err != nil {
			return err
		}
		defer w.Close()
		return w.WriteToFile(names, outFile)
	default:
		return fmt.Errorf("unknown --compress value %q (valid: none, gzip, zstd)", outCompress)
	}
}
