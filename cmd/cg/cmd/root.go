package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/classgraph/classgraph/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger utils.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "cg",
	Short: "A JVM classfile scanner and Class Graph query tool",
	Long: `cg scans JVM classfiles from a directory, zip/jar archive, or object
store bucket into a Class Graph: one node per class, linked by superclass,
interface, annotation, and field-type relations. It can persist the graph
to a database and query it back.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults to ./config.yaml)")

	binName := BinName()
	rootCmd.Example = `  # Scan a directory of classfiles and print a summary
  ` + binName + ` scan ./build/classes

  # Scan a jar and persist the resulting graph under a job UUID
  ` + binName + ` scan ./app.jar --job my-scan-001 --persist

  # Query the direct superclass of a previously persisted class
  ` + binName + ` query --job my-scan-001 --class com.example.Widget --relation superclass

  # List every annotation-category node in a persisted graph
  ` + binName + ` query --job my-scan-001 --category annotation`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
