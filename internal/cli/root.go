package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctxhub/ctxhub/internal/config"
	"github.com/ctxhub/ctxhub/internal/logger"
	"github.com/ctxhub/ctxhub/pkg/agenda"
	"github.com/ctxhub/ctxhub/pkg/embedding"
	"github.com/ctxhub/ctxhub/pkg/memory"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ctxhub",
	Short: "ctxhub - hybrid context store for agents",
	Long: `ctxhub is an embedded context store combining full-text and vector
retrieval over a document memory, plus a structured agenda tracker.
Results from both retrieval paths are fused with reciprocal rank fusion.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ctxhub.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// app bundles the configuration and logger shared by all subcommands.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	loader *config.Loader
}

func newApp() (*app, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &app{cfg: cfg, log: lg, loader: loader}, nil
}

func (a *app) close() {
	_ = a.log.Close()
}

func (a *app) openMemory() (*memory.Engine, error) {
	apiKey := a.cfg.Embedding.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	provider := embedding.NewOpenAIProvider(apiKey, a.cfg.Embedding.Model)

	return memory.New(memory.Config{
		DBPath:    a.cfg.MemoryDBPath(),
		Logger:    a.log.GetZerolog(),
		Provider:  provider,
		KRRF:      a.cfg.Memory.KRRF,
		Overfetch: a.cfg.Memory.Overfetch,
	})
}

func (a *app) openAgenda() (*agenda.Engine, error) {
	return agenda.New(agenda.Config{
		DBPath: a.cfg.AgendaDBPath(),
		Logger: a.log.GetZerolog(),
	})
}

// printJSON writes v to stdout as indented JSON. All subcommands emit
// their results this way so output stays machine-readable.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
