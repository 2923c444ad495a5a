package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidemarkdb/tidemark/catalog"
	"github.com/tidemarkdb/tidemark/metrics"
	"github.com/tidemarkdb/tidemark/replay"
	"github.com/tidemarkdb/tidemark/utils"
	"github.com/tidemarkdb/tidemark/utils/log"
	"github.com/tidemarkdb/tidemark/wal"
)

const defaultConfigFilePath = "./tidemark.yml"

var replayCmd = &cobra.Command{
	Use:     "replay [segment files...]",
	Short:   "Replay commit log segments into the table stores",
	Long:    "This command re-applies every non-durable mutation from the commit log segments left over from the previous run",
	Example: "tidemark replay --config tidemark.yml",
	RunE:    executeReplay,
}

// configFilePath set flag for a path to the config file.
var configFilePath string

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	replayCmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath,
		"set the path for the tidemark YAML configuration file")
}

func executeReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	config, err := utils.ParseConfig(data)
	if err != nil {
		return fmt.Errorf("failed to parse configuration file: %w", err)
	}
	log.SetLevel(log.LevelFromString(config.LogLevel))

	// Don't output command usage from here on; the arguments parsed.
	cmd.SilenceUsage = true
	log.Info("using %v for configuration", configFilePath)

	start := time.Now()

	cat, err := catalog.Load(config.RootDirectory, config.Shards)
	if err != nil {
		return fmt.Errorf("failed to load table catalog: %w", err)
	}

	files := args
	if len(files) == 0 {
		files, err = wal.NewFinder(os.ReadDir).Find(config.WALDirectory)
		if err != nil {
			return fmt.Errorf("failed to scan %s for segments: %w", config.WALDirectory, err)
		}
	}
	if len(files) == 0 {
		log.Info("no commit log segments to replay")
		return nil
	}

	r, err := replay.NewReplayer(replay.WrapCatalog(cat),
		replay.WithDispatchWindow(config.DispatchWindow))
	if err != nil {
		return err
	}
	stats, err := r.Recover(files)
	metrics.RecordStats(stats)
	metrics.StartupTime.Set(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	log.Info("replay finished in %s: %s", time.Since(start), stats)
	return nil
}
