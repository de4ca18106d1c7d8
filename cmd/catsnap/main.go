// Command catsnap inspects, verifies and generates catalog snapshot files.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/catsnap"
	"github.com/arloliu/catsnap/catalog"
	"github.com/arloliu/catsnap/config"
)

// snapT is the container for all catsnap commands and the state they share.
type snapT struct {
	Root    *cobra.Command
	Inspect *cobra.Command
	Verify  *cobra.Command
	Demo    *cobra.Command

	configPath  string
	concurrency int

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newSnapT() *snapT {
	s := &snapT{}

	s.Root = &cobra.Command{
		Use:               "catsnap",
		Short:             "catalog snapshot tools",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.setup,
	}
	s.Inspect = &cobra.Command{
		Use:   "inspect <file>",
		Short: "print the contents of a snapshot",
		Long: `
Print the envelope header, the entity fields and the child records
(tables, columns, partitions or files) of a snapshot file.
`,
		Args: cobra.ExactArgs(1),
		RunE: s.runInspect,
	}
	s.Verify = &cobra.Command{
		Use:   "verify <files>",
		Short: "check snapshot integrity",
		Long: `
Open every snapshot file and decode all of its child records. Files are
checked concurrently; each failure is logged and the command exits with
an error if any file fails.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: s.runVerify,
	}
	s.Demo = &cobra.Command{
		Use:   "demo <dir>",
		Short: "write sample snapshots",
		Long: `
Write a sample namespace, table and partition snapshot into dir, encoded
with the configured hash seed and compression.
`,
		Args: cobra.ExactArgs(1),
		RunE: s.runDemo,
	}

	s.Root.AddCommand(s.Inspect, s.Verify, s.Demo)
	s.Root.PersistentFlags().StringVar(&s.configPath, "config", "", "path to a YAML config file")
	s.Verify.Flags().IntVar(&s.concurrency, "concurrency", 0, "files checked in parallel (0 = GOMAXPROCS)")

	return s
}

func (s *snapT) setup(_ *cobra.Command, _ []string) error {
	var err error
	if s.configPath != "" {
		s.cfg, err = config.LoadConfig(s.configPath)
	} else {
		s.cfg, err = config.Load(nil)
	}
	if err != nil {
		return err
	}

	s.logger, s.closer, err = config.NewLogger(s.cfg.Logging)

	return err
}

func (s *snapT) close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

func (s *snapT) envelopeOptions() ([]catsnap.Option, error) {
	return s.cfg.Codec.EnvelopeOptions()
}

func (s *snapT) encoderOptions() ([]catalog.EncoderOption, error) {
	return s.cfg.Codec.EncoderOptions()
}

func main() {
	s := newSnapT()
	err := s.Root.Execute()
	s.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
