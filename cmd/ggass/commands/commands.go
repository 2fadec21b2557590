package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/ass"
	"github.com/gogpu/ggass/config"
)

var (
	// Access these variables only from a main package:

	Root = &cobra.Command{
		Use:           "ggass",
		Short:         "ASS/SSA subtitle renderer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, err := cfg.Log.SlogLevel()
			if err != nil {
				return err
			}
			ggass.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			ggass.Logger().Debug("log level", "level", level)
			cfgLoaded = cfg
			return nil
		},
	}

	Serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service and the discovery responder",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}

	Render = &cobra.Command{
		Use:   "render <track.ass>",
		Short: "Render one frame of a subtitle track",
		Args:  cobra.ExactArgs(1),
		RunE:  render,
	}

	Probe = &cobra.Command{
		Use:   "probe",
		Short: "Check that an engine can be created",
		Args:  cobra.NoArgs,
		RunE:  probe,
	}

	GenerateConfig = &cobra.Command{
		Use:   "generate-config",
		Short: "Print the default configuration",
		Args:  cobra.NoArgs,
		RunE:  generateConfig,
	}

	cfgLoaded config.Config
)

func init() {
	Root.PersistentFlags().String("config", "", "path to a YAML config file")
	Root.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides the config)")
	Root.PersistentFlags().String("backend", "", "rasterizer backend (overrides the config)")

	Serve.Flags().String("addr", "", "HTTP listen address (overrides the config)")
	Serve.Flags().String("discovery-addr", "", "UDP discovery address (overrides the config)")

	Render.Flags().String("time", "0", "timestamp in milliseconds or H:MM:SS.cc")
	Render.Flags().Int("width", 0, "frame width (default from the config)")
	Render.Flags().Int("height", 0, "frame height (default from the config)")
	Render.Flags().StringP("out", "o", "", "output image, .webp or .png")
	Render.Flags().Bool("sprites", false, "print the sprite table instead of an image")

	Root.AddCommand(Serve)
	Root.AddCommand(Render)
	Root.AddCommand(Probe)
	Root.AddCommand(GenerateConfig)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Render.Backend = v
	}
	return cfg, cfg.Validate()
}

// parseTimestamp accepts plain milliseconds or an ASS timestamp.
func parseTimestamp(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	ms, err := ass.ParseTime(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ms, nil
}

func generateConfig(cmd *cobra.Command, _ []string) error {
	_, err := config.Default().WriteTo(cmd.OutOrStdout())
	return err
}

func probe(cmd *cobra.Command, _ []string) error {
	e, err := ggass.Create(cfgLoaded.EngineOptions()...)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "ggass FAIL: %v\n", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ggass OK (backend %s)\n", e.Backend())
	e.Destroy()
	return nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to close '%s': %w", path, cerr)
		}
	}()
	return write(f)
}
