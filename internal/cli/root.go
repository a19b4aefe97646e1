package cli

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"medlab/catalog/internal/config"
	"medlab/catalog/internal/container"
)

type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCommand builds the medlab command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "medlab",
		Short:         "Browse the MedLab product catalogue and manage a quote request list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := configureLogging(cmd, cfg.Log); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./config.yaml or $HOME/.medlab/config.yaml)")
	flags.String("log-level", "info", "log level")
	flags.String("catalog-source", "embedded", "catalogue source: embedded, file, http, html or postgres")
	flags.String("catalog-path", "", "dataset file for the file source")
	flags.String("quote-store", "file", "quote store: memory, file or redis")
	flags.String("data-dir", "", "directory of the file quote store")

	root.AddCommand(
		a.productsCommand(),
		a.categoriesCommand(),
		a.categoryCommand(),
		a.quoteCommand(),
		a.importCommand(),
		a.checkCommand(),
	)

	return root
}

func configureLogging(cmd *cobra.Command, cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(cmd.ErrOrStderr())

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// withContainer builds the container, loads catalogue and quote, runs fn and cleans up.
func (a *app) withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *container.Container) error) error {
	return a.container(cmd, true, fn)
}

// withServices is withContainer without loading, for commands that read the source themselves.
func (a *app) withServices(cmd *cobra.Command, fn func(ctx context.Context, c *container.Container) error) error {
	return a.container(cmd, false, fn)
}

func (a *app) container(cmd *cobra.Command, load bool, fn func(ctx context.Context, c *container.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := container.New(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer c.Close()

	if load {
		if err := c.Run(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, c)
}
