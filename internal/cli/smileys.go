package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/deppfellow/contentfilter/internal/repository"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// SmileysOptions holds flags shared by the smileys subcommands.
type SmileysOptions struct {
	File string
	All  bool
}

// NewSmileysCommand creates the smileys command group.
func NewSmileysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smileys",
		Short: "Manage smiley packs",
	}

	cmd.AddCommand(newSmileysImportCommand(rootOpts))
	cmd.AddCommand(newSmileysExportCommand(rootOpts))

	return cmd
}

func newSmileysImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SmileysOptions{}

	cmd := &cobra.Command{
		Use:   "import --file pack.yaml",
		Short: "Upsert a YAML smiley pack into the database",
		Long: `Upsert every smiley of a YAML pack, keyed by code.

The pack is validated before the database is touched. Cached smiley lists
are invalidated and a refresh job is queued for running servers.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(opts.File)
			if err != nil {
				return fmt.Errorf("failed to read smiley pack: %w", err)
			}
			pack, err := service.ParseSmileyPack(data)
			if err != nil {
				return err
			}

			return withSmileyService(cmd.Context(), rootOpts, func(ctx context.Context, svc *service.SmileyService) error {
				n, err := svc.Import(ctx, pack)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d smileys\n", n)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "path to the YAML smiley pack")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newSmileysExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SmileysOptions{}

	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Print the stored smileys as a YAML pack",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSmileyService(cmd.Context(), rootOpts, func(ctx context.Context, svc *service.SmileyService) error {
				list, err := svc.List(ctx, opts.All)
				if err != nil {
					return err
				}
				out, err := service.MarshalSmileyPack(list)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", true, "include smileys hidden from the picker")

	return cmd
}

// withSmileyService connects to Postgres and Redis, runs fn and closes
// both connections again.
func withSmileyService(ctx context.Context, rootOpts *RootOptions, fn func(context.Context, *service.SmileyService) error) error {
	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := cliLogger(rootOpts, cfg.Observability)
	srv, err := server.New(cfg, &log, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer shutdown(srv, &log)

	repos := repository.NewRepositories(srv)
	svc := service.NewSmileyService(repos.Smiley, repos.SmileyCache, srv.Job, &log)

	return fn(ctx, svc)
}

func shutdown(srv *server.Server, log *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to close connections")
	}
}
