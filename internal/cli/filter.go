package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/lib/utils"
	"github.com/deppfellow/contentfilter/internal/service"
	"github.com/spf13/cobra"
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	Mode      string
	Kind      string
	CheckMode string
	Smileys   string
	JSON      bool
}

// FilterResult is the --json output of the filter command.
type FilterResult struct {
	Mode   string `json:"mode,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Output string `json:"output"`
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "filter [text]",
		Short: "Filter text from stdin without a database",
		Long: `Run one filter pipeline over text and print the result.

The text is read from the argument when given, otherwise from stdin with a
single trailing newline removed. With --kind the value is checked instead
of filtered. Only the filter section of the configuration is read.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", service.PipelineTextareaDisplay,
		"pipeline ("+strings.Join(service.Pipelines, "|")+")")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "check the value as this kind instead of filtering it")
	cmd.Flags().StringVar(&opts.CheckMode, "check-mode", "", "mode passed to the check")
	cmd.Flags().StringVar(&opts.Smileys, "smileys", "", "YAML smiley pack used for smiley replacement")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")

	return cmd
}

func runFilter(rootOpts *RootOptions, opts *FilterOptions, args []string, cmd *cobra.Command) error {
	if opts.Kind == "" && !slices.Contains(service.Pipelines, opts.Mode) {
		return fmt.Errorf("invalid mode %q: must be one of %v", opts.Mode, service.Pipelines)
	}

	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.LoadFilterConfig()
	if err != nil {
		return fmt.Errorf("failed to load filter config: %w", err)
	}

	var smileys filter.SmileySource
	if opts.Smileys != "" {
		pack, err := loadSmileyPack(opts.Smileys)
		if err != nil {
			return err
		}
		smileys = packSource(pack)
	}

	log := cliLogger(rootOpts, nil)
	svc, err := service.NewFilterService(cfg, smileys, nil, &log)
	if err != nil {
		return fmt.Errorf("failed to build filter: %w", err)
	}

	ctx := cmd.Context()
	result := FilterResult{Mode: opts.Mode}
	if opts.Kind != "" {
		result = FilterResult{Kind: opts.Kind}
		result.Output, err = svc.Check(ctx, text, filter.Kind(opts.Kind), filter.CheckOptions{Mode: opts.CheckMode})
	} else {
		result.Output, err = svc.Run(ctx, opts.Mode, text)
	}
	result.Valid = err == nil
	if err != nil {
		result.Error = err.Error()
	}

	if opts.JSON {
		if werr := utils.WriteJSON(cmd.OutOrStdout(), result); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Output)
	return err
}

func readInput(args []string, in io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

// packSource serves a fixed smiley list.
type packSource []filter.Smiley

func (p packSource) Smileys(context.Context) ([]filter.Smiley, error) {
	return p, nil
}

func loadSmileyPack(path string) (packSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read smiley pack: %w", err)
	}

	inputs, err := service.ParseSmileyPack(data)
	if err != nil {
		return nil, err
	}

	list := make(packSource, 0, len(inputs))
	for i, in := range inputs {
		list = append(list, filter.Smiley{
			ID:      int64(i + 1),
			Code:    in.Code,
			URL:     in.URL,
			Emotion: in.Emotion,
			Display: in.Display,
		})
	}
	return list, nil
}
