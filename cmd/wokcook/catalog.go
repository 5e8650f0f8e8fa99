package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/config"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/gpt"
)

func newRecipesCmd() *cobra.Command {
	var (
		search   string
		noHeader bool
	)

	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List the available recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog := openLogger()
			defer closeLog()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			src := loadRecipes(cmd, cfg, log)

			var items []domain.RecipeSummary
			if search != "" {
				items, err = src.Search(cmd.Context(), search)
			} else {
				items, err = src.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			return writeRecipesTable(cmd.OutOrStdout(), items, !noHeader)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&search, "search", "s", "", "only list recipes matching this text")
	flags.BoolVar(&noHeader, "no-header", false, "omit the table header")
	return cmd
}

func writeRecipesTable(w io.Writer, items []domain.RecipeSummary, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"ID", "Title", "Steps", "Minutes"})
	}
	for _, r := range items {
		minutes := "-"
		if r.Minutes > 0 {
			minutes = fmt.Sprint(r.Minutes)
		}
		tw.AppendRow(table.Row{r.ID, r.Title, r.StepCount, minutes})
	}
	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no recipes)", 0, "-"})
	}

	_ = tw.Render()
	return nil
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the client tools offered to the voice agent as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bridge.Tools())
		},
	}
}

func newStructureCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "structure <narration.txt>",
		Short: "Turn a free-form recipe narration into a recipe JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog := openLogger()
			defer closeLog()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Chat.APIKey == "" {
				return errors.New("GPT_CHAT_KEY is not configured")
			}

			narration, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading narration: %w", err)
			}

			client := gpt.NewClient(cfg.Chat.Endpoint, cfg.Chat.APIKey, log.Named("gpt"),
				gpt.WithModel(cfg.Chat.Model),
				gpt.WithJSONResponses(),
			)
			r, err := gpt.NewStructurer(client, log.Named("structure")).
				Structure(cmd.Context(), string(narration))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding recipe: %w", err)
			}
			data = append(data, '\n')

			if strings.TrimSpace(out) == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing recipe: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %q (%d steps) to %s\n", r.Title, len(r.Steps), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the recipe to this file instead of stdout")
	return cmd
}
