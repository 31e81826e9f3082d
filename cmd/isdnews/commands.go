package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"isdnews/internal/domain/entity"
	"isdnews/internal/pkg/secret"
	srcUC "isdnews/internal/usecase/source"
)

// --- collect command ---

func newCollectCmd(e *env) *cobra.Command {
	var (
		team     string
		sourceID int64
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect articles from due sources",
		Long: "Collect runs every active source that is due. --team limits the run to one team, " +
			"--source-id runs a single source and --force ignores the due check for this run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.CollectTimeout)
			defer cancel()

			if sourceID > 0 {
				log, err := e.app.Collect.CollectSource(ctx, sourceID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Source %d: %s, %d new articles in %s\n",
					sourceID, log.Status, log.ArticlesCount, log.ExecutionTime.Round(time.Millisecond))
				if log.ErrorMessage != "" {
					fmt.Fprintf(out, "  %s\n", log.ErrorMessage)
				}
				return nil
			}

			collectFn := e.app.Collect.CollectDue
			if force {
				collectFn = e.app.Collect.CollectActive
			}
			stats, err := collectFn(ctx, team)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Collection complete:")
			fmt.Fprintf(out, "  Sources: %d\n", stats.Sources)
			fmt.Fprintf(out, "  Succeeded: %d\n", stats.Succeeded)
			fmt.Fprintf(out, "  Partial: %d\n", stats.Partial)
			fmt.Fprintf(out, "  Failed: %d\n", stats.Failed)
			fmt.Fprintf(out, "  New articles: %d\n", stats.Created)
			return nil
		},
	}

	cmd.Flags().StringVar(&team, "team", "", "Only collect sources of this team")
	cmd.Flags().Int64Var(&sourceID, "source-id", 0, "Collect a single source by id")
	cmd.Flags().BoolVar(&force, "force", false, "Collect every active source, due or not")
	cmd.MarkFlagsMutuallyExclusive("source-id", "team")
	cmd.MarkFlagsMutuallyExclusive("source-id", "force")
	return cmd
}

// --- enrich command ---

func newEnrichCmd(e *env) *cobra.Command {
	var (
		team   string
		cycles int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Run enrichment cycles",
		Long:  "Enrich runs up to --cycles enrichment cycles, stopping early once no article is waiting.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cycles < 1 {
				return fmt.Errorf("--cycles must be at least 1")
			}

			if cycles == 1 {
				res, err := e.app.Enrich.RunCycle(cmd.Context(), team)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cycle: %s", res.Outcome)
				if res.ArticleID != 0 {
					fmt.Fprintf(out, " (article %d, team %s)", res.ArticleID, res.TeamCode)
				}
				fmt.Fprintln(out)
				return nil
			}

			enriched, err := e.app.Enrich.Drain(cmd.Context(), team, cycles)
			fmt.Fprintf(out, "Enriched articles: %d\n", enriched)
			return err
		},
	}

	cmd.Flags().StringVar(&team, "team", "", "Only enrich articles for this team")
	cmd.Flags().IntVar(&cycles, "cycles", 1, "Maximum number of cycles")
	return cmd
}

// --- migrate command ---

// newMigrateCmd has nothing left to do by the time it runs: the root
// pre-run applies the schema for every command.
func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed default teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", e.dialect)
			return nil
		},
	}
}

// --- import-sources command ---

func newImportSourcesCmd(e *env) *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "import-sources <file>",
		Short: "Import sources from a JSON or YAML file",
		Long: "Import-sources registers every source in the file, keyed by name. Existing sources " +
			"are skipped unless --update is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			defs, err := srcUC.ParseFile(data)
			if err != nil {
				return err
			}

			svc := &srcUC.Service{Repo: e.app.Repos.Sources}
			res, err := svc.Import(cmd.Context(), defs, update)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if update {
				fmt.Fprintf(out, "Imported %d new sources and updated %d existing sources\n", res.Created, res.Updated)
			} else {
				fmt.Fprintf(out, "Imported %d sources, skipped %d existing\n", res.Created, res.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "Overwrite sources that already exist")
	return cmd
}

// --- config command ---

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration store",
	}

	var team string
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value, optionally for one team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			value := strings.TrimSpace(args[1])
			if err := entity.ValidateConfigValue(key, value); err != nil {
				return err
			}
			if team != "" {
				t, err := e.app.Repos.Teams.Get(cmd.Context(), team)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("unknown team %q", team)
				}
			}

			if err := e.app.Repos.Configs.Upsert(cmd.Context(), &entity.SystemConfig{
				Key:      key,
				TeamCode: team,
				Value:    value,
				Active:   true,
			}); err != nil {
				return fmt.Errorf("save %s: %w", key, err)
			}
			e.app.Config.Invalidate(key, team)

			scope := "global"
			if team != "" {
				scope = "team " + team
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s (%s) = %s\n", key, scope, secret.Mask(value))
			return nil
		},
	}
	set.Flags().StringVar(&team, "team", "", "Team the value applies to (empty for global)")

	cmd.AddCommand(set)
	return cmd
}
