package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cli "github.com/blimu-dev/apidocs/internal/cli"
)

func main() {
	var global cli.GlobalParams

	root := &cobra.Command{
		Use:          "apidocs",
		Short:        "Generate and serve API documentation pages from OpenAPI schemas",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", "", "Path to apidocs.yaml config")
	root.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&global.LogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(newSyncCmd(&global))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newServeCmd(&global))
	root.AddCommand(newReferenceCmd(&global))
	root.AddCommand(newNavCmd(&global))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Println(err)
		stop()
		os.Exit(1)
	}
}

func addFallbackFlags(cmd *cobra.Command, fb *cli.FallbackParams) {
	cmd.Flags().StringVar(&fb.ContentDir, "content-dir", "", "Root directory of the content collections")
	cmd.Flags().StringVar(&fb.SchemasDir, "schemas-dir", "", "Directory holding the API schema files")
	cmd.Flags().StringVar(&fb.NavigationFile, "navigation", "", "Menu configuration to take API groups from")
	cmd.Flags().StringVar(&fb.StoreType, "store", "", "Document store (file, memory)")
	cmd.Flags().StringArrayVar(&fb.IncludeTags, "include-tags", nil, "Regex patterns for tags to include")
	cmd.Flags().StringArrayVar(&fb.ExcludeTags, "exclude-tags", nil, "Regex patterns for tags to exclude")
}

func newSyncCmd(global *cli.GlobalParams) *cobra.Command {
	var p cli.RunSyncParams

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create or update the generated endpoint pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Global = *global
			return cli.RunSync(cmd.Context(), p, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&p.Schema, "schema", "", "Sync only the named schema file")
	cmd.Flags().BoolVar(&p.JSON, "json", false, "Print the report as JSON")
	addFallbackFlags(cmd, &p.Fallback)

	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI or Swagger spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "OpenAPI spec file (yaml/json)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newServeCmd(global *cli.GlobalParams) *cobra.Command {
	var p cli.RunServeParams

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Global = *global
			return cli.RunServe(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVar(&p.Addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&p.Dev, "dev", false, "Disable authentication")
	addFallbackFlags(cmd, &p.Fallback)

	return cmd
}

func newReferenceCmd(global *cli.GlobalParams) *cobra.Command {
	var p cli.RunReferenceParams

	cmd := &cobra.Command{
		Use:   "reference <schema-file>[|METHOD:/path]",
		Short: "Print the API reference of a schema file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Global = *global
			p.SchemaFile = args[0]
			return cli.RunReference(p, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&p.SchemasDir, "schemas-dir", "", "Directory holding the API schema files")
	return cmd
}

func newNavCmd(global *cli.GlobalParams) *cobra.Command {
	var navigationFile string

	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Resolve navigation for a page",
	}
	cmd.PersistentFlags().StringVar(&navigationFile, "navigation", "", "Menu configuration file")

	for _, view := range []struct{ name, short string }{
		{"breadcrumbs", "Print the breadcrumb trail of a page"},
		{"pagination", "Print the previous and next pages"},
		{"tab", "Print the tab a page belongs to"},
	} {
		var path string
		sub := &cobra.Command{
			Use:   view.name,
			Short: view.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.RunNav(cli.RunNavParams{
					Global:         *global,
					NavigationFile: navigationFile,
					View:           view.name,
					Path:           path,
				}, cmd.OutOrStdout())
			},
		}
		sub.Flags().StringVar(&path, "path", "", "Page URL, e.g. /docs/setup")
		_ = sub.MarkFlagRequired("path")
		cmd.AddCommand(sub)
	}
	return cmd
}
