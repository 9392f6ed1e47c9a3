// cmd/tools/template-registry/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"insight-workers/internal/configuration"
	"insight-workers/internal/pricing"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

var registryPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "template-registry",
		Short:         "Inspect analytics templates and dry-run configurations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&registryPath, "registry", "", "Path to a template registry file (built-in catalog when empty)")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newValidateCmd(),
		newQuoteCmd(),
		newCheckCmd(),
	)
	return root
}

func loadRegistry() (*registry.Registry, error) {
	if registryPath == "" {
		return registry.Builtin(), nil
	}
	return registry.LoadRegistry(registryPath)
}

func newListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates, optionally filtered by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			c := registry.Category(category)
			if category != "" && !c.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tPARAMETERS\tNAME")
			for _, t := range reg.List(c) {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.ID, t.Category, len(t.Parameters), t.Name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Gaming, DeFi, Social or IoT")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template-id>",
		Short: "Print a template's parameter schema as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			t, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(t)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <draft.json>",
		Short: "Validate a configuration draft and print its stored form and content id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var draft configuration.Draft
			if err := json.Unmarshal(raw, &draft); err != nil {
				return fmt.Errorf("parse draft: %w", err)
			}

			cfg, err := configuration.NewValidator(reg).Build(draft)
			if err != nil {
				return err
			}
			data, err := configuration.Encode(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "content id: %s\n", storage.ContentID(data))
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
}

func newQuoteCmd() *cobra.Command {
	var (
		share      string
		executions int64
	)
	cmd := &cobra.Command{
		Use:   "quote <price>",
		Short: "Show the revenue split for a price per execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := pricing.ParseAmount(args[0])
			if err != nil {
				return err
			}
			s := pricing.DefaultCreatorShare
			if share != "" {
				if s, err = pricing.ParseAmount(share); err != nil {
					return err
				}
			}
			split, err := pricing.Split(price, s)
			if err != nil {
				return err
			}
			earnings, err := pricing.EstimateEarnings(price, s, executions)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "price:          %s\n", split.Price)
			fmt.Fprintf(out, "creator share:  %s%%\n", split.Share.Mul(decimal.NewFromInt(100)))
			fmt.Fprintf(out, "creator payout: %s\n", split.CreatorPayout)
			fmt.Fprintf(out, "platform fee:   %s\n", split.PlatformFee)
			fmt.Fprintf(out, "%d executions:  %s\n", executions, earnings)
			return nil
		},
	}
	cmd.Flags().StringVar(&share, "share", "", "Creator share in (0,1]")
	cmd.Flags().Int64Var(&executions, "executions", 10, "Executions for the earnings estimate")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <registry-file>",
		Short: "Load a registry file and report schema problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(args[0])
			if err != nil {
				return err
			}
			counts := make([]string, 0, len(registry.Categories))
			for _, c := range registry.Categories {
				counts = append(counts, fmt.Sprintf("%s=%d", c, len(reg.List(c))))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d templates (%s)\n", reg.Len(), strings.Join(counts, ", "))
			return nil
		},
	}
}
