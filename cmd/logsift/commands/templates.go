package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/internal/catalog"
	"github.com/logsift/logsift/internal/fragment"
)

var (
	templatesCatalogPath string
	templatesVerbose     bool
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the templates in a catalog",
	Long: `List the templates in a catalog with fragment diagnostics: how many
literal fragments each pattern decomposes into under the configured
minimum fragment length. Templates with zero fragments are flagged - the
coverage stage can never promote them.`,
	RunE: runTemplates,
}

func init() {
	templatesCmd.Flags().StringVar(&templatesCatalogPath, "catalog", "", "Path to the template catalog")
	templatesCmd.Flags().BoolVar(&templatesVerbose, "verbose", false,
		"Also print variables, example, and extracted fragments")
	_ = templatesCmd.MarkFlagRequired("catalog")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := loadMatcherConfig()
	if err != nil {
		return err
	}

	reg, err := catalog.LoadCatalogFile(templatesCatalogPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	templates := reg.AllTemplates()
	for _, t := range templates {
		frags := fragment.Extract(t.Pattern, cfg.MinFragmentLength)
		flag := ""
		if len(frags) == 0 {
			flag = " [no fragments]"
		}
		fmt.Printf("%d\t%d fragments%s\t%s\n", t.TemplateID, len(frags), flag, t.Pattern)
		if templatesVerbose {
			if len(t.Variables) > 0 {
				fmt.Printf("\tvariables: %s\n", strings.Join(t.Variables, ", "))
			}
			if t.Example != "" {
				fmt.Printf("\texample: %s\n", t.Example)
			}
			for _, f := range frags {
				fmt.Printf("\tfragment: %q\n", f)
			}
		}
	}

	fmt.Printf("\n%d templates, %d invalid\n", len(templates), reg.InvalidTemplates())
	return nil
}
