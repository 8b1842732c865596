package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/internal/catalog"
)

var (
	convertInPath  string
	convertOutPath string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Rewrite a catalog between binary and readable forms",
	Long: `Rewrite a template catalog between its binary and human-readable
forms. Formats are chosen by extension: .json is the readable JSON form,
anything else the binary form. Both carry the same records, so the
conversion is lossless in either direction.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertInPath, "in", "", "Source catalog path")
	convertCmd.Flags().StringVar(&convertOutPath, "out", "", "Destination catalog path")
	_ = convertCmd.MarkFlagRequired("in")
	_ = convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadMatcherConfig()
	if err != nil {
		return err
	}

	reg, err := catalog.LoadCatalogFile(convertInPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if strings.EqualFold(filepath.Ext(convertOutPath), ".json") {
		err = catalog.SaveReadable(convertOutPath, reg)
	} else {
		err = catalog.SaveBinary(convertOutPath, reg)
	}
	if err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	fmt.Printf("converted %d templates: %s -> %s\n", reg.Snapshot().Len(), convertInPath, convertOutPath)
	return nil
}
