package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/recipehub/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load reference data from JSON files",
}

func importRunner(load func(service.CatalogService, context.Context, io.Reader) (*service.ImportResult, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := load(a.catalogService(), cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "read %d records, inserted %d\n", res.Read, res.Inserted)
		return nil
	}
}

var importIngredientsCmd = &cobra.Command{
	Use:   "ingredients",
	Short: "Import ingredients: [{\"name\", \"measurement_unit\"}]",
	RunE:  importRunner(service.CatalogService.ImportIngredients),
}

var importTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Import tags: [{\"name\", \"color\", \"slug\"}]",
	RunE:  importRunner(service.CatalogService.ImportTags),
}

func init() {
	for _, c := range []*cobra.Command{importIngredientsCmd, importTagsCmd} {
		c.Flags().StringP("file", "f", "", "path to the JSON file")
		_ = c.MarkFlagRequired("file")
		importCmd.AddCommand(c)
	}
}
