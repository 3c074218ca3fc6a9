// Package assets implements the command-line interface for inspecting
// stored assets. This file contains the list command that displays the
// stored catalog in a formatted table.
package assets

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jonesrussell/gocatalog/cmd/common"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/spf13/cobra"
)

// titleColumnWidth caps the title column so long asset names wrap.
const titleColumnWidth = 40

// Command returns the assets command group.
func Command(deps func() (*common.Deps, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect the stored asset catalog",
	}
	cmd.AddCommand(listCommand(deps))

	return cmd
}

func listCommand(deps func() (*common.Deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored assets, most starred first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := deps()
			if err != nil {
				return err
			}
			defer func() { _ = d.Logger.Sync() }()

			return run(cmd.Context(), d)
		},
	}
}

func run(ctx context.Context, deps *common.Deps) error {
	db, err := common.OpenDatabase(ctx, deps)
	if err != nil {
		return err
	}
	defer db.Close()

	assets, err := database.NewAssetRepository(db).List(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}

	if len(assets) == 0 {
		deps.Logger.Info("No assets stored yet")
		return nil
	}

	renderTable(assets)

	return nil
}

func renderTable(assets []models.Asset) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleColumnWidth},
		{Name: "Stars", Align: text.AlignRight},
	})

	t.AppendHeader(table.Row{"Title", "Author", "Category", "Version", "Stars", "Support", "Favorite"})

	for i := range assets {
		asset := &assets[i]

		favorite := ""
		if asset.Favorite {
			favorite = "*"
		}

		t.AppendRow(table.Row{
			asset.Title,
			asset.Author,
			asset.Category,
			asset.Version,
			asset.Stars,
			asset.SupportLevel,
			favorite,
		})
	}

	t.Render()
}
