package cli

import (
	"context"
	"strings"

	"shoplist-cli/internal/docstore"
	"shoplist-cli/internal/listview"
	"shoplist-cli/internal/model"
	"shoplist-cli/internal/mutate"
	"shoplist-cli/internal/session"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List and change shopping list items",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsToggleCmd(app))
	cmd.AddCommand(newItemsEditCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	return cmd
}

// withItems opens the backend, reads the current items once and hands both to
// fn.
func withItems(cmd *cobra.Command, app *App, fn func(ctx context.Context, coll docstore.Collection, items []model.Item) error) error {
	ctx := cmd.Context()
	be, err := openBackend(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer be.Close()

	snap, err := docstore.First(ctx, be.coll, session.OrderBy)
	if err != nil {
		return writeErr(cmd, err)
	}
	items := make([]model.Item, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		it, err := model.ItemFromFields(d.ID, d.Data)
		if err != nil {
			app.log.Warn("skipping undecodable item", "id", d.ID, "err", err)
			continue
		}
		items = append(items, it)
	}
	return fn(ctx, be.coll, items)
}

func findItem(items []model.Item, id string) (model.Item, error) {
	id = strings.TrimSpace(id)
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return model.Item{}, mutate.NotFoundError{Kind: "item", ID: id}
}

func newItemsListCmd(app *App) *cobra.Command {
	var filter string
	var grouped bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return writeErr(cmd, err)
			}
			return withItems(cmd, app, func(_ context.Context, _ docstore.Collection, items []model.Item) error {
				visible := listview.FilterItems(items, f)
				data := map[string]any{
					"filter": f,
					"counts": listview.CountItems(items),
				}
				if grouped {
					data["groups"] = listview.GroupItems(visible)
				} else {
					data["items"] = visible
				}
				return writeOut(cmd, app, map[string]any{"data": data})
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Which items to show (all|active|done)")
	cmd.Flags().BoolVar(&grouped, "grouped", false, "Group items by category")
	return cmd
}

type draftFlags struct {
	name     string
	qty      string
	category string
	icon     string
}

func (f *draftFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "Item name")
	}
	cmd.Flags().StringVar(&f.qty, "qty", "1", "Quantity (positive whole number)")
	cmd.Flags().StringVar(&f.category, "category", "", "Category (blank: "+model.Uncategorized+")")
	cmd.Flags().StringVar(&f.icon, "icon", "", "Icon (see `shoplist icons`)")
	_ = cmd.RegisterFlagCompletionFunc("icon", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return model.Icons, cobra.ShellCompDirectiveNoFileComp
	})
}

func newItemsAddCmd(app *App) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := mutate.Add(mutate.Draft{
				Name:     strings.Join(args, " "),
				Quantity: f.qty,
				Category: f.category,
				Icon:     f.icon,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			be, err := openBackend(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()

			id, err := mutate.Exec(ctx, be.coll, w)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := model.ItemFromFields(id, w.Fields)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("item added", "id", id)
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	f.register(cmd, false)
	return cmd
}

func newItemsToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip an item between active and purchased",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItems(cmd, app, func(ctx context.Context, coll docstore.Collection, items []model.Item) error {
				it, err := findItem(items, args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				w, err := mutate.Toggle(it.ID, it.Purchased)
				if err != nil {
					return writeErr(cmd, err)
				}
				if _, err := mutate.Exec(ctx, coll, w); err != nil {
					return writeErr(cmd, err)
				}
				it.Purchased = !it.Purchased
				return writeOut(cmd, app, map[string]any{"data": it})
			})
		},
	}
}

func newItemsEditCmd(app *App) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an item's name, quantity, category or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItems(cmd, app, func(ctx context.Context, coll docstore.Collection, items []model.Item) error {
				it, err := findItem(items, args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				d := mutate.DraftFromItem(it)
				flags := cmd.Flags()
				if flags.Changed("name") {
					d.Name = f.name
				}
				if flags.Changed("qty") {
					d.Quantity = f.qty
				}
				if flags.Changed("category") {
					d.Category = f.category
				}
				if flags.Changed("icon") {
					d.Icon = f.icon
				}
				w, merged, err := mutate.Edit(nil, &it, d)
				if err != nil {
					return writeErr(cmd, err)
				}
				if _, err := mutate.Exec(ctx, coll, w); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": merged})
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Long: strings.TrimSpace(`
Delete an item. The deleted item is printed so it can be re-added; undo is
only available in the interactive list.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItems(cmd, app, func(ctx context.Context, coll docstore.Collection, items []model.Item) error {
				it, err := findItem(items, args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				var buf mutate.UndoBuffer
				w, err := mutate.Delete(&buf, it)
				if err != nil {
					return writeErr(cmd, err)
				}
				if _, err := mutate.Exec(ctx, coll, w); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": it}})
			})
		},
	}
}

func newIconsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "icons",
		Short: "List the icons an item can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"icons":    model.Icons,
				"fallback": model.FallbackIcon,
				"count":    len(model.Icons),
			}})
		},
	}
}
