package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmaher/corkboard/internal/item"
	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/placement"
	"github.com/spf13/cobra"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Item management commands",
	}

	cmd.AddCommand(newItemCreateCmd())
	cmd.AddCommand(newItemListCmd())
	cmd.AddCommand(newItemShowCmd())
	cmd.AddCommand(newItemMoveCmd())
	cmd.AddCommand(newItemConvertCmd())
	return cmd
}

func newItemCreateCmd() *cobra.Command {
	var (
		configPath  string
		columnID    uint
		kind        string
		title       string
		description string
		assignee    string
		actorName   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item at the end of a column",
		Long:  "Quick-adds an item. Task items default to todo/P3, ideas to a 3/3/3 ICE score.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Placement.MoveTimeout())
			defer cancel()

			it, res, err := item.Create(ctx, gormDB, item.CreateOpts{
				Actor:       actorName,
				ColumnID:    columnID,
				Kind:        kind,
				Title:       title,
				Description: description,
				Assignee:    assignee,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created item %d at position %d (%d in column)\n",
				it.ID, res.Position, res.Count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().UintVar(&columnID, "column", 0, "column ID (required)")
	cmd.Flags().StringVar(&kind, "kind", "task", "item kind (task, idea, epic)")
	cmd.Flags().StringVar(&title, "title", "", "item title (required)")
	cmd.Flags().StringVar(&description, "description", "", "detailed description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&actorName, "actor", "cli", "actor recorded in the activity log")
	cmd.MarkFlagRequired("column")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newItemListCmd() *cobra.Command {
	var (
		configPath string
		boardID    uint
		columnID   uint
		kind       string
		status     string
		assignee   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Long:  "Lists items with optional filters, ordered by column and position.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			items, err := item.List(gormDB, item.ListFilters{
				BoardID:  boardID,
				ColumnID: columnID,
				Kind:     kind,
				Status:   status,
				Assignee: assignee,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No items found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tKIND\tCOL\tPOS\tSTATUS\tSCORE\tASSIGNEE")
			for _, it := range items {
				st := it.Status
				if st == "" {
					st = "-"
				}
				a := it.Assignee
				if a == "" {
					a = "-"
				}
				score := "-"
				if it.Kind != models.ItemKindTask {
					score = strconv.Itoa(it.Score)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
					it.ID, truncate(it.Title, 40), it.Kind, it.ColumnID, it.Position, st, score, a)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().UintVar(&boardID, "board", 0, "filter by board")
	cmd.Flags().UintVar(&columnID, "column", 0, "filter by column")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	return cmd
}

func newItemShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show item details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			it, err := item.Get(gormDB, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %d\n", it.ID)
			fmt.Fprintf(out, "Title:     %s\n", it.Title)
			fmt.Fprintf(out, "Kind:      %s\n", it.Kind)
			fmt.Fprintf(out, "Column:    %d (position %d)\n", it.ColumnID, it.Position)
			if it.Status != "" {
				fmt.Fprintf(out, "Status:    %s\n", it.Status)
			}
			if it.Priority != nil {
				fmt.Fprintf(out, "Priority:  P%d\n", *it.Priority)
			}
			if it.Assignee != "" {
				fmt.Fprintf(out, "Assignee:  %s\n", it.Assignee)
			}
			if it.Impact != nil && it.Confidence != nil && it.Ease != nil {
				fmt.Fprintf(out, "ICE:       %d/%d/%d (score %d)\n",
					*it.Impact, *it.Confidence, *it.Ease, it.Score)
			}
			fmt.Fprintf(out, "Created:   %s by %s\n",
				it.CreatedAt.Format("2006-01-02 15:04:05"), it.CreatedBy)
			if it.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", it.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	return cmd
}

func newItemMoveCmd() *cobra.Command {
	var (
		configPath string
		columnID   uint
		index      int
		actorName  string
	)

	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Move an item to a column position",
		Long:  "Places the item at the given index of the target column. Out-of-range indexes clamp to the nearest end.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Placement.MoveTimeout())
			defer cancel()

			res, err := placement.Move(ctx, gormDB, placement.MoveRequest{
				Actor:          actorName,
				ItemID:         id,
				TargetColumnID: columnID,
				TargetIndex:    index,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.FromColumnID == res.ToColumnID {
				fmt.Fprintf(out, "Reordered item %d in column %d (position %d)\n",
					res.ItemID, res.ToColumnID, res.Position)
			} else {
				fmt.Fprintf(out, "Moved item %d from column %d to column %d (position %d)\n",
					res.ItemID, res.FromColumnID, res.ToColumnID, res.Position)
			}
			if res.Rebalanced > 0 {
				fmt.Fprintln(out, "Column was rebalanced during the move.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().UintVar(&columnID, "column", 0, "target column ID (required)")
	cmd.Flags().IntVar(&index, "index", 0, "target index within the column")
	cmd.Flags().StringVar(&actorName, "actor", "cli", "actor recorded in the activity log")
	cmd.MarkFlagRequired("column")
	return cmd
}

func newItemConvertCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "convert <item-id>",
		Short: "Convert an item between task and idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			it, err := item.Convert(gormDB, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d is now a %s\n", it.ID, it.Kind)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	return cmd
}

// parseID parses a decimal ID argument.
func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint(v), err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
