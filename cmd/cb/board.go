package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmaher/corkboard/internal/board"
	"github.com/spf13/cobra"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Board and column management commands",
	}

	cmd.AddCommand(newBoardCreateCmd())
	cmd.AddCommand(newBoardListCmd())
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardColumnCmd())
	cmd.AddCommand(newBoardDefaultCmd())
	return cmd
}

func newBoardCreateCmd() *cobra.Command {
	var (
		configPath string
		projectID  uint
		name       string
		kind       string
		isDefault  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new board",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			b, err := board.CreateBoard(gormDB, board.CreateBoardOpts{
				ProjectID: projectID,
				Name:      name,
				Kind:      kind,
				IsDefault: isDefault,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %d (%s, %s)\n", b.ID, b.Name, b.Kind)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "project ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "board name (required)")
	cmd.Flags().StringVar(&kind, "kind", "task", "board kind (task, roadmap)")
	cmd.Flags().BoolVar(&isDefault, "default", false, "make this the project's default board of its kind")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newBoardListCmd() *cobra.Command {
	var (
		configPath string
		projectID  uint
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			boards, err := board.List(gormDB, projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(boards) == 0 {
				fmt.Fprintln(out, "No boards found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tDEFAULT")
			for _, b := range boards {
				def := "-"
				if b.IsDefault {
					def = "yes"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, truncate(b.Name, 40), b.Kind, def)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "project ID (required)")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newBoardShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board with its columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid board id %q", args[0])
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			b, err := board.Get(gormDB, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Board:   %s (%s)\n", b.Name, b.Kind)
			fmt.Fprintf(out, "Project: %d\n", b.ProjectID)
			if b.IsDefault {
				fmt.Fprintln(out, "Default: yes")
			}
			if len(b.Columns) == 0 {
				fmt.Fprintln(out, "\nNo columns.")
				return nil
			}

			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOLUMN\tWIP")
			for _, col := range b.Columns {
				wip := "-"
				if col.WIPLimit != nil {
					wip = strconv.Itoa(*col.WIPLimit)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", col.ID, col.Name, wip)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	return cmd
}

func newBoardColumnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage board columns",
	}

	cmd.AddCommand(newColumnAddCmd())
	cmd.AddCommand(newColumnWIPCmd())
	return cmd
}

func newColumnAddCmd() *cobra.Command {
	var (
		configPath string
		boardID    uint
		name       string
		wipLimit   int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a column to a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			opts := board.CreateColumnOpts{BoardID: boardID, Name: name}
			if cmd.Flags().Changed("wip") {
				opts.WIPLimit = &wipLimit
			}
			col, err := board.CreateColumn(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created column %d (%s)\n", col.ID, col.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().UintVar(&boardID, "board", 0, "board ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "column name (required)")
	cmd.Flags().IntVar(&wipLimit, "wip", 0, "WIP limit (omit for unlimited)")
	cmd.MarkFlagRequired("board")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newColumnWIPCmd() *cobra.Command {
	var (
		configPath string
		wipLimit   int
		clear      bool
	)

	cmd := &cobra.Command{
		Use:   "wip <column-id>",
		Short: "Set or clear a column's WIP limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid column id %q", args[0])
			}
			if !clear && !cmd.Flags().Changed("limit") {
				return fmt.Errorf("use --limit N or --clear")
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var limit *int
			if !clear {
				limit = &wipLimit
			}
			if err := board.SetWIPLimit(gormDB, id, limit); err != nil {
				return err
			}
			if limit == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Column %d WIP limit cleared\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Column %d WIP limit set to %d\n", id, *limit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	cmd.Flags().IntVar(&wipLimit, "limit", 0, "WIP limit")
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the WIP limit")
	return cmd
}

func newBoardDefaultCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "default <board-id>",
		Short: "Make a board its project's default of its kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid board id %q", args[0])
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			b, err := board.MakeDefault(gormDB, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board %d is now the default %s board\n", b.ID, b.Kind)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "corkboard.yaml", "path to Corkboard config file")
	return cmd
}
