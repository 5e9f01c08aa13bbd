package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devcamper/internal/ui"
)

var bootcampsCmd = &cobra.Command{
	Use:     "bootcamps",
	Aliases: []string{"bootcamp", "bc"},
	Short:   "List and inspect bootcamps",
	GroupID: "data",
}

var bootcampColumns = []string{"_id", "name", "averageCost", "averageRating", "careers"}

var bootcampsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bootcamps with filters, projection, sort and paging",
	Example: `  devcamper bootcamps list --where "averageCost[lte]=10000" --sort -averageCost
  devcamper bootcamps list -w careers=Business -w housing=true --select name,careers --limit 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := listQueryFromFlags(cmd)
		resp, err := apiClient.ListBootcamps(cmd.Context(), q)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		}
		return printList(cmd.OutOrStdout(), resp, tableColumns(q, bootcampColumns), "bootcamps")
	},
}

var bootcampsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a bootcamp and its courses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := apiClient.GetBootcamp(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		courses, err := apiClient.ListBootcampCourses(cmd.Context(), b.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			printJSON(out, map[string]any{"bootcamp": b, "courses": courses})
			return nil
		}
		printBootcamp(out, b)
		if len(courses) > 0 {
			fmt.Fprintf(out, "\n%s\n", ui.RenderAccent(fmt.Sprintf("Courses (%d):", len(courses))))
			for _, c := range courses {
				fmt.Fprintf(out, "  %s  %s\n", ui.RenderMuted(c.ID), c.Title)
			}
		}
		return nil
	},
}

var bootcampsNearCmd = &cobra.Command{
	Use:   "near <zipcode> <miles>",
	Short: "List bootcamps within a distance of a zipcode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		miles, err := strconv.ParseFloat(args[1], 64)
		if err != nil || miles <= 0 {
			return fmt.Errorf("miles must be a positive number, got %q", args[1])
		}
		bootcamps, err := apiClient.BootcampsInRadius(cmd.Context(), args[0], miles)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			printJSON(out, bootcamps)
			return nil
		}
		for _, b := range bootcamps {
			city := ""
			if b.Location != nil {
				city = b.Location.City
			}
			fmt.Fprintf(out, "%s  %s  %s\n", ui.RenderAccent(b.ID), b.Name, ui.RenderMuted(city))
		}
		fmt.Fprintln(out, ui.RenderMuted(fmt.Sprintf("\n%d bootcamps within %s miles of %s", len(bootcamps), args[1], args[0])))
		return nil
	},
}

var bootcampsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a bootcamp and all of its courses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.DeleteBootcamp(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted bootcamp %s\n", args[0])
		return nil
	},
}

func init() {
	addListFlags(bootcampsListCmd)
	bootcampsCmd.AddCommand(bootcampsListCmd, bootcampsShowCmd, bootcampsNearCmd, bootcampsDeleteCmd)
}
