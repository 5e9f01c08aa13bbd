package main

import (
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:     "courses",
	Aliases: []string{"course"},
	Short:   "List and inspect courses",
	GroupID: "data",
}

var courseColumns = []string{"_id", "title", "weeks", "tuition", "minimumSkill", "bootcamp"}

var coursesListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List courses with filters, projection, sort and paging",
	Example: `  devcamper courses list --where "tuition[lt]=10000" --where minimumSkill=beginner`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := listQueryFromFlags(cmd)
		resp, err := apiClient.ListCourses(cmd.Context(), q)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		}
		return printList(cmd.OutOrStdout(), resp, tableColumns(q, courseColumns), "courses")
	},
}

var coursesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient.GetCourse(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), c)
			return nil
		}
		printCourse(cmd.OutOrStdout(), c)
		return nil
	},
}

func init() {
	addListFlags(coursesListCmd)
	coursesCmd.AddCommand(coursesListCmd, coursesShowCmd)
}
