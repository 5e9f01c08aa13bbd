package main

import (
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devcamper/internal/client"
)

// addListFlags registers the query-builder flags shared by list commands.
func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("select", nil, "fields to return (comma separated)")
	cmd.Flags().StringSlice("sort", nil, "sort fields, prefix with - for descending (default -createdAt)")
	cmd.Flags().Int("page", 0, "page number (default 1)")
	cmd.Flags().Int("limit", 0, "page size (server default when 0)")
	cmd.Flags().StringArrayP("where", "w", nil, "filter as field=value or field[gt|gte|lt|lte|in]=value (repeatable)")
}

func listQueryFromFlags(cmd *cobra.Command) *client.ListQuery {
	q := &client.ListQuery{}
	q.Select, _ = cmd.Flags().GetStringSlice("select")
	q.Sort, _ = cmd.Flags().GetStringSlice("sort")
	q.Page, _ = cmd.Flags().GetInt("page")
	q.Limit, _ = cmd.Flags().GetInt("limit")
	q.Where, _ = cmd.Flags().GetStringArray("where")
	return q
}

// tableColumns returns the selected fields, or defaults when none were
// selected.
func tableColumns(q *client.ListQuery, defaults []string) []string {
	if len(q.Select) == 0 {
		return defaults
	}
	cols := []string{"_id"}
	for _, f := range q.Select {
		if f != "_id" {
			cols = append(cols, f)
		}
	}
	return cols
}
