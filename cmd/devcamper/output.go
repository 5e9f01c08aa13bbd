package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/devcamper/internal/client"
	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/ui"
)

func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

func printBootcamp(w io.Writer, b *model.Bootcamp) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(b.ID))
	fmt.Fprintf(w, "Name:        %s\n", b.Name)
	fmt.Fprintf(w, "Slug:        %s\n", b.Slug)
	if b.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", b.Description)
	}
	if len(b.Careers) > 0 {
		careers := make([]string, len(b.Careers))
		for i, c := range b.Careers {
			careers[i] = string(c)
		}
		fmt.Fprintf(w, "Careers:     %s\n", strings.Join(careers, ", "))
	}
	if b.Location != nil && b.Location.FormattedAddress != "" {
		fmt.Fprintf(w, "Location:    %s\n", b.Location.FormattedAddress)
	} else if b.Address != "" {
		fmt.Fprintf(w, "Address:     %s\n", b.Address)
	}
	if b.AverageCost != nil {
		fmt.Fprintf(w, "Avg Cost:    %s\n", formatMoney(*b.AverageCost))
	}
	if b.AverageRating != nil {
		fmt.Fprintf(w, "Avg Rating:  %.1f\n", *b.AverageRating)
	}
	fmt.Fprintf(w, "Housing:     %s\n", yesNo(b.Housing))
	fmt.Fprintf(w, "Job Assist:  %s\n", yesNo(b.JobAssistance))
	fmt.Fprintf(w, "Photo:       %s\n", b.Photo)
	if !b.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", ui.RenderMuted(b.CreatedAt.Format("2006-01-02 15:04:05")))
	}
}

func printCourse(w io.Writer, c *model.CourseWithBootcamp) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(c.ID))
	fmt.Fprintf(w, "Title:       %s\n", c.Title)
	if c.Bootcamp != nil {
		fmt.Fprintf(w, "Bootcamp:    %s (%s)\n", c.Bootcamp.Name, c.Bootcamp.ID)
	}
	fmt.Fprintf(w, "Weeks:       %s\n", c.Weeks)
	if c.Tuition != nil {
		fmt.Fprintf(w, "Tuition:     %s\n", formatMoney(*c.Tuition))
	}
	fmt.Fprintf(w, "Skill:       %s\n", c.MinimumSkill)
	fmt.Fprintf(w, "Scholarship: %s\n", yesNo(c.ScholarshipAvailable))
	if c.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", c.Description)
	}
}

// printList writes a list response as a table of the given document fields.
// Fields a select clause dropped print as "-".
func printList(w io.Writer, resp *client.ListResponse, columns []string, noun string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, raw := range resp.Data {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decoding %s: %w", noun, err)
		}
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatCell(doc[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := resp.Pagination
	footer := fmt.Sprintf("\n%d %s (%d total)", resp.Count, noun, p.Total)
	if p.Prev != nil {
		footer += fmt.Sprintf("  prev: --page %d", p.Prev.Page)
	}
	if p.Next != nil {
		footer += fmt.Sprintf("  next: --page %d", p.Next.Page)
	}
	fmt.Fprintln(w, ui.RenderMuted(footer))
	return nil
}

func formatCell(v any) string {
	const maxWidth = 40
	var s string
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = yesNo(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatCell(e)
		}
		s = strings.Join(parts, ", ")
	case map[string]any:
		// Populated relations print by name or title.
		for _, k := range []string{"name", "title", "_id"} {
			if n, ok := x[k].(string); ok {
				return n
			}
		}
		s = "{...}"
	default:
		s = fmt.Sprint(x)
	}
	if r := []rune(s); len(r) > maxWidth {
		s = string(r[:maxWidth-3]) + "..."
	}
	return s
}

func formatMoney(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
