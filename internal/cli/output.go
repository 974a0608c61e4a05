package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// emit prints v as indented JSON in --json mode, otherwise it hands a tab
// writer to table.
func (a *app) emit(v any, table func(w io.Writer)) error {
	if a.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	table(w)
	if err := w.Flush(); err != nil {
		return err
	}
	for _, line := range strings.SplitAfter(sb.String(), "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintln(a.out, strings.TrimRight(line, " \n"))
	}
	return nil
}

// done prints a one-line confirmation, or {"id": ...} in --json mode.
func (a *app) done(id, format string, args ...any) error {
	if a.jsonMode {
		return a.emit(map[string]string{"id": id}, nil)
	}
	_, err := fmt.Fprintf(a.out, format+"\n", args...)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// displayValue renders a value for table output, turning option IDs into
// labels.
func displayValue(p *types.Property, v types.Value) string {
	switch v.Kind() {
	case types.KindNone:
		return ""
	case types.KindText:
		return truncate(v.Text(), 40)
	case types.KindNumber:
		return strconv.FormatFloat(v.Number(), 'f', -1, 64)
	case types.KindDate:
		d := v.Date()
		var parts []string
		for _, s := range []*string{d.From, d.To} {
			if s != nil {
				parts = append(parts, *s)
			}
		}
		return strings.Join(parts, " → ")
	case types.KindCheckbox:
		if v.Checkbox() {
			return "yes"
		}
		return "no"
	case types.KindOption:
		return optionLabel(p, v.OptionID())
	case types.KindOptions:
		labels := make([]string, 0, len(v.IDs()))
		for _, id := range v.IDs() {
			labels = append(labels, optionLabel(p, id))
		}
		return strings.Join(labels, ", ")
	case types.KindPeople:
		return strings.Join(v.IDs(), ", ")
	case types.KindAttachments:
		names := make([]string, 0, len(v.Attachments()))
		for _, f := range v.Attachments() {
			names = append(names, f.Name)
		}
		return strings.Join(names, ", ")
	default:
		return truncate(fmt.Sprint(v.Raw()), 40)
	}
}

func optionLabel(p *types.Property, id string) string {
	if p != nil {
		if o, ok := p.Option(id); ok {
			return o.Label
		}
	}
	return id
}

// printTasks writes one row per task with a column per property in cols.
func printTasks(w io.Writer, tasks []*types.Task, cols []*types.Property) {
	header := []string{"ID", "TITLE"}
	for _, p := range cols {
		header = append(header, strings.ToUpper(p.Name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, t := range tasks {
		row := []string{shortID(t.TaskID), truncate(t.Title, 40)}
		for _, p := range cols {
			row = append(row, displayValue(p, t.Value(p.PropertyID)))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func columns(b *types.Board) []*types.Property {
	cols := make([]*types.Property, len(b.Properties))
	for i := range b.Properties {
		cols[i] = &b.Properties[i]
	}
	return cols
}
