package cli

import (
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todos"
	"github.com/idilsaglam/tada/internal/ui"
)

type listOptions struct {
	Group bool // list grouped by pending/done
	IDs   bool
}

// row keeps the 1-based position in the full list, which is what done/rm
// accept, even when the view is filtered.
type row struct {
	index int
	todo  model.Todo
}

func listLines(s *todos.Store, opt listOptions) []string {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), s.CompletedCount(),
		t.Pending.Render(t.SymPending), s.Remaining(),
		t.Accent.Render("Total"), s.Len(),
	)
	if f := s.Filter(); f != model.FilterAll {
		header += "  " + t.Muted.Render("("+string(f)+")")
	}

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(s.CompletedCount(), s.Len(), 28)))
	lines = append(lines, "")

	rows := visibleRows(s)
	if opt.Group {
		lines = append(lines, groupLines(rows, opt)...)
	} else {
		lines = append(lines, flatLines(rows, opt)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

func visibleRows(s *todos.Store) []row {
	f := s.Filter()
	var rows []row
	for i, it := range s.Items() {
		if f.Match(it) {
			rows = append(rows, row{index: i + 1, todo: it})
		}
	}
	return rows
}

func flatLines(rows []row, opt listOptions) []string {
	t := ui.Current()
	if len(rows) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		idx := fmt.Sprintf("%2d.", r.index)
		box, style := t.Muted.Render(t.BoxUnchecked), t.Muted
		title := truncate(r.todo.Title, 80)
		if r.todo.Completed {
			box, style = t.Success.Render(t.BoxChecked), t.Done
			title = style.Render(title)
		}
		line := fmt.Sprintf("%s %s %s", t.Muted.Render(idx), box, title)
		if opt.IDs {
			line += "  " + t.Muted.Render(r.todo.ID)
		}
		out = append(out, line)
	}
	return out
}

func groupLines(rows []row, opt listOptions) []string {
	t := ui.Current()
	var pend, done []row
	for _, r := range rows {
		if r.todo.Completed {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend, opt)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done, opt)...)
	}
	return lines
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
