package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/ytakahashi/todo-app/internal/controller"
)

// List renders st for non-interactive output: a header, one numbered line
// per todo with its id, and a usage tip.
func List(st controller.State) string {
	lines := []string{header(st), ""}

	if len(st.Items) == 0 {
		lines = append(lines, mutedStyle.Render("no todos"))
	}
	for i, item := range st.Items {
		text := item.Text
		if r := []rune(text); len(r) > 80 {
			text = string(r[:77]) + "..."
		}
		box := mutedStyle.Render(boxUnchecked)
		if item.Done {
			box = successStyle.Render(boxChecked)
			text = doneStyle.Render(text)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			mutedStyle.Render(fmt.Sprintf("%2d.", i+1)),
			box,
			text,
			mutedStyle.Render(item.ID),
		))
	}

	lines = append(lines, "", mutedStyle.Render(`Tip: add with todo add "Buy milk"`))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✖ "+msg))
}
