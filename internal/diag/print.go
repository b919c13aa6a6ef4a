package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"fern/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Print renders the bag's diagnostics to w, one per line, resolving spans
// against fs. Colors honor color.NoColor, which the CLI sets from its
// --color flag.
func (b *Bag) Print(w io.Writer, fs *source.FileSet) {
	for i := range b.items {
		d := &b.items[i]
		printOne(w, fs, d)
	}
}

func printOne(w io.Writer, fs *source.FileSet, d *Diagnostic) {
	sev := d.Severity.String()
	switch d.Severity {
	case SevError:
		sev = errorColor.Sprint(sev)
	case SevWarning:
		sev = warningColor.Sprint(sev)
	case SevInfo:
		sev = infoColor.Sprint(sev)
	}

	loc := d.Primary.String()
	if fs != nil {
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		loc = fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
	}
	fmt.Fprintf(w, "%s %s [%s] %s\n", loc, sev, d.Code, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  note: %s (%s)\n", n.Msg, n.Span)
	}
}
