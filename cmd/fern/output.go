package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"fern/internal/diag"
	"fern/internal/driver"
	"fern/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

func moduleName(res *driver.ModuleResult) string {
	if res.Module == nil {
		return "<undecoded>"
	}
	return res.Module.Name
}

func printDiagnostic(out io.Writer, res *driver.ModuleResult, d diag.Diagnostic, fs *source.FileSet) {
	sev := d.Severity.String()
	switch d.Severity {
	case diag.SevError:
		sev = errorColor.Sprint(sev)
	case diag.SevWarning:
		sev = warningColor.Sprint(sev)
	case diag.SevInfo:
		sev = infoColor.Sprint(sev)
	}
	fmt.Fprintf(out, "%s %s %s [%s] %s\n", moduleName(res), location(d.Primary, fs), sev, d.Code, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(out, "  note: %s (%s)\n", n.Msg, location(n.Span, fs))
	}
}

// location resolves a span to file:line:col when the project manifest
// supplied the front end's sources, and prints it raw otherwise.
func location(span source.Span, fs *source.FileSet) string {
	if fs == nil || int(span.File) >= fs.Len() {
		return span.String()
	}
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
}

func formatTimings(res *driver.ModuleResult) string {
	out := fmt.Sprintf("%s timings:\n", moduleName(res))
	for _, p := range res.Timings.Phases {
		out += fmt.Sprintf("  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			out += "  // " + p.Note
		}
		out += "\n"
	}
	out += fmt.Sprintf("  %-20s %7.2f ms\n", "total", res.Timings.TotalMS)
	return out
}

type diagJSON struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Span     string `json:"span"`
}

type moduleJSON struct {
	Module      string     `json:"module"`
	Routines    int        `json:"routines"`
	Diagnostics []diagJSON `json:"diagnostics"`
}

func jsonPayload(results []*driver.ModuleResult, noWarnings, warningsAsErrors bool) ([]moduleJSON, bool) {
	failed := false
	payload := make([]moduleJSON, 0, len(results))
	for _, res := range results {
		bag := res.MergedBag()
		entry := moduleJSON{
			Module:      moduleName(res),
			Routines:    len(res.Routines),
			Diagnostics: []diagJSON{},
		}
		for _, d := range bag.Items() {
			if noWarnings && d.Severity == diag.SevWarning {
				continue
			}
			entry.Diagnostics = append(entry.Diagnostics, diagJSON{
				Severity: d.Severity.String(),
				Code:     d.Code.String(),
				Message:  d.Message,
				Span:     d.Primary.String(),
			})
		}
		if bag.HasErrors() || (warningsAsErrors && bag.HasWarnings()) {
			failed = true
		}
		payload = append(payload, entry)
	}
	return payload, failed
}
