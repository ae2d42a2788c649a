// Package printer renders validation reports for terminal output.
package printer

import (
	"fmt"
	"io"

	"github.com/port-tools/portcheck/internal/validator"
)

// ReportPrinter writes a human-readable validation report.
type ReportPrinter struct{}

// NewReportPrinter creates a printer for validation reports.
func NewReportPrinter() *ReportPrinter {
	return &ReportPrinter{}
}

// Print writes one block per failing file, each error on its own line,
// followed by a summary. Ordering follows the report, which is path-sorted.
func (p *ReportPrinter) Print(w io.Writer, report validator.Report) {
	if report.Total() == 0 {
		_, _ = fmt.Fprintln(w, "No YAML files found to validate")
		return
	}

	for _, result := range report.Results {
		if result.Passed() {
			continue
		}

		_, _ = fmt.Fprintf(w, "❌ %s\n", result.Path)
		for _, msg := range result.Errors {
			_, _ = fmt.Fprintf(w, "   - %s\n", msg)
		}
	}

	failed := report.Failed()
	if failed > 0 {
		_, _ = fmt.Fprintf(w, "\n%d of %d file%s failed validation\n", failed, report.Total(), plural(report.Total()))
		return
	}

	_, _ = fmt.Fprintf(w, "✅ All %d file%s validated successfully\n", report.Total(), plural(report.Total()))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
