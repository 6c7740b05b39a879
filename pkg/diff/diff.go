// Package diff renders readable differences for test failures.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// Values pretty prints the exported fields of want and got and returns their line
// diff, empty when they print the same.
func Values[T any](want T, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)
	return render(diff.Diff(printer.Sprint(got), printer.Sprint(want)))
}

// Text returns the line diff of two document contents, empty when they are equal.
func Text(want, got string) string {
	return render(diff.Diff(got, want))
}

func render(d string) string {
	if d == "" {
		return ""
	}
	str := "\n\n"
	str += "to convert ACTUAL ⏩️ EXPECTED:\n\n"
	str += "add:    ➕\n"
	str += "remove: ➖\n"
	str += "\n"
	str += strings.ReplaceAll(strings.ReplaceAll(d, "\n-", "\n➖"), "\n+", "\n➕")
	return str
}
