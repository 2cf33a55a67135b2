package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
)

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func success(format string, args ...any) {
	_, _ = successColor.Printf("✓ "+format+"\n", args...)
}

func warn(format string, args ...any) {
	_, _ = warnColor.Printf("! "+format+"\n", args...)
}

// printTable pads every column to its widest cell.
func printTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) string {
		padded := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.TrimRight(strings.Join(padded, "  "), " ")
	}

	_, _ = headerColor.Println(line(headers))
	for _, row := range rows {
		fmt.Println(line(row))
	}
}
