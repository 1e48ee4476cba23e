// Package shopping merges the ingredient lines of every recipe in a cart into
// one summed shopping list.
package shopping

import (
	"sort"
	"strconv"
	"strings"
)

// Item is one unaggregated (ingredient, amount) line taken from a cart recipe.
type Item struct {
	Name   string
	Unit   string
	Amount int64
}

// Line is one entry of the shopping list.
type Line struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int64  `json:"amount"`
}

type key struct{ name, unit string }

// Aggregate groups items by (name, unit) across all recipes and sums the
// amounts. Output is sorted by name, then unit. An empty input yields an empty
// list.
func Aggregate(items []Item) []Line {
	sums := make(map[key]int64, len(items))
	for _, it := range items {
		sums[key{it.Name, it.Unit}] += it.Amount
	}
	lines := make([]Line, 0, len(sums))
	for k, total := range sums {
		lines = append(lines, Line{Name: k.name, Unit: k.unit, Amount: total})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].Unit < lines[j].Unit
	})
	return lines
}

// Render formats lines as "<name>: <amount> <unit>", one per line.
func Render(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatInt(l.Amount, 10))
		b.WriteByte(' ')
		b.WriteString(l.Unit)
		b.WriteByte('\n')
	}
	return b.String()
}
