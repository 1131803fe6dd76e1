// Package procgen builds the seeded content shown for new planes: names
// composed from syllable templates, and colors kept clear of a base hue.
// Every function here is a pure function of the stream position it is given.
package procgen

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/talgya/planeforge/internal/entropy"
)

// Table is a syllable grammar: templates list morpheme-class indices in
// order, and Classes holds the morphemes of each class.
type Table struct {
	Templates [][]int
	Classes   [][]string
}

// Name composes a name from the table. It consumes 1+len(template) draws:
// the template pick is itself a draw, followed by one draw per class slot.
func Name(t Table, src entropy.Source) string {
	template := t.Templates[entropy.IntN(src, len(t.Templates))]

	var b strings.Builder
	for _, class := range template {
		morphemes := t.Classes[class]
		b.WriteString(morphemes[entropy.IntN(src, len(morphemes))])
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(b.String())
}

// RegionName names a plane.
func RegionName(src entropy.Source) string {
	return Name(RegionNames, src)
}

// PowerName names the boon a plane grants.
func PowerName(src entropy.Source) string {
	return Name(PowerNames, src)
}
