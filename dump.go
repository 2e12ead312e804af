package ecs

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rotisserie/eris"
)

// ArchetypeStats summarizes one archetype.
type ArchetypeStats struct {
	Index         int
	Components    []string // type names, in column order
	Entities      int
	Chunks        int
	FullChunks    int
	SpareChunks   int
	ChunkCapacity int
	RowSize       uintptr
}

// Stats summarizes a world's storage.
type Stats struct {
	Entities   int
	Components int
	Singletons int
	Systems    int
	Chunks     int
	Archetypes []ArchetypeStats
}

// Stats returns a snapshot of the world's storage counters.
func (w *World) Stats() Stats {
	s := Stats{
		Entities:   w.EntityCount(),
		Components: len(w.components.infos),
		Singletons: w.SingletonCount(),
		Systems:    w.SystemCount(),
		Archetypes: make([]ArchetypeStats, 0, len(w.archetypes.archetypes)),
	}
	for _, a := range w.archetypes.archetypes {
		names := make([]string, len(a.combo.Types))
		for i, t := range a.combo.Types {
			names[i] = t.Name()
		}
		s.Chunks += len(a.chunks)
		s.Archetypes = append(s.Archetypes, ArchetypeStats{
			Index:         int(a.index),
			Components:    names,
			Entities:      a.size,
			Chunks:        len(a.chunks),
			FullChunks:    a.fullChunks,
			SpareChunks:   len(a.spare),
			ChunkCapacity: a.combo.ChunkCapacity,
			RowSize:       a.combo.RowSize,
		})
	}
	return s
}

const dumpComponentsWidth = 48

var dumpColumns = []struct {
	title string
	width int
}{
	{"ARCH", 5},
	{"ENTITIES", 9},
	{"CHUNKS", 7},
	{"FULL", 5},
	{"CAP", 6},
	{"ROW", 5},
	{"COMPONENTS", dumpComponentsWidth},
}

// DumpArchetypes writes one line per archetype as an aligned text table.
// Component lists wider than the last column are truncated.
func (w *World) DumpArchetypes(out io.Writer) error {
	var b strings.Builder
	cells := make([]string, len(dumpColumns))
	for i, c := range dumpColumns {
		cells[i] = c.title
	}
	writeDumpRow(&b, cells)
	for _, a := range w.Stats().Archetypes {
		comps := strings.Join(a.Components, ",")
		if comps == "" {
			comps = "-"
		}
		writeDumpRow(&b, []string{
			fmt.Sprint(a.Index),
			fmt.Sprint(a.Entities),
			fmt.Sprint(a.Chunks),
			fmt.Sprint(a.FullChunks),
			fmt.Sprint(a.ChunkCapacity),
			fmt.Sprint(a.RowSize),
			runewidth.Truncate(comps, dumpComponentsWidth, "…"),
		})
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return eris.Wrap(err, "ecs: write archetype dump")
	}
	return nil
}

func writeDumpRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i == len(cells)-1 {
			b.WriteString(cell)
			break
		}
		b.WriteString(runewidth.FillRight(cell, dumpColumns[i].width))
		b.WriteByte(' ')
	}
	b.WriteByte('\n')
}
