package timetable

import "hash/fnv"

// palette mirrors the colors the web views ship with. Derivation has to be
// deterministic so a subject keeps its color across sessions without a
// persisted value.
var palette = []string{
	"#4F46E5", "#0891B2", "#059669", "#D97706",
	"#DC2626", "#7C3AED", "#DB2777", "#2563EB",
	"#65A30D", "#EA580C", "#0D9488", "#9333EA",
}

// ColorFor picks a stable palette color from a display name.
func ColorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return palette[h.Sum32()%uint32(len(palette))]
}
