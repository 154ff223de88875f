package core

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// Palette lists the display colors handed out to new categories.
var Palette = []string{
	"#1ABC9C", "#16A085", "#2ECC71", "#27AE60",
	"#3498DB", "#2980B9", "#9B59B6", "#8E44AD",
	"#34495E", "#2C3E50", "#F1C40F", "#F39C12",
	"#E67E22", "#D35400", "#E74C3C", "#C0392B",
	"#ECF0F1", "#BDC3C7", "#95A5A6", "#7F8C8D",
	"#FF7F50", "#5D4037", "#FF69B4", "#00CED1",
}

// minColorDistance is the RGB distance below which two colors read as the same.
const minColorDistance = 60

// RandomColor picks a palette color that is visibly different from every color in avoid.
// When no such color is left it returns any palette color.
func RandomColor(rng *rand.Rand, avoid ...string) string {
	candidates := make([]string, 0, len(Palette))
	for _, c := range Palette {
		if distinct(c, avoid) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = Palette
	}
	return candidates[rng.IntN(len(candidates))]
}

func distinct(color string, avoid []string) bool {
	r, g, b, ok := parseHex(color)
	if !ok {
		return false
	}
	for _, other := range avoid {
		r2, g2, b2, ok := parseHex(other)
		if !ok {
			continue
		}
		dr, dg, db := r-r2, g-g2, b-b2
		if dr*dr+dg*dg+db*db < minColorDistance*minColorDistance {
			return false
		}
	}
	return true
}

// parseHex decodes "#RRGGBB" into its components.
func parseHex(color string) (r, g, b int, ok bool) {
	color = strings.TrimPrefix(color, "#")
	if len(color) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(color, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), true
}
