package ai

import "strings"

// SelectLevels extracts the chosen hierarchy levels from a /-separated value
// such as a signal or instance path. Indices follow slice conventions:
// negative indices count from the end, out-of-range indices are dropped, and
// the surviving levels are joined with single spaces. A nil selector keeps
// every level, so "u_core/u_alu/clk" becomes "u_core u_alu clk".
func SelectLevels(value string, levels []int) string {
	parts := strings.Split(value, "/")
	if levels == nil {
		return strings.Join(parts, " ")
	}

	picked := make([]string, 0, len(levels))
	for _, idx := range levels {
		if idx < 0 {
			idx += len(parts)
		}
		if idx < 0 || idx >= len(parts) {
			continue
		}
		picked = append(picked, parts[idx])
	}
	return strings.Join(picked, " ")
}
