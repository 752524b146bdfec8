package ai

import "testing"

func TestSelectLevels(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		levels []int
		want   string
	}{
		{"nil selector keeps all levels", "u_core/u_alu/clk", nil, "u_core u_alu clk"},
		{"first level", "u_core/u_alu/clk", []int{0}, "u_core"},
		{"negative counts from end", "u_core/u_alu/clk", []int{-1}, "clk"},
		{"mixed signs", "u_core/u_alu/clk", []int{0, -1}, "u_core clk"},
		{"flat value single level", "clk_main", []int{0}, "clk_main"},
		{"all indices out of range", "a/b", []int{5, 6}, ""},
		{"negative out of range dropped", "a/b/c", []int{-5, 1}, "b"},
		{"repeated index repeats level", "a/b/c", []int{1, 1}, "b b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectLevels(tt.value, tt.levels)
			if got != tt.want {
				t.Fatalf("SelectLevels(%q, %v) = %q, want %q", tt.value, tt.levels, got, tt.want)
			}
		})
	}
}
