package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := map[string]int{
		"0":    0,
		"1":    1,
		"10":   1,
		"11":   2,
		"42":   5,
		" 100": 10,
		"":     0,
		"N/A":  0,
		"-5":   0,
	}
	for in, want := range tests {
		assert.Equal(t, want, TotalPages(in), "TotalPages(%q)", in)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name                    string
		current, total, visible int
		want                    []int
	}{
		{"single page", 1, 1, 5, nil},
		{"no pages", 1, 0, 5, nil},
		{"start", 1, 20, 5, []int{1, 2, 3, 4, 5}},
		{"middle", 10, 20, 5, []int{8, 9, 10, 11, 12}},
		{"end shifts back", 20, 20, 5, []int{16, 17, 18, 19, 20}},
		{"fewer than visible", 2, 3, 5, []int{1, 2, 3}},
		{"even window", 6, 20, 4, []int{4, 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageWindow(tt.current, tt.total, tt.visible))
		})
	}
}
