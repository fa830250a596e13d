package collectionutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenUnique(t *testing.T) {
	tests := []struct {
		name   string
		inputs [][]string
		want   []string
	}{
		{
			name:   "disjoint",
			inputs: [][]string{{"packages/a", "packages/b"}, {"tools/*"}},
			want:   []string{"packages/a", "packages/b", "tools/*"},
		},
		{
			name:   "repeated within one list",
			inputs: [][]string{{"a/left-pad", "a/left-pad"}, {"b"}},
			want:   []string{"a/left-pad", "b"},
		},
		{
			name:   "shared across lists keeps first position",
			inputs: [][]string{{"x", "y", "z"}, {"w", "y"}},
			want:   []string{"x", "y", "z", "w"},
		},
		{
			name:   "nil list",
			inputs: [][]string{{"x"}, nil},
			want:   []string{"x"},
		},
		{
			name:   "nothing",
			inputs: nil,
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenUnique(tt.inputs...))
		})
	}
}

func TestSortedKeys(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"build", "install", "test"}, SortedKeys(map[string]int{"test": 1, "build": 2, "install": 3}))
	assert.Empty(SortedKeys(map[string]bool(nil)))
	assert.ElementsMatch([]int{3, 1}, Keys(map[int]string{1: "a", 3: "b"}))
}
