package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func point() *Type {
	return NewRecord([]Field{{"x", Int}, {"y", Int}})
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same scalar", Int, Int, true},
		{"different scalars", Int, Char, false},
		{"error matches anything", Error, point(), true},
		{"anything matches error", Bool, Error, true},
		{"any is not a type", Any, Any, false},
		{"arrays by shape", NewArray(3, Int), NewArray(3, Int), true},
		{"array length", NewArray(3, Int), NewArray(4, Int), false},
		{"array element", NewArray(3, Int), NewArray(3, Bool), false},
		{"records by shape", point(), point(), true},
		{"field names matter", point(), NewRecord([]Field{{"x", Int}, {"z", Int}}), false},
		{"field order matters", point(), NewRecord([]Field{{"y", Int}, {"x", Int}}), false},
		{"nested", NewArray(2, point()), NewArray(2, point()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestSizeAndOffsets(t *testing.T) {
	r := NewRecord([]Field{{"c", Char}, {"p", point()}, {"a", NewArray(3, Bool)}})
	assert.Equal(t, 1, Int.Size())
	assert.Equal(t, 6, NewArray(3, point()).Size())
	assert.Equal(t, 6, r.Size())
	assert.Equal(t, 0, r.FieldOffset(0))
	assert.Equal(t, 1, r.FieldOffset(1))
	assert.Equal(t, 3, r.FieldOffset(2))
	assert.Zero(t, Error.Size())

	f, i, ok := r.Field("p")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Same(t, r.Fields[1].Type, f.Type)
	_, _, ok = r.Field("q")
	assert.False(t, ok)
	_, _, ok = Int.Field("x")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	assert.Equal(t, "array 2 of record x: Integer, y: Integer end", NewArray(2, point()).String())
	assert.Equal(t, "Boolean", Bool.String())
	assert.Equal(t, "error", Error.String())
}
