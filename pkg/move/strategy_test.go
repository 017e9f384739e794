package move

import (
	"testing"

	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/stretchr/testify/assert"
)

func TestDefault_Advance(t *testing.T) {
	tests := []struct {
		name string
		from lawn.Position
		want lawn.Position
	}{
		{"north", lawn.NewPosition(2, 2, lawn.North), lawn.NewPosition(2, 3, lawn.North)},
		{"south", lawn.NewPosition(2, 2, lawn.South), lawn.NewPosition(2, 1, lawn.South)},
		{"east", lawn.NewPosition(2, 2, lawn.East), lawn.NewPosition(3, 2, lawn.East)},
		{"west", lawn.NewPosition(2, 2, lawn.West), lawn.NewPosition(1, 2, lawn.West)},
		{"leaves grid", lawn.NewPosition(0, 0, lawn.West), lawn.NewPosition(-1, 0, lawn.West)},
	}

	s := Default{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Advance(tt.from))
		})
	}
}

func TestDefault_Turns(t *testing.T) {
	s := Default{}
	from := lawn.NewPosition(4, 1, lawn.East)

	assert.Equal(t, lawn.NewPosition(4, 1, lawn.South), s.TurnRight(from))
	assert.Equal(t, lawn.NewPosition(4, 1, lawn.North), s.TurnLeft(from))
}

func TestDefault_UnknownOrientationStays(t *testing.T) {
	p := lawn.NewPosition(1, 1, lawn.Orientation(42))
	assert.Equal(t, p, Default{}.Advance(p))
}

func TestDefault_IsPure(t *testing.T) {
	s := Default{}
	from := lawn.NewPosition(3, 3, lawn.West)

	first := s.Advance(from)
	second := s.Advance(from)
	assert.Equal(t, first, second)
	assert.Equal(t, lawn.NewPosition(3, 3, lawn.West), from)
}
