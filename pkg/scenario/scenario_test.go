package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harun/lawnmower/pkg/lawn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classicInput = `5 5
1 2 N
GAGAGAGAA
3 3 E
AADAADADDA
`

func TestParseLines(t *testing.T) {
	sc, err := ParseLines(strings.NewReader(classicInput), LineOptions{})
	require.NoError(t, err)

	assert.Equal(t, lawn.MustGrid(0, 0, 5, 5), sc.Grid)
	require.Len(t, sc.Mowers, 2)
	assert.Equal(t, MowerSpec{
		ID:      "1",
		Start:   lawn.NewPosition(1, 2, lawn.North),
		Program: lawn.MustProgram("GAGAGAGAA"),
	}, sc.Mowers[0])
	assert.Equal(t, "2", sc.Mowers[1].ID)
	assert.Equal(t, lawn.NewPosition(3, 3, lawn.East), sc.Mowers[1].Start)
	assert.NoError(t, sc.Validate())
}

func TestParseLines_Origin(t *testing.T) {
	sc, err := ParseLines(strings.NewReader("5 5\n"), LineOptions{XMin: 1, YMin: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, sc.Grid.XMin())
	assert.Equal(t, 1, sc.Grid.YMin())
	assert.Empty(t, sc.Mowers)
}

func TestParseLines_EmptyProgramLine(t *testing.T) {
	input := "\n5 5\n1 2 N\n\n3 3 E\nA\n4 4 S\n\n\n\n"

	sc, err := ParseLines(strings.NewReader(input), LineOptions{})
	require.NoError(t, err)

	require.Len(t, sc.Mowers, 3)
	assert.Equal(t, lawn.NewPosition(1, 2, lawn.North), sc.Mowers[0].Start)
	assert.Empty(t, sc.Mowers[0].Program)
	assert.Equal(t, lawn.NewPosition(3, 3, lawn.East), sc.Mowers[1].Start)
	assert.Equal(t, lawn.MustProgram("A"), sc.Mowers[1].Program)
	assert.Equal(t, lawn.NewPosition(4, 4, lawn.South), sc.Mowers[2].Start)
	assert.Empty(t, sc.Mowers[2].Program)
}

func TestParseLines_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  error
		message string
	}{
		{"empty", "", ErrMalformed, "empty input"},
		{"short grid line", "5\n", ErrMalformed, "xMax and yMax"},
		{"non numeric grid", "5 x\n", ErrMalformed, "yMax"},
		{"bad bounds", "0 5\n", lawn.ErrInvalidBounds, "line 1"},
		{"short position line", "5 5\n1 2\nA\n", ErrMalformed, "x, y and orientation"},
		{"bad orientation", "5 5\n1 2 Q\nA\n", lawn.ErrUnknownOrientation, "mower 1"},
		{"bad instruction", "5 5\n1 2 N\nAXA\n", lawn.ErrUnknownInstruction, "line 3"},
		{"missing program", "5 5\n1 2 N\nA\n3 3 E\n", ErrMalformed, "no instruction line"},
		{"blank position line", "5 5\n\n1 2 N\nA\n", ErrMalformed, "line 2: malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLines(strings.NewReader(tt.input), LineOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate(t *testing.T) {
	grid := lawn.MustGrid(0, 0, 5, 5)

	t.Run("out of bounds start", func(t *testing.T) {
		sc := Scenario{Grid: grid, Mowers: []MowerSpec{{ID: "1", Start: lawn.NewPosition(6, 0, lawn.North)}}}
		err := sc.Validate()
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "mower 1 has invalid position")
	})

	t.Run("duplicate id", func(t *testing.T) {
		sc := Scenario{Grid: grid, Mowers: []MowerSpec{
			{ID: "a", Start: lawn.NewPosition(0, 0, lawn.North)},
			{ID: "a", Start: lawn.NewPosition(1, 0, lawn.North)},
		}}
		assert.ErrorIs(t, sc.Validate(), ErrInvalid)
	})

	t.Run("overlapping starts are allowed", func(t *testing.T) {
		sc := Scenario{Grid: grid, Mowers: []MowerSpec{
			{ID: "a", Start: lawn.NewPosition(2, 2, lawn.North)},
			{ID: "b", Start: lawn.NewPosition(2, 2, lawn.East)},
		}}
		assert.NoError(t, sc.Validate())
	})
}

func TestParseYAML(t *testing.T) {
	input := `
grid:
  x_max: 5
  y_max: 5
mowers:
  - id: alpha
    x: 1
    y: 2
    orientation: N
    program: GAGAGAGAA
  - x: 3
    y: 3
    orientation: e
    program: ""
`
	sc, err := ParseYAML(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, sc.Mowers, 2)
	assert.Equal(t, "alpha", sc.Mowers[0].ID)
	assert.Equal(t, "2", sc.Mowers[1].ID)
	assert.Equal(t, lawn.East, sc.Mowers[1].Start.Orientation)
	assert.Empty(t, sc.Mowers[1].Program)
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseYAML(strings.NewReader("grid: {x_max: 5, y_max: 5}\nunknown: 1\n"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseYAML(strings.NewReader("grid: {x_max: 5, y_max: 5}\nmowers: [{x: 0, y: 0, orientation: N, program: AZ}]\n"))
	assert.ErrorIs(t, err, lawn.ErrUnknownInstruction)
}

func TestDocumentOf(t *testing.T) {
	sc, err := ParseLines(strings.NewReader(classicInput), LineOptions{})
	require.NoError(t, err)

	back, err := DocumentOf(sc).Scenario()
	require.NoError(t, err)
	assert.Equal(t, sc, back)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("lawn.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("LAWN.YML"))
	assert.Equal(t, FormatLines, FormatFor("input.txt"))
	assert.Equal(t, FormatLines, FormatFor("input"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	linesPath := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(linesPath, []byte(classicInput), 0o644))
	sc, err := Load(linesPath, LineOptions{})
	require.NoError(t, err)
	assert.Len(t, sc.Mowers, 2)

	yamlPath := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("grid: {x_max: 2, y_max: 2}\nmowers: [{x: 3, y: 0, orientation: N, program: A}]\n"), 0o644))
	_, err = Load(yamlPath, LineOptions{})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(filepath.Join(dir, "missing.txt"), LineOptions{})
	assert.Error(t, err)
}
