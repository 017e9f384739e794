package scenario

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harun/lawnmower/pkg/lawn"
)

// LineOptions tunes the line format parser
type LineOptions struct {
	// XMin and YMin set the lawn origin; the input only carries the max corner.
	XMin int
	YMin int
}

// ParseLines reads the line format. Blank lines before the grid line and after
// the last record are ignored; in between, lines are positional, so a blank
// instruction line is an empty program. Mowers get IDs "1", "2", ... in input
// order. A trailing position line without an instruction line is an error.
func ParseLines(r io.Reader, opts LineOptions) (Scenario, error) {
	lines, err := readLines(r)
	if err != nil {
		return Scenario{}, err
	}
	for len(lines) > 0 && lines[0].text == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return Scenario{}, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	grid, err := ParseGridLine(opts.XMin, opts.YMin, lines[0].text)
	if err != nil {
		return Scenario{}, fmt.Errorf("line %d: %w", lines[0].number, err)
	}

	sc := Scenario{Grid: grid}
	rest := trimTrailingBlank(lines[1:])
	for i := 0; i < len(rest); i += 2 {
		id := strconv.Itoa(i/2 + 1)

		if rest[i].text == "" {
			return Scenario{}, fmt.Errorf("line %d: %w: mower %s position line is blank", rest[i].number, ErrMalformed, id)
		}
		start, err := ParsePositionLine(rest[i].text)
		if err != nil {
			return Scenario{}, fmt.Errorf("line %d: mower %s: %w", rest[i].number, id, err)
		}
		if i+1 >= len(rest) {
			return Scenario{}, fmt.Errorf("line %d: %w: mower %s has no instruction line", rest[i].number, ErrMalformed, id)
		}
		program, err := lawn.ParseProgram(rest[i+1].text)
		if err != nil {
			return Scenario{}, fmt.Errorf("line %d: mower %s: %w", rest[i+1].number, id, err)
		}

		sc.Mowers = append(sc.Mowers, MowerSpec{ID: id, Start: start, Program: program})
	}

	return sc, nil
}

// ParseGridLine parses "xMax yMax" into a grid anchored at (xMin, yMin)
func ParseGridLine(xMin, yMin int, line string) (lawn.Grid, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return lawn.Grid{}, fmt.Errorf("%w: grid configuration should have a xMax and yMax", ErrMalformed)
	}
	xMax, err := strconv.Atoi(fields[0])
	if err != nil {
		return lawn.Grid{}, fmt.Errorf("%w: xMax %q is not a number", ErrMalformed, fields[0])
	}
	yMax, err := strconv.Atoi(fields[1])
	if err != nil {
		return lawn.Grid{}, fmt.Errorf("%w: yMax %q is not a number", ErrMalformed, fields[1])
	}
	return lawn.NewGrid(xMin, yMin, xMax, yMax)
}

// ParsePositionLine parses "x y O"
func ParsePositionLine(line string) (lawn.Position, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return lawn.Position{}, fmt.Errorf("%w: mower initial position should have a x, y and orientation", ErrMalformed)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return lawn.Position{}, fmt.Errorf("%w: x %q is not a number", ErrMalformed, fields[0])
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return lawn.Position{}, fmt.Errorf("%w: y %q is not a number", ErrMalformed, fields[1])
	}
	o, err := lawn.ParseOrientation(fields[2])
	if err != nil {
		return lawn.Position{}, err
	}
	return lawn.NewPosition(x, y, o), nil
}

type numberedLine struct {
	number int
	text   string
}

func readLines(r io.Reader) ([]numberedLine, error) {
	var lines []numberedLine
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		lines = append(lines, numberedLine{number: n, text: strings.TrimSpace(scanner.Text())})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return lines, nil
}

// trimTrailingBlank drops blank lines after the last record. A blank line
// directly after a position line is kept: it is that mower's empty program.
func trimTrailingBlank(lines []numberedLine) []numberedLine {
	end := len(lines)
	for end > 0 && lines[end-1].text == "" {
		end--
	}
	if end%2 == 1 && end < len(lines) {
		end++
	}
	return lines[:end]
}
