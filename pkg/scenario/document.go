package scenario

import (
	"errors"
	"fmt"
	"io"

	"github.com/harun/lawnmower/pkg/lawn"
	"gopkg.in/yaml.v3"
)

// Document is the structured form of a scenario, shared by the YAML files
// and the HTTP API
type Document struct {
	Grid   GridDocument    `json:"grid" yaml:"grid"`
	Mowers []MowerDocument `json:"mowers" yaml:"mowers"`
}

// GridDocument holds the lawn corners; the min corner defaults to (0, 0)
type GridDocument struct {
	XMin int `json:"x_min,omitempty" yaml:"x_min,omitempty"`
	YMin int `json:"y_min,omitempty" yaml:"y_min,omitempty"`
	XMax int `json:"x_max" yaml:"x_max"`
	YMax int `json:"y_max" yaml:"y_max"`
}

type MowerDocument struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	X           int    `json:"x" yaml:"x"`
	Y           int    `json:"y" yaml:"y"`
	Orientation string `json:"orientation" yaml:"orientation"`
	Program     string `json:"program" yaml:"program"`
}

// Scenario converts the document. Mowers without an id get their 1-based
// index as id.
func (d Document) Scenario() (Scenario, error) {
	grid, err := lawn.NewGrid(d.Grid.XMin, d.Grid.YMin, d.Grid.XMax, d.Grid.YMax)
	if err != nil {
		return Scenario{}, err
	}

	sc := Scenario{Grid: grid, Mowers: make([]MowerSpec, 0, len(d.Mowers))}
	for i, m := range d.Mowers {
		id := m.ID
		if id == "" {
			id = fmt.Sprint(i + 1)
		}
		o, err := lawn.ParseOrientation(m.Orientation)
		if err != nil {
			return Scenario{}, fmt.Errorf("mower %s: %w", id, err)
		}
		program, err := lawn.ParseProgram(m.Program)
		if err != nil {
			return Scenario{}, fmt.Errorf("mower %s: %w", id, err)
		}
		sc.Mowers = append(sc.Mowers, MowerSpec{ID: id, Start: lawn.NewPosition(m.X, m.Y, o), Program: program})
	}
	return sc, nil
}

// DocumentOf is the inverse of Document.Scenario
func DocumentOf(sc Scenario) Document {
	d := Document{
		Grid: GridDocument{
			XMin: sc.Grid.XMin(),
			YMin: sc.Grid.YMin(),
			XMax: sc.Grid.XMax(),
			YMax: sc.Grid.YMax(),
		},
		Mowers: make([]MowerDocument, 0, len(sc.Mowers)),
	}
	for _, m := range sc.Mowers {
		d.Mowers = append(d.Mowers, MowerDocument{
			ID:          m.ID,
			X:           m.Start.X,
			Y:           m.Start.Y,
			Orientation: m.Start.Orientation.String(),
			Program:     m.Program.String(),
		})
	}
	return d
}

// ParseYAML reads the YAML format
func ParseYAML(r io.Reader) (Scenario, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Scenario{}, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return Scenario{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc.Scenario()
}
