package lawn

import (
	"errors"
	"fmt"
	"strings"
)

// Instruction is a single mower command symbol
type Instruction byte

const (
	TurnLeft  Instruction = 'G'
	TurnRight Instruction = 'D'
	Advance   Instruction = 'A'
)

// ErrUnknownInstruction is returned for any symbol outside {G, D, A}
var ErrUnknownInstruction = errors.New("unknown instruction")

// ParseInstruction parses a single instruction symbol
func ParseInstruction(r rune) (Instruction, error) {
	if r < 0 || r > 0x7f {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInstruction, r)
	}
	switch Instruction(r) {
	case TurnLeft, TurnRight, Advance:
		return Instruction(r), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownInstruction, r)
}

// Valid reports whether i is a known instruction
func (i Instruction) Valid() bool {
	switch i {
	case TurnLeft, TurnRight, Advance:
		return true
	}
	return false
}

func (i Instruction) String() string {
	if !i.Valid() {
		return fmt.Sprintf("Instruction(%q)", byte(i))
	}
	return string(rune(i))
}

// Program is an ordered instruction sequence for one mower
type Program []Instruction

// ParseProgram parses an instruction line such as "GAGAGAGAA".
// Surrounding whitespace is ignored; an empty line is an empty program.
func ParseProgram(line string) (Program, error) {
	line = strings.TrimSpace(line)
	program := make(Program, 0, len(line))
	for pos, r := range line {
		instruction, err := ParseInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", pos+1, err)
		}
		program = append(program, instruction)
	}
	return program, nil
}

// MustProgram is like ParseProgram but panics on error
func MustProgram(line string) Program {
	p, err := ParseProgram(line)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Program) String() string {
	var b strings.Builder
	b.Grow(len(p))
	for _, i := range p {
		b.WriteByte(byte(i))
	}
	return b.String()
}
