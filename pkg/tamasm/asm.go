// Package tamasm converts between TAM object code and its textual listing.
package tamasm

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"gotam/pkg/tam"
)

// Operand shapes, after brackets and parentheses are stripped.
type shape int

const (
	shapeNone shape = iota // HALT
	shapeN                 // LOADI (n)
	shapeD                 // LOADL d
	shapeDR                // LOADA d[r]
	shapeND                // RETURN (n) d
	shapeNDR               // LOAD (n) d[r]
	shapeCall              // CALL (n) d[r] or CALL prim
)

var shapes = map[tam.OpCode]shape{
	tam.LOAD:   shapeNDR,
	tam.LOADA:  shapeDR,
	tam.LOADI:  shapeN,
	tam.LOADL:  shapeD,
	tam.STORE:  shapeNDR,
	tam.STOREI: shapeN,
	tam.CALL:   shapeCall,
	tam.CALLI:  shapeNone,
	tam.RETURN: shapeND,
	tam.PUSH:   shapeD,
	tam.POP:    shapeND,
	tam.JUMP:   shapeDR,
	tam.JUMPI:  shapeNone,
	tam.JUMPIF: shapeNDR,
	tam.HALT:   shapeNone,
}

type Assembler struct {
	labels map[string]int
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

// Assemble translates a listing into object code. lines[a] is the source
// line of the instruction at address a.
func Assemble(src string) ([]tam.Instruction, []int, error) {
	return NewAssembler().Assemble(src)
}

func (a *Assembler) Assemble(src string) ([]tam.Instruction, []int, error) {
	lines := strings.Split(src, "\n")
	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}
	return a.pass2(lines)
}

// pass1 assigns an address to every label. Each instruction is one word.
func (a *Assembler) pass1(lines []string) error {
	address := 0
	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}
		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = address
		}
		if p.mnemonic == "" {
			continue
		}
		if _, ok := tam.LookupOp(p.mnemonic); !ok {
			return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}
		address++
		if address > tam.PrimitiveBase {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
	}
	return nil
}

func (a *Assembler) pass2(lines []string) ([]tam.Instruction, []int, error) {
	var code []tam.Instruction
	var sourceLines []int

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}
		if p.mnemonic == "" {
			continue
		}
		in, err := a.encode(p)
		if err != nil {
			return nil, nil, err
		}
		code = append(code, in)
		sourceLines = append(sourceLines, lineNo)
	}
	return code, sourceLines, nil
}

func (a *Assembler) encode(p parsedLine) (tam.Instruction, error) {
	op, _ := tam.LookupOp(p.mnemonic)
	in := tam.Instruction{Op: op}
	ops := p.operands

	expect := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, n, p.lineNo)
		}
		return nil
	}

	var err error
	switch shapes[op] {
	case shapeNone:
		err = expect(0)
	case shapeN:
		if err = expect(1); err == nil {
			in.N, err = parseNumber(ops[0], p.lineNo)
		}
	case shapeD:
		if err = expect(1); err == nil {
			in.D, err = a.parseDisplacement(ops[0], p.lineNo)
		}
	case shapeDR:
		if err = expect(2); err == nil {
			if in.D, err = a.parseDisplacement(ops[0], p.lineNo); err == nil {
				in.R, err = parseRegister(ops[1], p.lineNo)
			}
		}
	case shapeND:
		if err = expect(2); err == nil {
			if in.N, err = parseNumber(ops[0], p.lineNo); err == nil {
				in.D, err = a.parseDisplacement(ops[1], p.lineNo)
			}
		}
	case shapeNDR:
		if err = expect(3); err == nil {
			if in.N, err = parseNumber(ops[0], p.lineNo); err == nil {
				if in.D, err = a.parseDisplacement(ops[1], p.lineNo); err == nil {
					in.R, err = parseRegister(ops[2], p.lineNo)
				}
			}
		}
	case shapeCall:
		if len(ops) == 1 {
			d, ok := tam.LookupPrimitive(strings.ToLower(ops[0]))
			if !ok {
				return in, fmt.Errorf("unknown primitive '%s' on line %d", ops[0], p.lineNo)
			}
			in.R, in.N, in.D = tam.PB, int(tam.SB), d
			return in, nil
		}
		if err = expect(3); err == nil {
			var link tam.Register
			if link, err = parseRegister(ops[0], p.lineNo); err == nil {
				in.N = int(link)
				if in.D, err = a.parseDisplacement(ops[1], p.lineNo); err == nil {
					in.R, err = parseRegister(ops[2], p.lineNo)
				}
			}
		}
	}
	return in, err
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}
	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		before := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(before, " \t") {
			break
		}
		switch {
		case isAddress(before):
			// Address column of a disassembled listing.
		case isIdentifier(before):
			p.labels = append(p.labels, before)
		default:
			return p, fmt.Errorf("invalid label '%s' on line %d", before, lineNo)
		}
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(normalizeInstructionText(line))
	if len(fields) == 0 {
		return p, nil
	}
	p.mnemonic = strings.ToUpper(fields[0])
	p.operands = fields[1:]
	return p, nil
}

func stripComments(line string) string {
	if cut := strings.IndexByte(line, ';'); cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	replacer := strings.NewReplacer(",", " ", "[", " ", "]", " ", "(", " ", ")", " ")
	return replacer.Replace(line)
}

func parseRegister(token string, lineNo int) (tam.Register, error) {
	r, ok := tam.LookupRegister(strings.ToUpper(token))
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	return r, nil
}

func parseNumber(token string, lineNo int) (int, error) {
	v, err := strconv.ParseInt(token, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s' on line %d", token, lineNo)
	}
	return int(v), nil
}

// parseDisplacement accepts a number or a label.
func (a *Assembler) parseDisplacement(token string, lineNo int) (int, error) {
	if v, err := strconv.ParseInt(token, 0, 32); err == nil {
		return int(v), nil
	}
	if addr, ok := a.labels[normalizeLabel(token)]; ok {
		return addr, nil
	}
	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}
	return 0, fmt.Errorf("invalid displacement '%s' on line %d", token, lineNo)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func isAddress(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}

// Disassemble writes an addressed listing of code. When dbg is non-nil each
// instruction is annotated with its source line.
func Disassemble(w io.Writer, code []tam.Instruction, dbg *tam.DebugInfo) error {
	for addr, in := range code {
		var err error
		if line := dbg.Line(addr); line > 0 {
			_, err = fmt.Fprintf(w, "%4d: %-24s ; line %d\n", addr, in, line)
		} else {
			_, err = fmt.Fprintf(w, "%4d: %s\n", addr, in)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
