package tam

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode"
)

// Run-time failures. Step and Run wrap them with the failing code address.
var (
	ErrDataStoreFull      = errors.New("data store full")
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrInvalidCodeAddress = errors.New("invalid code address")
	ErrInvalidDataAddress = errors.New("invalid data address")
	ErrOverflow           = errors.New("arithmetic overflow")
	ErrZeroDivide         = errors.New("division by zero")
	ErrIO                 = errors.New("input/output error")
	ErrStepLimit          = errors.New("step limit exceeded")
)

// Machine executes TAM object code.
type Machine struct {
	Code [PrimitiveBase]Instruction
	CT   int // code top: one past the last loaded instruction

	Data [DataSize]int
	ST   int
	HT   int
	LB   int
	CP   int

	Halted bool

	// Input feeds get, getint, geteol, eol and eof. If nil, os.Stdin is used.
	Input io.Reader
	// Output receives put, putint and puteol. If nil, os.Stdout is used.
	Output io.Writer

	// MaxSteps bounds Run when positive.
	MaxSteps int
	Steps    int

	// Trace, if set, is called before each instruction executes.
	Trace func(addr int, in Instruction)

	in *bufio.Reader
}

// NewMachine loads code at CB and resets the registers.
func NewMachine(code []Instruction) (*Machine, error) {
	if len(code) > PrimitiveBase {
		return nil, fmt.Errorf("program of %d instructions exceeds the code store", len(code))
	}
	m := &Machine{}
	copy(m.Code[:], code)
	m.CT = len(code)
	m.ST = StackBase
	m.HT = HeapBase
	m.LB = StackBase
	m.CP = CodeBase
	return m, nil
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

func (m *Machine) input() *bufio.Reader {
	if m.in == nil {
		src := m.Input
		if src == nil {
			src = os.Stdin
		}
		m.in = bufio.NewReader(src)
	}
	return m.in
}

// content returns the value of register r. L1..L6 follow the static chain.
func (m *Machine) content(r Register) (int, error) {
	switch r {
	case CB:
		return CodeBase, nil
	case CT:
		return m.CT, nil
	case PB:
		return PrimitiveBase, nil
	case PT:
		return PrimitiveTop, nil
	case SB:
		return StackBase, nil
	case ST:
		return m.ST, nil
	case HB:
		return HeapBase, nil
	case HT:
		return m.HT, nil
	case LB:
		return m.LB, nil
	case L1, L2, L3, L4, L5, L6:
		addr := m.LB
		for i := L1; i <= r; i++ {
			if err := m.checkData(addr, 1); err != nil {
				return 0, err
			}
			addr = m.Data[addr]
		}
		return addr, nil
	case CP:
		return m.CP, nil
	}
	return 0, ErrInvalidInstruction
}

func (m *Machine) relative(d int, r Register) (int, error) {
	base, err := m.content(r)
	if err != nil {
		return 0, err
	}
	return base + d, nil
}

func (m *Machine) checkData(addr, n int) error {
	if addr < 0 || n < 0 || addr+n > DataSize {
		return ErrInvalidDataAddress
	}
	return nil
}

// checkSpace ensures the stack can grow by n words without meeting the heap.
// A negative n is a malformed instruction.
func (m *Machine) checkSpace(n int) error {
	if n < 0 {
		return ErrInvalidInstruction
	}
	if m.ST+n > m.HT {
		return ErrDataStoreFull
	}
	return nil
}

func (m *Machine) push(v int) error {
	if err := m.checkSpace(1); err != nil {
		return err
	}
	m.Data[m.ST] = v
	m.ST++
	return nil
}

func (m *Machine) pop() (int, error) {
	if m.ST <= StackBase {
		return 0, ErrInvalidDataAddress
	}
	m.ST--
	return m.Data[m.ST], nil
}

// move copies n words from src to dst; the regions may overlap.
func (m *Machine) move(dst, src, n int) error {
	if err := m.checkData(dst, n); err != nil {
		return err
	}
	if err := m.checkData(src, n); err != nil {
		return err
	}
	copy(m.Data[dst:dst+n], m.Data[src:src+n])
	return nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	addr := m.CP
	if err := m.step(); err != nil {
		m.Halted = true
		return fmt.Errorf("at code address %d: %w", addr, err)
	}
	return nil
}

func (m *Machine) step() error {
	if m.CP < CodeBase || m.CP >= m.CT {
		return ErrInvalidCodeAddress
	}
	in := m.Code[m.CP]
	if m.Trace != nil {
		m.Trace(m.CP, in)
	}
	m.Steps++

	switch in.Op {
	case LOAD:
		addr, err := m.relative(in.D, in.R)
		if err != nil {
			return err
		}
		if err := m.checkSpace(in.N); err != nil {
			return err
		}
		if err := m.move(m.ST, addr, in.N); err != nil {
			return err
		}
		m.ST += in.N
		m.CP++

	case LOADA:
		addr, err := m.relative(in.D, in.R)
		if err != nil {
			return err
		}
		if err := m.push(addr); err != nil {
			return err
		}
		m.CP++

	case LOADI:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.checkSpace(in.N); err != nil {
			return err
		}
		if err := m.move(m.ST, addr, in.N); err != nil {
			return err
		}
		m.ST += in.N
		m.CP++

	case LOADL:
		if err := m.push(in.D); err != nil {
			return err
		}
		m.CP++

	case STORE:
		addr, err := m.relative(in.D, in.R)
		if err != nil {
			return err
		}
		m.ST -= in.N
		if err := m.move(addr, m.ST, in.N); err != nil {
			return err
		}
		m.CP++

	case STOREI:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		m.ST -= in.N
		if err := m.move(addr, m.ST, in.N); err != nil {
			return err
		}
		m.CP++

	case CALL:
		addr, err := m.relative(in.D, in.R)
		if err != nil {
			return err
		}
		if addr >= PrimitiveBase {
			if err := m.callPrimitive(addr - PrimitiveBase); err != nil {
				return err
			}
			m.CP++
			return nil
		}
		link, err := m.content(Register(in.N))
		if err != nil {
			return err
		}
		return m.enter(link, addr)

	case CALLI:
		m.ST -= 2
		if err := m.checkData(m.ST, 2); err != nil {
			return err
		}
		link, addr := m.Data[m.ST], m.Data[m.ST+1]
		if addr >= PrimitiveBase {
			if err := m.callPrimitive(addr - PrimitiveBase); err != nil {
				return err
			}
			m.CP++
			return nil
		}
		return m.enter(link, addr)

	case RETURN:
		addr := m.LB - in.D
		if err := m.checkData(m.LB, LinkSize); err != nil {
			return err
		}
		m.CP = m.Data[m.LB+2]
		m.LB = m.Data[m.LB+1]
		m.ST -= in.N
		if err := m.move(addr, m.ST, in.N); err != nil {
			return err
		}
		m.ST = addr + in.N

	case PUSH:
		if err := m.checkSpace(in.D); err != nil {
			return err
		}
		for i := 0; i < in.D; i++ {
			m.Data[m.ST+i] = 0
		}
		m.ST += in.D
		m.CP++

	case POP:
		if in.N < 0 || in.D < 0 {
			return ErrInvalidInstruction
		}
		addr := m.ST - in.N - in.D
		m.ST -= in.N
		if err := m.move(addr, m.ST, in.N); err != nil {
			return err
		}
		m.ST = addr + in.N
		m.CP++

	case JUMP:
		addr, err := m.relative(in.D, in.R)
		if err != nil {
			return err
		}
		m.CP = addr

	case JUMPI:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		m.CP = addr

	case JUMPIF:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == in.N {
			addr, err := m.relative(in.D, in.R)
			if err != nil {
				return err
			}
			m.CP = addr
		} else {
			m.CP++
		}

	case HALT:
		m.Halted = true

	default:
		return ErrInvalidInstruction
	}
	return nil
}

// enter pushes a frame's link data and transfers control to addr.
func (m *Machine) enter(staticLink, addr int) error {
	if err := m.checkSpace(LinkSize); err != nil {
		return err
	}
	m.Data[m.ST] = staticLink
	m.Data[m.ST+1] = m.LB
	m.Data[m.ST+2] = m.CP + 1
	m.LB = m.ST
	m.ST += LinkSize
	m.CP = addr
	return nil
}

// Run executes until HALT or a failure.
func (m *Machine) Run() error {
	for !m.Halted {
		if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
			return ErrStepLimit
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

func boolRep(b bool) int {
	if b {
		return TrueRep
	}
	return FalseRep
}

func checkRange(v int) (int, error) {
	if v < -MaxInt || v > MaxInt {
		return 0, ErrOverflow
	}
	return v, nil
}

// binary pops two operands and pushes f(a, b).
func (m *Machine) binary(f func(a, b int) (int, error)) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	v, err := f(a, b)
	if err != nil {
		return err
	}
	return m.push(v)
}

func (m *Machine) unary(f func(a int) (int, error)) error {
	a, err := m.pop()
	if err != nil {
		return err
	}
	v, err := f(a)
	if err != nil {
		return err
	}
	return m.push(v)
}

func (m *Machine) callPrimitive(d int) error {
	switch d {
	case PrimID:
	case PrimNot:
		return m.unary(func(a int) (int, error) { return boolRep(a == FalseRep), nil })
	case PrimAnd:
		return m.binary(func(a, b int) (int, error) { return boolRep(a != FalseRep && b != FalseRep), nil })
	case PrimOr:
		return m.binary(func(a, b int) (int, error) { return boolRep(a != FalseRep || b != FalseRep), nil })
	case PrimSucc:
		return m.unary(func(a int) (int, error) { return checkRange(a + 1) })
	case PrimPred:
		return m.unary(func(a int) (int, error) { return checkRange(a - 1) })
	case PrimNeg:
		return m.unary(func(a int) (int, error) { return -a, nil })
	case PrimAdd:
		return m.binary(func(a, b int) (int, error) { return checkRange(a + b) })
	case PrimSub:
		return m.binary(func(a, b int) (int, error) { return checkRange(a - b) })
	case PrimMult:
		return m.binary(func(a, b int) (int, error) { return checkRange(a * b) })
	case PrimDiv:
		return m.binary(func(a, b int) (int, error) {
			if b == 0 {
				return 0, ErrZeroDivide
			}
			return a / b, nil
		})
	case PrimMod:
		return m.binary(func(a, b int) (int, error) {
			if b == 0 {
				return 0, ErrZeroDivide
			}
			return a % b, nil
		})
	case PrimLt:
		return m.binary(func(a, b int) (int, error) { return boolRep(a < b), nil })
	case PrimLe:
		return m.binary(func(a, b int) (int, error) { return boolRep(a <= b), nil })
	case PrimGe:
		return m.binary(func(a, b int) (int, error) { return boolRep(a >= b), nil })
	case PrimGt:
		return m.binary(func(a, b int) (int, error) { return boolRep(a > b), nil })
	case PrimEq, PrimNe:
		return m.compare(d == PrimEq)
	case PrimEol:
		r, _, err := m.input().ReadRune()
		if err == nil {
			m.input().UnreadRune()
		}
		return m.push(boolRep(err == nil && r == '\n'))
	case PrimEof:
		_, _, err := m.input().ReadRune()
		if err == nil {
			m.input().UnreadRune()
		}
		return m.push(boolRep(err != nil))
	case PrimGet:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.checkData(addr, 1); err != nil {
			return err
		}
		r, _, err := m.input().ReadRune()
		if err != nil {
			r = -1
		}
		m.Data[addr] = int(r)
	case PrimPut:
		ch, err := m.pop()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(m.outputSink(), "%c", rune(ch)); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	case PrimGeteol:
		for {
			r, _, err := m.input().ReadRune()
			if err != nil || r == '\n' {
				break
			}
		}
	case PrimPuteol:
		if _, err := fmt.Fprintln(m.outputSink()); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	case PrimGetint:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.checkData(addr, 1); err != nil {
			return err
		}
		n, err := m.readInt()
		if err != nil {
			return err
		}
		m.Data[addr] = n
	case PrimPutint:
		n, err := m.pop()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(m.outputSink(), n); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	case PrimNew:
		size, err := m.pop()
		if err != nil {
			return err
		}
		if m.HT-size <= m.ST {
			return ErrDataStoreFull
		}
		m.HT -= size
		return m.push(m.HT)
	case PrimDispose:
		// Heap storage is never reclaimed; drop the address.
		_, err := m.pop()
		return err
	default:
		return ErrInvalidInstruction
	}
	return nil
}

// compare implements eq and ne: the stack holds two values of size words
// followed by size itself.
func (m *Machine) compare(wantEqual bool) error {
	size, err := m.pop()
	if err != nil {
		return err
	}
	m.ST -= 2 * size
	if err := m.checkData(m.ST, 2*size); err != nil {
		return err
	}
	equal := true
	for i := 0; i < size; i++ {
		if m.Data[m.ST+i] != m.Data[m.ST+size+i] {
			equal = false
			break
		}
	}
	return m.push(boolRep(equal == wantEqual))
}

// readInt reads an optionally signed decimal integer, skipping leading
// white space.
func (m *Machine) readInt() (int, error) {
	in := m.input()
	var r rune
	var err error
	for {
		r, _, err = in.ReadRune()
		if err != nil {
			return 0, fmt.Errorf("%w: getint: %v", ErrIO, err)
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	digits := []rune{r}
	for {
		r, _, err = in.ReadRune()
		if err != nil {
			break
		}
		if !unicode.IsDigit(r) {
			in.UnreadRune()
			break
		}
		digits = append(digits, r)
	}
	n, convErr := strconv.Atoi(string(digits))
	if convErr != nil {
		return 0, fmt.Errorf("%w: getint: %q is not an integer", ErrIO, string(digits))
	}
	return n, nil
}
