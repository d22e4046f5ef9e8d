package tam

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Each instruction is stored as four big-endian 32-bit words: op, r, n, d.
const instructionBytes = 16

// WriteObject writes code in TAM object format.
func WriteObject(w io.Writer, code []Instruction) error {
	bw := bufio.NewWriter(w)
	var buf [instructionBytes]byte
	for _, in := range code {
		binary.BigEndian.PutUint32(buf[0:], uint32(int32(in.Op)))
		binary.BigEndian.PutUint32(buf[4:], uint32(int32(in.R)))
		binary.BigEndian.PutUint32(buf[8:], uint32(int32(in.N)))
		binary.BigEndian.PutUint32(buf[12:], uint32(int32(in.D)))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadObject reads a whole object program.
func ReadObject(r io.Reader) ([]Instruction, error) {
	br := bufio.NewReader(r)
	var code []Instruction
	var buf [instructionBytes]byte
	for {
		_, err := io.ReadFull(br, buf[:])
		if errors.Is(err, io.EOF) {
			return code, nil
		}
		if err != nil {
			return nil, fmt.Errorf("instruction %d: truncated object file: %w", len(code), err)
		}
		code = append(code, Instruction{
			Op: OpCode(int32(binary.BigEndian.Uint32(buf[0:]))),
			R:  Register(int32(binary.BigEndian.Uint32(buf[4:]))),
			N:  int(int32(binary.BigEndian.Uint32(buf[8:]))),
			D:  int(int32(binary.BigEndian.Uint32(buf[12:]))),
		})
		if len(code) > PrimitiveBase {
			return nil, fmt.Errorf("object program exceeds the %d-word code store", PrimitiveBase)
		}
	}
}

// SaveObject writes code to the named file.
func SaveObject(path string, code []Instruction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteObject(f, code); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// LoadObject reads an object program from the named file.
func LoadObject(path string) ([]Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	code, err := ReadObject(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return code, nil
}

// Digest returns the BLAKE2b-256 digest of the object encoding of code.
func Digest(code []Instruction) [32]byte {
	h := newDigest()
	// Writes to a hash never fail.
	_ = WriteObject(h, code)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
