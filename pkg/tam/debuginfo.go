package tam

import (
	"bytes"
	"errors"
	"fmt"
	"hash"
	"os"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// ErrStaleDebugInfo is returned when a debug sidecar was produced for a
// different object program.
var ErrStaleDebugInfo = errors.New("debug info does not match object program")

// DebugInfo accompanies an object program. Lines[a] is the source line that
// produced the instruction at code address a (0 if unknown).
type DebugInfo struct {
	Source   string         `cbor:"1,keyasint"`
	Digest   []byte         `cbor:"2,keyasint"`
	Lines    []int          `cbor:"3,keyasint"`
	Entities []EntityRecord `cbor:"4,keyasint,omitempty"`
}

// EntityRecord describes where the encoder placed one declared name.
type EntityRecord struct {
	Name         string `cbor:"1,keyasint"`
	Kind         string `cbor:"2,keyasint"`
	Level        int    `cbor:"3,keyasint"`
	Displacement int    `cbor:"4,keyasint"`
	Size         int    `cbor:"5,keyasint"`
	Line         int    `cbor:"6,keyasint"`
	Value        int    `cbor:"7,keyasint,omitempty"`
}

func newDigest() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}

// NewDebugInfo binds lines and entities to code by digest.
func NewDebugInfo(source string, code []Instruction, lines []int, entities []EntityRecord) *DebugInfo {
	sum := Digest(code)
	return &DebugInfo{Source: source, Digest: sum[:], Lines: lines, Entities: entities}
}

// Line returns the source line for code address addr.
func (d *DebugInfo) Line(addr int) int {
	if d == nil || addr < 0 || addr >= len(d.Lines) {
		return 0
	}
	return d.Lines[addr]
}

// Matches reports whether d was produced for code.
func (d *DebugInfo) Matches(code []Instruction) bool {
	sum := Digest(code)
	return bytes.Equal(d.Digest, sum[:])
}

// MarshalDebugInfo encodes d in canonical CBOR, so equal inputs produce equal
// files.
func MarshalDebugInfo(d *DebugInfo) ([]byte, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(d)
}

func UnmarshalDebugInfo(data []byte) (*DebugInfo, error) {
	var d DebugInfo
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding debug info: %w", err)
	}
	return &d, nil
}

// SaveDebugInfo writes d next to an object file.
func SaveDebugInfo(path string, d *DebugInfo) error {
	data, err := MarshalDebugInfo(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDebugInfo reads a sidecar and checks it against code.
func LoadDebugInfo(path string, code []Instruction) (*DebugInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := UnmarshalDebugInfo(data)
	if err != nil {
		return nil, err
	}
	if !d.Matches(code) {
		return nil, fmt.Errorf("%s: %w", path, ErrStaleDebugInfo)
	}
	return d, nil
}

// DebugPath returns the sidecar path for an object file.
func DebugPath(objectPath string) string {
	return objectPath + ".dbg"
}
