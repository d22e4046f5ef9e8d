// Command desktop runs a Triangle program in a window. Program output is
// shown on a character screen; typed keys become the program's input.
package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"gotam/pkg/compiler"
	"gotam/pkg/grid"
	"gotam/pkg/tam"
	"gotam/pkg/utils"
)

const (
	cols = 80
	rows = 30

	charWidth  = 7
	charHeight = 13
)

// keyboard is the machine's input: Read blocks until a key arrives or the
// window closes.
type keyboard struct {
	keys   chan byte
	closed chan struct{}
	once   sync.Once
}

func newKeyboard() *keyboard {
	return &keyboard{keys: make(chan byte, 256), closed: make(chan struct{})}
}

func (k *keyboard) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	select {
	case b := <-k.keys:
		p[0] = b
	case <-k.closed:
		return 0, io.EOF
	}
	n := 1
	for n < len(p) {
		select {
		case b := <-k.keys:
			p[n] = b
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Push queues b without blocking the game loop. Keys typed faster than the
// program reads them are dropped once the buffer is full.
func (k *keyboard) Push(b byte) {
	select {
	case k.keys <- b:
	default:
	}
}

func (k *keyboard) Close() {
	k.once.Do(func() { close(k.closed) })
}

// session is one run of a program on its own goroutine.
type session struct {
	screen *grid.Screen
	keys   *keyboard
	done   chan struct{}
	err    error
}

func start(code []tam.Instruction, maxSteps int) (*session, error) {
	m, err := tam.NewMachine(code)
	if err != nil {
		return nil, err
	}
	s := &session{
		screen: grid.NewScreen(cols, rows),
		keys:   newKeyboard(),
		done:   make(chan struct{}),
	}
	m.Input = s.keys
	m.Output = s.screen
	m.MaxSteps = maxSteps
	go func() {
		defer close(s.done)
		s.err = m.Run()
	}()
	return s, nil
}

// status describes the run for the window title bar line.
func (s *session) status() string {
	select {
	case <-s.done:
		if s.err != nil {
			return "stopped: " + s.err.Error()
		}
		return "halted"
	default:
		return "running"
	}
}

// Type echoes r to the screen and feeds it to the program.
func (s *session) Type(r rune) {
	if r > 0x7f {
		return
	}
	fmt.Fprintf(s.screen, "%c", r)
	s.keys.Push(byte(r))
}

type Game struct {
	s    *session
	face text.Face
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		g.s.Type(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.s.Type('\n')
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	for y, line := range g.s.screen.Lines() {
		if line == "" {
			continue
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(0, float64(y*charHeight))
		text.Draw(screen, line, g.face, op)
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(0, float64(rows*charHeight))
	op.ColorScale.ScaleWithColor(color.Gray{Y: 0x99})
	text.Draw(screen, g.s.status(), g.face, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cols * charWidth, (rows + 1) * charHeight
}

// load compiles a Triangle source, or reads an object file if path ends in
// .tam.
func load(path string) ([]tam.Instruction, error) {
	if filepath.Ext(path) == ".tam" {
		return tam.LoadObject(path)
	}
	src, err := utils.ReadSource(path)
	if err != nil {
		return nil, err
	}
	res := compiler.Compile(path, src, compiler.Options{Folding: true, Log: os.Stderr})
	if !res.Success {
		return nil, errors.New("compilation failed")
	}
	return res.Code, nil
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: desktop <program.tri | program.tam>")
	}
	fullPath, _, err := utils.GetPathInfo(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", os.Args[1], err)
	}
	code, err := load(fullPath)
	if err != nil {
		log.Fatalf("%s: %v", fullPath, err)
	}

	s, err := start(code, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer s.keys.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(2*cols*charWidth, 2*(rows+1)*charHeight)
	ebiten.SetWindowTitle("TAM Desktop - " + filepath.Base(fullPath))

	game := &Game{s: s, face: text.NewGoXFace(basicfont.Face7x13)}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
