package terrain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidLevel = errors.New("terrain: invalid level")

// Box fills every cell between From and To inclusive.
type Box struct {
	From [3]int `yaml:"from"`
	To   [3]int `yaml:"to"`
}

// CameraSpec is the authored camera orientation, euler degrees.
type CameraSpec struct {
	Rotation [3]float64 `yaml:"rotation"`
}

// Level is the YAML description of a playable grid.
type Level struct {
	Name     string     `yaml:"name"`
	CubeSize float64    `yaml:"cube_size"`
	Spawn    [3]float64 `yaml:"spawn"`
	Camera   CameraSpec `yaml:"camera"`
	Cubes    [][3]int   `yaml:"cubes"`
	Boxes    []Box      `yaml:"boxes"`
	Hazards  [][3]int   `yaml:"hazards"`
	Keys     [][3]int   `yaml:"keys"`
	Exit     *[3]int    `yaml:"exit"`
	ExitOpen bool       `yaml:"exit_open"`

	grid *Grid
}

func LoadLevel(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open level: %w", err)
	}
	defer f.Close()

	lvl, err := DecodeLevel(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lvl, nil
}

func DecodeLevel(r io.Reader) (*Level, error) {
	var lvl Level
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lvl); err != nil {
		return nil, fmt.Errorf("decode level: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	lvl.build()
	return &lvl, nil
}

func (l *Level) Validate() error {
	if l.CubeSize < 0 {
		return fmt.Errorf("%w: negative cube_size", ErrInvalidLevel)
	}
	if len(l.Cubes) == 0 && len(l.Boxes) == 0 {
		return fmt.Errorf("%w: no cubes", ErrInvalidLevel)
	}
	if len(l.Keys) > 0 && l.ExitOpen {
		return fmt.Errorf("%w: exit_open with keys to collect", ErrInvalidLevel)
	}
	if len(l.Keys) > 0 && l.Exit == nil {
		return fmt.Errorf("%w: keys without an exit", ErrInvalidLevel)
	}
	for i, b := range l.Boxes {
		for a := 0; a < 3; a++ {
			if b.From[a] > b.To[a] {
				return fmt.Errorf("%w: box %d has from > to on axis %d", ErrInvalidLevel, i, a)
			}
		}
	}
	return nil
}

func (l *Level) build() {
	g := NewGrid(l.CubeSize)
	for _, c := range l.Cubes {
		g.AddSolid(Cell{c[0], c[1], c[2]})
	}
	for _, b := range l.Boxes {
		for x := b.From[0]; x <= b.To[0]; x++ {
			for y := b.From[1]; y <= b.To[1]; y++ {
				for z := b.From[2]; z <= b.To[2]; z++ {
					g.AddSolid(Cell{x, y, z})
				}
			}
		}
	}
	for _, h := range l.Hazards {
		g.AddHazard(Cell{h[0], h[1], h[2]})
	}
	for _, k := range l.Keys {
		g.AddKey(Cell{k[0], k[1], k[2]})
	}
	if l.Exit != nil {
		e := *l.Exit
		g.SetExit(Cell{e[0], e[1], e[2]})
	}
	l.grid = g
}

// Grid returns the terrain built from the level cells.
func (l *Level) Grid() *Grid {
	if l.grid == nil {
		l.build()
	}
	return l.grid
}

func (l *Level) SpawnPoint() mgl64.Vec3 {
	return mgl64.Vec3(l.Spawn)
}

func (l *Level) CameraEuler() mgl64.Vec3 {
	return mgl64.Vec3(l.Camera.Rotation)
}

// Digest fingerprints the solid geometry so results can be tied to level
// content rather than file names.
func (l *Level) Digest() uint64 {
	h := xxhash.New()
	var buf [12]byte
	for _, c := range l.Grid().SolidCells() {
		binary.LittleEndian.PutUint32(buf[0:], uint32(int32(c.X)))
		binary.LittleEndian.PutUint32(buf[4:], uint32(int32(c.Y)))
		binary.LittleEndian.PutUint32(buf[8:], uint32(int32(c.Z)))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
