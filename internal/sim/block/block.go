package block

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ID identifies a block type. Zero is air.
type ID uint8

const (
	Empty ID = iota
	Grass
	Dirt
	Sand
	Snow
	Stone
	Log
	Leaves
	Cloud
	Bush
	Bluebell
	Dandelion
	Lavender
	Rose
	Water
	Count
)

var names = [Count]string{
	Empty:     "EMPTY",
	Grass:     "GRASS",
	Dirt:      "DIRT",
	Sand:      "SAND",
	Snow:      "SNOW",
	Stone:     "STONE",
	Log:       "LOG",
	Leaves:    "LEAVES",
	Cloud:     "CLOUD",
	Bush:      "BUSH",
	Bluebell:  "BLUEBELL",
	Dandelion: "DANDELION",
	Lavender:  "LAVENDER",
	Rose:      "ROSE",
	Water:     "WATER",
}

// Setter receives chunk-local block writes; out-of-range coordinates are
// ignored by implementations.
type Setter interface {
	SetBlock(x, y, z int, id ID)
}

// Face selects an atlas tile.
type Face int

const (
	Side Face = iota
	Top
	Bottom
	faceCount
)

//go:embed blocks.json
var defaultCatalog []byte

//go:embed blocks.schema.json
var catalogSchema string

type Def struct {
	ID       string `json:"id"`
	Opaque   bool   `json:"opaque"`
	Sprite   bool   `json:"sprite"`
	Shadow   bool   `json:"shadow"`
	Shadowed bool   `json:"shadowed"`
	Top      [2]int `json:"top"`
	Bottom   [2]int `json:"bottom"`
	Side     [2]int `json:"side"`
}

type catalogFile struct {
	Version int   `json:"version"`
	Blocks  []Def `json:"blocks"`
}

// Catalog holds the static per-block properties the mesher reads.
type Catalog struct {
	opaque   [Count]bool
	sprite   [Count]bool
	shadow   [Count]bool
	shadowed [Count]bool
	atlas    [Count][faceCount][2]uint8
	index    map[string]ID
}

func (c *Catalog) Opaque(id ID) bool   { return c.opaque[id] }
func (c *Catalog) Sprite(id ID) bool   { return c.sprite[id] }
func (c *Catalog) Shadow(id ID) bool   { return c.shadow[id] }
func (c *Catalog) Shadowed(id ID) bool { return c.shadowed[id] }

// Atlas returns the atlas tile of one face.
func (c *Catalog) Atlas(id ID, f Face) (u, v int) {
	t := c.atlas[id][f]
	return int(t[0]), int(t[1])
}

func (c *Catalog) Lookup(name string) (ID, bool) {
	id, ok := c.index[name]
	return id, ok
}

func Name(id ID) string {
	if id >= Count {
		return fmt.Sprintf("BLOCK_%d", id)
	}
	return names[id]
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("blocks.schema.json", catalogSchema)
	})
	return schema, schemaErr
}

// Load validates a JSON block catalog and indexes it. Every non-empty block
// must be defined exactly once.
func Load(raw []byte) (*Catalog, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("blocks schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	var f catalogFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	c := &Catalog{index: make(map[string]ID, Count)}
	for id := ID(0); id < Count; id++ {
		c.index[names[id]] = id
	}
	seen := map[ID]bool{}
	for _, d := range f.Blocks {
		id, ok := c.index[d.ID]
		if !ok {
			return nil, fmt.Errorf("blocks.json: unknown block %q", d.ID)
		}
		if id == Empty {
			return nil, fmt.Errorf("blocks.json: %s cannot be defined", d.ID)
		}
		if seen[id] {
			return nil, fmt.Errorf("blocks.json: duplicate block %q", d.ID)
		}
		seen[id] = true
		c.opaque[id] = d.Opaque
		c.sprite[id] = d.Sprite
		c.shadow[id] = d.Shadow
		c.shadowed[id] = d.Shadowed
		c.atlas[id][Top] = [2]uint8{uint8(d.Top[0]), uint8(d.Top[1])}
		c.atlas[id][Bottom] = [2]uint8{uint8(d.Bottom[0]), uint8(d.Bottom[1])}
		c.atlas[id][Side] = [2]uint8{uint8(d.Side[0]), uint8(d.Side[1])}
	}
	for id := ID(1); id < Count; id++ {
		if !seen[id] {
			return nil, fmt.Errorf("blocks.json: missing block %q", names[id])
		}
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which only a broken build can cause.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultCatalog)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}
