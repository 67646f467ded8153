package matrix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Module is a 1-based position in a Catalog.
type Module int

// Catalog is the fixed, ordered module list for a workspace. It is immutable
// once built and safe to share.
type Catalog struct {
	names []string
	index map[string]Module
}

func NewCatalog(names ...string) (*Catalog, error) {
	if len(names) == 0 {
		return nil, errors.New("catalog must contain at least one module")
	}
	c := &Catalog{
		names: make([]string, 0, len(names)),
		index: make(map[string]Module, len(names)),
	}
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("catalog module %d has no name", i+1)
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("catalog module %q listed twice", name)
		}
		c.names = append(c.names, name)
		c.index[name] = Module(i + 1)
	}
	return c, nil
}

// NumberedCatalog returns "Module 1" .. "Module n".
func NumberedCatalog(n int) *Catalog {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Module %d", i+1)
	}
	c, err := NewCatalog(names...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int { return len(c.names) }

func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.names))
	for i := range out {
		out[i] = Module(i + 1)
	}
	return out
}

func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Catalog) Contains(m Module) bool {
	return m >= 1 && int(m) <= len(c.names)
}

func (c *Catalog) Name(m Module) string {
	if !c.Contains(m) {
		return fmt.Sprintf("Module %d", int(m))
	}
	return c.names[m-1]
}

// Lookup resolves a module by display name or by its 1-based index.
func (c *Catalog) Lookup(raw string) (Module, error) {
	raw = strings.TrimSpace(raw)
	if m, ok := c.index[raw]; ok {
		return m, nil
	}
	if n, err := strconv.Atoi(raw); err == nil && c.Contains(Module(n)) {
		return Module(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModule, raw)
}

// WireKey renders an edge the way the optimization service expects:
// "<from name>-<to name>".
func (c *Catalog) WireKey(k EdgeKey) string {
	return c.Name(k.From) + "-" + c.Name(k.To)
}

func (c *Catalog) ParseWireKey(raw string) (EdgeKey, error) {
	raw = strings.TrimSpace(raw)
	for i := 0; i < len(raw); i++ {
		if raw[i] != '-' {
			continue
		}
		from, errFrom := c.Lookup(raw[:i])
		to, errTo := c.Lookup(raw[i+1:])
		if errFrom == nil && errTo == nil {
			return EdgeKey{From: from, To: to}, nil
		}
	}
	return EdgeKey{}, fmt.Errorf("%w: edge key %q", ErrUnknownModule, raw)
}
