package depgraph

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/portfolio-backend/internal/matrix"
)

//go:embed catalog.yaml
var definitionFS embed.FS

// Definition is the module catalog plus the precedence graph shipped with it.
type Definition struct {
	Catalog *matrix.Catalog
	Graph   matrix.DependencyGraph
	// Fingerprint is a content hash of the definition file; it keys the
	// cached graph so an edited catalog never serves a stale one.
	Fingerprint string
}

type yamlDefinition struct {
	Version      int           `yaml:"version"`
	Modules      []string      `yaml:"modules"`
	Dependencies map[int][]int `yaml:"dependencies"`
}

// LoadDefinition reads the catalog definition from path, or from the embedded
// catalog.yaml when path is empty.
func LoadDefinition(path string) (*Definition, error) {
	var (
		raw []byte
		err error
	)
	path = strings.TrimSpace(path)
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = definitionFS.ReadFile("catalog.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog definition: %w", err)
	}
	return ParseDefinition(raw)
}

func ParseDefinition(raw []byte) (*Definition, error) {
	var doc yamlDefinition
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog definition: %w", err)
	}
	if doc.Version != 0 && doc.Version != 1 {
		return nil, fmt.Errorf("catalog definition version %d not supported", doc.Version)
	}
	if len(doc.Modules) == 0 {
		return nil, errors.New("catalog definition lists no modules")
	}
	catalog, err := matrix.NewCatalog(doc.Modules...)
	if err != nil {
		return nil, err
	}
	graph := make(matrix.DependencyGraph, len(doc.Dependencies))
	for m, preds := range doc.Dependencies {
		list := make([]matrix.Module, 0, len(preds))
		for _, p := range preds {
			list = append(list, matrix.Module(p))
		}
		graph[matrix.Module(m)] = list
	}
	if err := graph.Validate(catalog); err != nil {
		return nil, err
	}
	if _, err := Levels(catalog, graph); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	return &Definition{
		Catalog:     catalog,
		Graph:       graph,
		Fingerprint: hex.EncodeToString(sum[:8]),
	}, nil
}
