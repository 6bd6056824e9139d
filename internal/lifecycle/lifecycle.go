// Package lifecycle defines the transition validator consumed by the work
// engine, plus the config-driven graph implementation shipped with ripple.
//
// The engine never hard-codes any particular graph's legality rules; they
// arrive as data through a Config and are consulted through the Validator
// interface.
package lifecycle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ripplework/ripple/internal/types"
)

// Validator answers "is from -> to a legal move". Implementations must be
// pure: no side effects, no stored state consulted beyond construction.
type Validator interface {
	Validate(from, to string) bool
}

// Graph describes one lifecycle: its entry node, the adjacency map of legal
// transitions, and the nodes where pausing work is safe.
type Graph struct {
	Entry       string              `yaml:"entry"`
	Nodes       map[string][]string `yaml:"nodes"`
	PausePoints []string            `yaml:"pause_points"`
}

// Config holds every known lifecycle graph plus the work-type to lifecycle
// family mapping.
type Config struct {
	Lifecycles map[string]Graph          `yaml:"lifecycles"`
	Families   map[types.WorkType]string `yaml:"families"`
}

// DefaultConfig returns the built-in lifecycle set used when no config file
// exists. Callers that want different graphs load their own YAML.
func DefaultConfig() *Config {
	return &Config{
		Lifecycles: map[string]Graph{
			"implementation": {
				Entry: "backlog",
				Nodes: map[string][]string{
					"backlog": {"plan"},
					"plan":    {"do"},
					"do":      {"check"},
					"check":   {"done", "do"},
					"done":    {},
				},
				PausePoints: []string{"backlog", "check", "done"},
			},
			"investigation": {
				Entry: "backlog",
				Nodes: map[string][]string{
					"backlog":    {"explore"},
					"explore":    {"synthesize"},
					"synthesize": {"done"},
					"done":       {},
				},
				PausePoints: []string{"backlog", "synthesize", "done"},
			},
			"design": {
				Entry: "backlog",
				Nodes: map[string][]string{
					"backlog": {"draft"},
					"draft":   {"review"},
					"review":  {"done", "draft"},
					"done":    {},
				},
				PausePoints: []string{"backlog", "done"},
			},
			"validation": {
				Entry: "backlog",
				Nodes: map[string][]string{
					"backlog": {"verify"},
					"verify":  {"done"},
					"done":    {},
				},
				PausePoints: []string{"backlog", "done"},
			},
			"triage": {
				Entry: "backlog",
				Nodes: map[string][]string{
					"backlog":   {"reproduce"},
					"reproduce": {"fix"},
					"fix":       {"verify"},
					"verify":    {"done", "fix"},
					"done":      {},
				},
				PausePoints: []string{"backlog", "verify", "done"},
			},
		},
		Families: map[types.WorkType]string{
			types.TypeFeature:       "implementation",
			types.TypeChore:         "implementation",
			types.TypeBug:           "triage",
			types.TypeInvestigation: "investigation",
			types.TypeSpike:         "design",
		},
	}
}

// LoadConfig reads a lifecycle config from a YAML file. A missing file
// falls back to DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lifecycle config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse lifecycle config: %w", err)
	}
	if len(cfg.Lifecycles) == 0 {
		return nil, fmt.Errorf("lifecycle config %s defines no lifecycles", path)
	}
	return &cfg, nil
}

// Family returns the lifecycle family for a work type. Unmapped types fall
// back to implementation.
func (c *Config) Family(t types.WorkType) string {
	if family, ok := c.Families[t]; ok {
		return family
	}
	return "implementation"
}

// EntryNode returns the entry node of the lifecycle family for a work
// type, or "backlog" if the family is unknown.
func (c *Config) EntryNode(t types.WorkType) string {
	if graph, ok := c.Lifecycles[c.Family(t)]; ok && graph.Entry != "" {
		return graph.Entry
	}
	return "backlog"
}

// IsPausePoint reports whether node is a safe pause point for the work
// type's lifecycle family.
func (c *Config) IsPausePoint(t types.WorkType, node string) bool {
	graph, ok := c.Lifecycles[c.Family(t)]
	if !ok {
		return false
	}
	for _, p := range graph.PausePoints {
		if p == node {
			return true
		}
	}
	return false
}

// GraphValidator validates transitions against the union of every
// configured lifecycle graph: an edge is legal if any lifecycle allows it.
type GraphValidator struct {
	edges map[string]map[string]bool
}

// NewGraphValidator builds a validator from a lifecycle config.
func NewGraphValidator(cfg *Config) *GraphValidator {
	edges := make(map[string]map[string]bool)
	for _, graph := range cfg.Lifecycles {
		for from, tos := range graph.Nodes {
			if edges[from] == nil {
				edges[from] = make(map[string]bool)
			}
			for _, to := range tos {
				edges[from][to] = true
			}
		}
	}
	return &GraphValidator{edges: edges}
}

// Validate reports whether from -> to is a legal transition.
func (v *GraphValidator) Validate(from, to string) bool {
	return v.edges[from][to]
}
