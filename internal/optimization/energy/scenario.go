package energy

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/HORIZON/internal/optimization"
)

// Generator is one node's cost curve and capacity as it appears in a
// scenario document.
type Generator struct {
	Quadratic float64 `yaml:"quadratic" json:"quadratic"`
	Linear    float64 `yaml:"linear" json:"linear"`
	Cap       float64 `yaml:"max_capacity" json:"max_capacity"`
}

// Scenario is the full description of one dispatch run: the network, the
// term weights, the discretization, and the initial state. The same schema
// serves YAML files for the CLI and JSON bodies for the dispatch API.
type Scenario struct {
	Name          string      `yaml:"name" json:"name"`
	Alpha         float64     `yaml:"alpha" json:"alpha"`
	Beta          float64     `yaml:"beta" json:"beta"`
	Gamma         float64     `yaml:"gamma" json:"gamma"`
	TimeHorizon   float64     `yaml:"time_horizon" json:"time_horizon"`
	Steps         int         `yaml:"steps" json:"steps"`
	MaxIterations int         `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64     `yaml:"tolerance" json:"tolerance"`
	ReserveFactor float64     `yaml:"reserve_factor" json:"reserve_factor"`
	Coupling      [][]float64 `yaml:"coupling" json:"coupling"`
	Generators    []Generator `yaml:"generators" json:"generators"`
	InitialState  []float64   `yaml:"initial_state" json:"initial_state"`
}

// DefaultScenario is the published 3-node reference network: a 24-hour
// horizon sampled hourly.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:        "three-node-reference",
		TimeHorizon: 24,
		Steps:       24,
		Coupling: [][]float64{
			{0, 0.2, 0.1},
			{0.2, 0, 0.15},
			{0.1, 0.15, 0},
		},
		Generators: []Generator{
			{Quadratic: 0.01, Linear: 10, Cap: 100},
			{Quadratic: 0.02, Linear: 15, Cap: 120},
			{Quadratic: 0.03, Linear: 20, Cap: 90},
		},
		InitialState: []float64{50, 60, 40, 0, 0, 0},
	}
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("energy: read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("energy: parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario for internal consistency.
func (s *Scenario) Validate() error {
	n := len(s.Generators)
	if n == 0 {
		return fmt.Errorf("energy: scenario has no generators")
	}
	if len(s.Coupling) != n {
		return fmt.Errorf("energy: coupling has %d rows for %d generators", len(s.Coupling), n)
	}
	for i, row := range s.Coupling {
		if len(row) != n {
			return fmt.Errorf("energy: coupling row %d has %d entries, want %d", i, len(row), n)
		}
	}
	if len(s.InitialState) != 0 && len(s.InitialState) != 2*n {
		return fmt.Errorf("energy: initial state has %d entries, want %d", len(s.InitialState), 2*n)
	}
	return nil
}

// Model builds the energy model described by the scenario.
func (s *Scenario) Model() (*Model, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := len(s.Generators)

	coupling := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			coupling.SetSym(i, j, s.Coupling[i][j])
		}
	}

	costs := make([]CostTriple, n)
	for i, g := range s.Generators {
		costs[i] = CostTriple{Quadratic: g.Quadratic, Linear: g.Linear, Cap: g.Cap}
	}

	return New(Config{
		Nodes:         n,
		Coupling:      coupling,
		Costs:         costs,
		ReserveFactor: s.ReserveFactor,
	})
}

// RunConfig maps the scenario's weights and discretization onto a run
// configuration; zero-valued fields fall back to the framework defaults.
func (s *Scenario) RunConfig() optimization.Config {
	cfg := optimization.Config{
		Weights:       optimization.Weights{Alpha: s.Alpha, Beta: s.Beta, Gamma: s.Gamma},
		TimeHorizon:   s.TimeHorizon,
		Steps:         s.Steps,
		MaxIterations: s.MaxIterations,
		Tolerance:     s.Tolerance,
	}
	return cfg
}

// Start returns the scenario's initial state, defaulting to the zero state
// when the document omits one.
func (s *Scenario) Start() []float64 {
	if len(s.InitialState) > 0 {
		return append([]float64(nil), s.InitialState...)
	}
	return make([]float64, 2*len(s.Generators))
}
