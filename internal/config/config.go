package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ctrlkit/pushopt/internal/model"
)

// Config is the yaml-loadable run description. CLI flags override loaded
// values at the command layer.
type Config struct {
	Model  model.Params   `yaml:"model"`
	Solver SolverSettings `yaml:"solver"`
	Run    RunSettings    `yaml:"run"`
}

// SolverSettings mirror the engine hyperparameters by their wire names.
type SolverSettings struct {
	TrustRegionTol    float64 `yaml:"trust_region_tol"`
	TrailTol          float64 `yaml:"trail_tol"`
	WeightedTolFactor float64 `yaml:"weighted_tol_factor"`
	Verbose           bool    `yaml:"verbose"`
}

type RunSettings struct {
	Experiments int       `yaml:"experiments"`
	GuessDir    string    `yaml:"guess_dir"`
	DataDir     string    `yaml:"data_dir"`
	Target      []float64 `yaml:"target"`
	Policy      string    `yaml:"policy"`
}

func Default() *Config {
	return &Config{
		Model: model.Default(),
		Solver: SolverSettings{
			TrustRegionTol:    1e-3,
			TrailTol:          1e-3,
			WeightedTolFactor: 10,
		},
		Run: RunSettings{
			Experiments: 30,
			GuessDir:    "guesses",
			DataDir:     ".pushopt",
			Target:      []float64{0, 0, 0, 0},
			Policy:      "halt",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
