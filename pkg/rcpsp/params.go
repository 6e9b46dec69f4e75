package rcpsp

import (
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gocumulative/pkg/cumulative"
)

// Params is the optional propagation block of an instance file. It selects
// which rules run when the instance is propagated.
//
//	propagation:
//	  energetic: true
//	  max_rounds: 50
//
// Keys left out keep their defaults, matching cumulative.DefaultConfig.
type Params struct {
	CoreTimes          bool `yaml:"core_times"`
	HolePropagation    bool `yaml:"holes"`
	OverloadCheck      bool `yaml:"overload_check"`
	EdgeFinding        bool `yaml:"edge_finding"`
	EnergeticReasoning bool `yaml:"energetic"`
	ShortExplanations  bool `yaml:"short_explanations"`
	MaxRounds          int  `yaml:"max_rounds" validate:"gte=1"`
}

// DefaultParams mirrors cumulative.DefaultConfig.
func DefaultParams() Params {
	return fromConfig(cumulative.DefaultConfig())
}

func fromConfig(cfg cumulative.Config) Params {
	return Params{
		CoreTimes:          cfg.CoreTimes,
		HolePropagation:    cfg.HolePropagation,
		OverloadCheck:      cfg.OverloadCheck,
		EdgeFinding:        cfg.EdgeFinding,
		EnergeticReasoning: cfg.EnergeticReasoning,
		ShortExplanations:  cfg.ShortExplanations,
		MaxRounds:          cfg.MaxRounds,
	}
}

// Config converts the block to an engine configuration.
func (p Params) Config() cumulative.Config {
	return cumulative.Config{
		CoreTimes:          p.CoreTimes,
		HolePropagation:    p.HolePropagation,
		OverloadCheck:      p.OverloadCheck,
		EdgeFinding:        p.EdgeFinding,
		EnergeticReasoning: p.EnergeticReasoning,
		ShortExplanations:  p.ShortExplanations,
		MaxRounds:          p.MaxRounds,
	}
}

// UnmarshalYAML decodes over the defaults, so a partial block only
// overrides the keys it names.
func (p *Params) UnmarshalYAML(value *yaml.Node) error {
	type plain Params
	out := plain(DefaultParams())
	if err := value.Decode(&out); err != nil {
		return err
	}
	*p = Params(out)
	return nil
}
