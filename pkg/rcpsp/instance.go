// Package rcpsp loads single-resource scheduling instances from YAML and
// turns them into a bound store plus a cumulative constraint ready for
// propagation.
//
// The format is deliberately small: one resource capacity, an optional
// horizon, and a list of jobs with duration, demand and a start window.
//
//	name: demo
//	capacity: 4
//	horizon: 20
//	jobs:
//	  - { name: a, duration: 4, demand: 3, earliest: 0, latest: 0 }
//	  - { name: b, duration: 4, demand: 3, earliest: 0, latest: 10 }
package rcpsp

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gocumulative/pkg/cumulative"
)

// instanceValidate is the validator instance for instance files.
var instanceValidate *validator.Validate

func init() {
	instanceValidate = validator.New()
}

// JobSpec is one job of an instance file.
type JobSpec struct {
	Name     string `yaml:"name,omitempty"`
	Duration int    `yaml:"duration" validate:"gte=0"`
	Demand   int    `yaml:"demand" validate:"gte=0"`
	Earliest int    `yaml:"earliest" validate:"gte=0"`
	Latest   int    `yaml:"latest" validate:"gtefield=Earliest"`
}

// Window returns the whole interval the job may occupy, [earliest,
// latest+duration).
func (j JobSpec) Window() (int, int) {
	return j.Earliest, j.Latest + j.Duration
}

// Energy returns duration*demand.
func (j JobSpec) Energy() int64 {
	return int64(j.Duration) * int64(j.Demand)
}

// Instance is a parsed instance file.
type Instance struct {
	Name        string    `yaml:"name,omitempty"`
	Capacity    int       `yaml:"capacity" validate:"gt=0"`
	Horizon     int       `yaml:"horizon,omitempty" validate:"gte=0"`
	Jobs        []JobSpec `yaml:"jobs" validate:"min=1,dive"`
	Propagation *Params   `yaml:"propagation,omitempty"`
}

// Load reads and parses an instance file.
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instance file: %w", err)
	}
	return Parse(data)
}

// Parse parses instance YAML and validates it.
func Parse(data []byte) (*Instance, error) {
	var in Instance
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing instance file: %w", err)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// validate checks field constraints and horizon consistency.
func (in *Instance) validate() error {
	if err := instanceValidate.Struct(in); err != nil {
		return fmt.Errorf("invalid instance: %w", err)
	}
	if in.Horizon > 0 {
		for i, j := range in.Jobs {
			if j.Latest+j.Duration > in.Horizon {
				return fmt.Errorf("invalid instance: job %d (%s) ends at %d, beyond horizon %d",
					i, j.displayName(i), j.Latest+j.Duration, in.Horizon)
			}
		}
	}
	return nil
}

func (j JobSpec) displayName(i int) string {
	if j.Name != "" {
		return j.Name
	}
	return fmt.Sprintf("j%d", i)
}

// JobName returns the i-th job's name, or a generated one.
func (in *Instance) JobName(i int) string {
	return in.Jobs[i].displayName(i)
}

// TotalEnergy sums duration*demand over all jobs.
func (in *Instance) TotalEnergy() int64 {
	var sum int64
	for _, j := range in.Jobs {
		sum += j.Energy()
	}
	return sum
}

// MaxLct returns the latest completion time over all jobs.
func (in *Instance) MaxLct() int {
	m := 0
	for _, j := range in.Jobs {
		if lct := j.Latest + j.Duration; lct > m {
			m = lct
		}
	}
	return m
}

// EngineConfig returns the file's propagation block as an engine
// configuration, or the defaults when the block is absent.
func (in *Instance) EngineConfig() cumulative.Config {
	if in.Propagation == nil {
		return cumulative.DefaultConfig()
	}
	return in.Propagation.Config()
}

// Build registers one start variable per job, in file order, and returns
// the store together with the cumulative constraint over those variables.
// Variable i belongs to the i-th job of the file, including jobs the
// constraint drops for zero duration or demand.
func (in *Instance) Build() (*cumulative.IntervalStore, *cumulative.Constraint, error) {
	store := cumulative.NewIntervalStore()
	jobs := make([]cumulative.Job, len(in.Jobs))
	for i, j := range in.Jobs {
		id, err := store.AddVar(j.Earliest, j.Latest)
		if err != nil {
			return nil, nil, fmt.Errorf("job %d (%s): %w", i, j.displayName(i), err)
		}
		jobs[i] = cumulative.Job{Start: id, Duration: j.Duration, Demand: j.Demand}
	}
	c, err := cumulative.NewConstraint(in.Capacity, jobs)
	if err != nil {
		return nil, nil, err
	}
	if in.Name != "" {
		c.SetName(in.Name)
	}
	return store, c, nil
}
