package cruiseconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// timerParser accepts six fields with seconds first, plus descriptors such as
// @daily. "?" is accepted in the day fields.
var timerParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// TimerConfig triggers a pipeline on a cron schedule.
type TimerConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Spec           string `yaml:"spec" json:"spec"`
	OnlyOnChanges  bool   `yaml:"only_on_changes,omitempty" json:"only_on_changes,omitempty"`
}

func NewTimerConfig(spec string, onlyOnChanges bool) *TimerConfig {
	return &TimerConfig{Spec: spec, OnlyOnChanges: onlyOnChanges}
}

func (t *TimerConfig) Validate(_ *ValidationContext) {
	if strings.TrimSpace(t.Spec) == "" {
		t.AddError("spec", "Timer Spec can not be null.")
		return
	}
	if _, err := timerParser.Parse(t.Spec); err != nil {
		t.AddError("spec", fmt.Sprintf("Invalid cron syntax: %s", err))
	}
}

// NextFire returns the first activation strictly after from.
func (t *TimerConfig) NextFire(from time.Time) (time.Time, error) {
	schedule, err := timerParser.Parse(t.Spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timer spec %q: %w", t.Spec, err)
	}
	return schedule.Next(from), nil
}
