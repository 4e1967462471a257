package integration

import (
	"fmt"
	"os"
	"strings"
)

func (s *StepsContext) theConfigFileShouldContain(expected string) error {
	content, err := os.ReadFile(s.instance.ConfigPath)
	if err != nil {
		return err
	}
	if !strings.Contains(string(content), expected) {
		return fmt.Errorf("expected config file to contain %q, got:\n%s", expected, string(content))
	}
	return nil
}

func (s *StepsContext) theServedConfigShouldHavePipelines(count int) error {
	h := s.instance.DataSource.Current()
	if h == nil {
		return fmt.Errorf("no config is loaded")
	}
	if n := len(h.Config.AllPipelines()); n != count {
		return fmt.Errorf("expected %d pipelines, got %d", count, n)
	}
	return nil
}
