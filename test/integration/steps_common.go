package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/identity"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/endpoints"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	instance     *ServerInstance
	configFile   []byte
	user         string
	response     *http.Response
	responseBody []byte
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// Close stops the scenario's server
func (s *StepsContext) Close() {
	if s.instance != nil {
		s.instance.Stop()
		s.instance = nil
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^the following config file:$`, s.theFollowingConfigFile)
	sc.Step(`^a server is running$`, s.aServerIsRunning)
	sc.Step(`^I am "([^"]*)"$`, s.iAm)

	// Request steps
	sc.Step(`^I GET "([^"]*)"$`, s.iGet)
	sc.Step(`^I validate the following config:$`, s.iValidateTheFollowingConfig)
	sc.Step(`^I save the following config:$`, s.iSaveTheFollowingConfig)
	sc.Step(`^I save the following config with md5 "([^"]*)":$`, s.iSaveTheFollowingConfigWithMd5)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
	sc.Step(`^the response should not contain "([^"]*)"$`, s.theResponseShouldNotContain)
	sc.Step(`^the response JSON "([^"]*)" should be "([^"]*)"$`, s.theResponseJSONShouldBe)
	sc.Step(`^the response should have the current config md5$`, s.theResponseShouldHaveTheCurrentConfigMd5)

	// Config steps
	sc.Step(`^the config file should contain "([^"]*)"$`, s.theConfigFileShouldContain)
	sc.Step(`^the served config should have (\d+) pipelines?$`, s.theServedConfigShouldHavePipelines)
}

// Background steps

func (s *StepsContext) theFollowingConfigFile(doc *godog.DocString) error {
	s.configFile = []byte(doc.Content)
	return nil
}

func (s *StepsContext) aServerIsRunning() error {
	instance, err := StartServer(s.tc, s.configFile)
	if err != nil {
		return err
	}
	s.instance = instance
	return nil
}

func (s *StepsContext) iAm(user string) error {
	s.user = user
	return nil
}

// Request steps

func (s *StepsContext) do(method, path string, body []byte, headers map[string]string) error {
	if s.instance == nil {
		return fmt.Errorf("no server is running")
	}
	req, err := http.NewRequest(method, s.instance.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if s.user != "" {
		req.Header.Set(identity.UserHeader, s.user)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) iGet(path string) error {
	return s.do("GET", path, nil, nil)
}

func (s *StepsContext) iValidateTheFollowingConfig(doc *godog.DocString) error {
	return s.do("POST", "/api/admin/config/validate", []byte(doc.Content), nil)
}

func (s *StepsContext) iSaveTheFollowingConfig(doc *godog.DocString) error {
	if s.instance == nil {
		return fmt.Errorf("no server is running")
	}
	md5 := s.instance.DataSource.Current().Md5
	return s.iSaveTheFollowingConfigWithMd5(md5, doc)
}

func (s *StepsContext) iSaveTheFollowingConfigWithMd5(md5 string, doc *godog.DocString) error {
	return s.do("PUT", "/api/admin/config", []byte(doc.Content), map[string]string{endpoints.Md5Header: md5})
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(string(s.responseBody), expected) {
		return fmt.Errorf("expected response to contain %q, got %s", expected, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldNotContain(unexpected string) error {
	if strings.Contains(string(s.responseBody), unexpected) {
		return fmt.Errorf("expected response not to contain %q, got %s", unexpected, string(s.responseBody))
	}
	return nil
}

// theResponseJSONShouldBe compares the value at a dotted path, e.g.
// "pipeline.stages.0.name", with its string form.
func (s *StepsContext) theResponseJSONShouldBe(path, expected string) error {
	var body interface{}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	value := body
	for _, key := range strings.Split(path, ".") {
		switch v := value.(type) {
		case map[string]interface{}:
			value = v[key]
		case []interface{}:
			var i int
			if _, err := fmt.Sscanf(key, "%d", &i); err != nil || i < 0 || i >= len(v) {
				return fmt.Errorf("no element %q at %s in %s", key, path, string(s.responseBody))
			}
			value = v[i]
		default:
			return fmt.Errorf("no key %q at %s in %s", key, path, string(s.responseBody))
		}
	}

	if actual := fmt.Sprint(value); actual != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, actual)
	}
	return nil
}

func (s *StepsContext) theResponseShouldHaveTheCurrentConfigMd5() error {
	actual := s.response.Header.Get(endpoints.Md5Header)
	if expected := s.instance.DataSource.Current().Md5; actual != expected {
		return fmt.Errorf("expected md5 header %q, got %q", expected, actual)
	}
	return nil
}
