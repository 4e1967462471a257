package cruiseconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// UnknownTagError is returned when a polymorphic list entry carries a tag
// that is not valid in its position.
type UnknownTagError struct {
	Tag  string
	Line int
	List string
}

func (e *UnknownTagError) Error() string {
	if e.Tag == "" || e.Tag == "!!map" {
		return fmt.Sprintf("line %d: %s entry requires a tag", e.Line, e.List)
	}
	return fmt.Sprintf("line %d: unknown %s tag %q", e.Line, e.List, e.Tag)
}

func unknownTag(node *yaml.Node, list string) error {
	return &UnknownTagError{Tag: node.Tag, Line: node.Line, List: list}
}

// UnknownFieldError is returned for a mapping key that the decoded type has
// no field for.
type UnknownFieldError struct {
	Field string
	Line  int
	Type  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("line %d: field %s not found in type %s", e.Line, e.Field, e.Type)
}

var unmarshalerType = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()

// checkKnownFields rejects mapping keys below node that t has no field for.
// yaml.v3 drops KnownFields once a custom UnmarshalYAML calls Node.Decode, so
// every such unmarshaler checks its own subtree. Values of types that
// unmarshal themselves are left to them.
func checkKnownFields(node *yaml.Node, t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	switch t.Kind() {
	case reflect.Struct:
		if node.Kind != yaml.MappingNode {
			return nil
		}
		fields := map[string]reflect.Type{}
		for _, f := range DefaultConfigCache.Fields(t) {
			if f.YAMLName != "" {
				fields[f.YAMLName] = t.Field(f.Index).Type
			}
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Value == "<<" {
				continue
			}
			ft, ok := fields[key.Value]
			if !ok {
				return &UnknownFieldError{Field: key.Value, Line: key.Line, Type: t.String()}
			}
			if err := checkValue(value, ft); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if node.Kind != yaml.SequenceNode {
			return nil
		}
		for _, n := range node.Content {
			if err := checkValue(n, t.Elem()); err != nil {
				return err
			}
		}
	case reflect.Map:
		if node.Kind != yaml.MappingNode {
			return nil
		}
		for i := 1; i < len(node.Content); i += 2 {
			if err := checkValue(node.Content[i], t.Elem()); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkValue(node *yaml.Node, t reflect.Type) error {
	if t.Implements(unmarshalerType) || reflect.PointerTo(t).Implements(unmarshalerType) {
		return nil
	}
	return checkKnownFields(node, t)
}

// Parse decodes a configuration document. Unknown fields are rejected.
func Parse(r io.Reader) (*CruiseConfig, error) {
	cfg := &CruiseConfig{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = CurrentSchemaVersion
	}
	return cfg, nil
}

func ParseBytes(data []byte) (*CruiseConfig, error) {
	return Parse(bytes.NewReader(data))
}

func ParseFile(path string) (*CruiseConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Marshal encodes cfg with two space indentation.
func Marshal(cfg *CruiseConfig) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// marshalYAMLWithTag encodes v, a method-less alias of a config node, as a
// mapping tagged with kind.
func marshalYAMLWithTag(v any, kind Kind) (interface{}, error) {
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}

	// Emit `- !exec` rather than `- !exec {}` for empty nodes.
	if len(node.Content) == 0 {
		node.Kind = yaml.ScalarNode
	}

	node.Tag = kind.Tag()
	node.Style = yaml.TaggedStyle
	return node, nil
}

// decodeTagged decodes node into target unless node is an empty scalar.
func decodeTagged(node *yaml.Node, target any) error {
	if node.Kind == yaml.ScalarNode && node.Value == "" {
		return nil
	}
	if err := checkKnownFields(node, reflect.TypeOf(target)); err != nil {
		return err
	}
	return node.Decode(target)
}

func (ts *Tasks) UnmarshalYAML(value *yaml.Node) error {
	var tasks Tasks
	for _, node := range value.Content {
		kind, _ := KindForTag(node.Tag)
		var task Task

		switch {
		case node.Tag == KindExec.Tag():
			task = &ExecTask{}
		case node.Tag == KindFetch.Tag():
			task = &FetchTask{}
		case node.Tag == KindFetchExternal.Tag():
			task = &FetchExternalTask{}
		default:
			return unknownTag(node, "task")
		}
		if err := decodeTagged(node, task); err != nil {
			return fmt.Errorf("line %d: invalid %s task: %w", node.Line, kind, err)
		}
		tasks = append(tasks, task)
	}
	*ts = tasks
	return nil
}

func (t *ExecTask) MarshalYAML() (interface{}, error) {
	type execTask ExecTask
	return marshalYAMLWithTag((*execTask)(t), KindExec)
}

func (t *FetchTask) MarshalYAML() (interface{}, error) {
	type fetchTask FetchTask
	return marshalYAMLWithTag((*fetchTask)(t), KindFetch)
}

func (t *FetchExternalTask) MarshalYAML() (interface{}, error) {
	type fetchExternalTask FetchExternalTask
	return marshalYAMLWithTag((*fetchExternalTask)(t), KindFetchExternal)
}

func (as *ArtifactConfigs) UnmarshalYAML(value *yaml.Node) error {
	var artifacts ArtifactConfigs
	for _, node := range value.Content {
		kind, ok := KindForTag(node.Tag)
		if !ok {
			return unknownTag(node, "artifact")
		}

		var artifact ArtifactConfig
		switch kind {
		case KindBuild, KindTest:
			artifact = &BuiltinArtifactConfig{Type: kind}
		case KindExternal:
			artifact = &ExternalArtifactConfig{}
		default:
			return unknownTag(node, "artifact")
		}
		if err := decodeTagged(node, artifact); err != nil {
			return fmt.Errorf("line %d: invalid %s artifact: %w", node.Line, kind, err)
		}
		artifacts = append(artifacts, artifact)
	}
	*as = artifacts
	return nil
}

func (a *BuiltinArtifactConfig) MarshalYAML() (interface{}, error) {
	type builtinArtifact BuiltinArtifactConfig
	return marshalYAMLWithTag((*builtinArtifact)(a), a.Type)
}

func (a *ExternalArtifactConfig) MarshalYAML() (interface{}, error) {
	type externalArtifact ExternalArtifactConfig
	return marshalYAMLWithTag((*externalArtifact)(a), KindExternal)
}

func (ms *MaterialConfigs) UnmarshalYAML(value *yaml.Node) error {
	var materials MaterialConfigs
	for _, node := range value.Content {
		var material MaterialConfig

		switch node.Tag {
		case KindGit.Tag():
			material = &GitMaterialConfig{AutoUpdate: true}
		case KindDependency.Tag():
			material = &DependencyMaterialConfig{}
		default:
			return unknownTag(node, "material")
		}
		if err := decodeTagged(node, material); err != nil {
			return fmt.Errorf("line %d: invalid %s material: %w", node.Line, material.Kind(), err)
		}
		materials = append(materials, material)
	}
	*ms = materials
	return nil
}

func (m *GitMaterialConfig) MarshalYAML() (interface{}, error) {
	type gitMaterial GitMaterialConfig
	return marshalYAMLWithTag((*gitMaterial)(m), KindGit)
}

func (m *DependencyMaterialConfig) MarshalYAML() (interface{}, error) {
	type dependencyMaterial DependencyMaterialConfig
	return marshalYAMLWithTag((*dependencyMaterial)(m), KindDependency)
}

func (rs *RolesConfig) UnmarshalYAML(value *yaml.Node) error {
	var roles RolesConfig
	for _, node := range value.Content {
		var role Role

		switch node.Tag {
		case KindRole.Tag():
			role = &RoleConfig{}
		case KindPluginRole.Tag():
			role = &PluginRoleConfig{}
		default:
			return unknownTag(node, "role")
		}
		if err := decodeTagged(node, role); err != nil {
			return fmt.Errorf("line %d: invalid %s: %w", node.Line, role.Kind(), err)
		}
		roles = append(roles, role)
	}
	*rs = roles
	return nil
}

func (r *RoleConfig) MarshalYAML() (interface{}, error) {
	type roleConfig RoleConfig
	return marshalYAMLWithTag((*roleConfig)(r), KindRole)
}

func (r *PluginRoleConfig) MarshalYAML() (interface{}, error) {
	type pluginRoleConfig PluginRoleConfig
	return marshalYAMLWithTag((*pluginRoleConfig)(r), KindPluginRole)
}
