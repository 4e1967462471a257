package cruiseconfig

import (
	"reflect"
	"strings"
	"sync"
)

// FieldInfo describes an exported struct field of a config node.
type FieldInfo struct {
	Index      int
	Name       string
	YAMLName   string
	ErrorKey   string
	SkipWalk   bool
	SkipParams bool
}

// ConfigCache memoizes the field metadata of config types.
type ConfigCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

func NewConfigCache() *ConfigCache {
	return &ConfigCache{fields: map[reflect.Type][]FieldInfo{}}
}

// DefaultConfigCache is shared by the graph walker and the param resolver.
var DefaultConfigCache = NewConfigCache()

// Fields returns the metadata for every exported field of t. t may be a
// pointer to a struct.
func (c *ConfigCache) Fields(t reflect.Type) []FieldInfo {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	c.mu.RLock()
	fields, ok := c.fields[t]
	c.mu.RUnlock()
	if ok {
		return fields
	}

	fields = buildFieldInfo(t)

	c.mu.Lock()
	c.fields[t] = fields
	c.mu.Unlock()
	return fields
}

// ErrorKey returns the error key of the named Go field, or "" when unknown.
func (c *ConfigCache) ErrorKey(t reflect.Type, goName string) string {
	for _, f := range c.Fields(t) {
		if f.Name == goName {
			return f.ErrorKey
		}
	}
	return ""
}

func (c *ConfigCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fields)
}

func buildFieldInfo(t reflect.Type) []FieldInfo {
	var fields []FieldInfo
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		info := FieldInfo{Index: i, Name: sf.Name}

		yamlName := strings.Split(sf.Tag.Get("yaml"), ",")[0]
		switch yamlName {
		case "-":
			info.SkipWalk = true
			info.SkipParams = true
			yamlName = ""
		case "":
			yamlName = strings.ToLower(sf.Name)
		}
		info.YAMLName = yamlName

		info.ErrorKey = yamlName
		if key := sf.Tag.Get("errkey"); key != "" {
			info.ErrorKey = key
		}
		if sf.Tag.Get("walk") == "-" {
			info.SkipWalk = true
		}
		if sf.Tag.Get("param") == "skip" {
			info.SkipParams = true
		}

		fields = append(fields, info)
	}
	return fields
}
