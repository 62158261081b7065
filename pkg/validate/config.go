package validate

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrConfigInvalid is returned for configuration documents that cannot be used.
var ErrConfigInvalid = errors.New("validate: configuration invalid")

//go:embed configs/*.yaml
var defaultConfigFS embed.FS

// ColumnRule constrains one table column.
type ColumnRule struct {
	Header   string `yaml:"header"`
	Required bool   `yaml:"required"`
	NotEmpty bool   `yaml:"notEmpty"`
	// Unit requires numeric cells of the column to carry a unit.
	Unit bool `yaml:"unit"`
}

// Config declares the expectations for the study table or for the assays of
// one measurement/technology pair.
type Config struct {
	Name        string       `yaml:"name"`
	Study       bool         `yaml:"study"`
	Measurement string       `yaml:"measurement"`
	Technology  string       `yaml:"technology"`
	Columns     []ColumnRule `yaml:"columns"`
	// ProtocolSequence lists protocol types (or names, for untyped
	// protocols) every path of the table must execute in this order.
	ProtocolSequence []string `yaml:"protocolSequence"`
	// AllowedNodes lists the node headers the table may contain; empty
	// allows any.
	AllowedNodes []string `yaml:"allowedNodes"`
}

func (c *Config) label() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Study {
		return "study"
	}
	return c.Measurement + "/" + c.Technology
}

func (c *Config) allows(label string) bool {
	if len(c.AllowedNodes) == 0 {
		return true
	}
	for _, a := range c.AllowedNodes {
		if normHeader(a) == normHeader(label) {
			return true
		}
	}
	return false
}

// ConfigSet is the set of configurations of one validator invocation.
type ConfigSet struct {
	Study  *Config
	Assays []*Config
}

// ForAssay returns the configuration of a measurement/technology pair.
// Terms match case-insensitively.
func (cs *ConfigSet) ForAssay(measurement, technology string) *Config {
	if cs == nil {
		return nil
	}
	m, t := normTerm(measurement), normTerm(technology)
	for _, c := range cs.Assays {
		if normTerm(c.Measurement) == m && normTerm(c.Technology) == t {
			return c
		}
	}
	return nil
}

func normTerm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// DecodeConfig reads one YAML or JSON configuration document. Unknown keys
// are rejected.
func DecodeConfig(r io.Reader, name string) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, name, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	if !c.Study && (strings.TrimSpace(c.Measurement) == "" || strings.TrimSpace(c.Technology) == "") {
		return nil, fmt.Errorf("%w: %s: assay configuration needs measurement and technology", ErrConfigInvalid, name)
	}
	for i, col := range c.Columns {
		if strings.TrimSpace(col.Header) == "" {
			return nil, fmt.Errorf("%w: %s: column %d has no header", ErrConfigInvalid, name, i+1)
		}
	}
	return &c, nil
}

// LoadConfigs reads every *.yaml, *.yml and *.json document at the root of
// fsys, in name order.
func LoadConfigs(fsys fs.FS) (*ConfigSet, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("validate: list configurations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	set := &ConfigSet{}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("validate: read configuration %s: %w", name, err)
		}
		c, err := DecodeConfig(bytes.NewReader(data), name)
		if err != nil {
			return nil, err
		}
		if err := set.add(c, name); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// LoadConfigDir reads the configuration documents of a directory.
func LoadConfigDir(dir string) (*ConfigSet, error) {
	return LoadConfigs(os.DirFS(dir))
}

func (cs *ConfigSet) add(c *Config, name string) error {
	if c.Study {
		if cs.Study != nil {
			return fmt.Errorf("%w: %s: second study configuration (first is %s)", ErrConfigInvalid, name, cs.Study.label())
		}
		cs.Study = c
		return nil
	}
	if existing := cs.ForAssay(c.Measurement, c.Technology); existing != nil {
		return fmt.Errorf("%w: %s: %s/%s already configured by %s", ErrConfigInvalid, name, c.Measurement, c.Technology, existing.label())
	}
	cs.Assays = append(cs.Assays, c)
	return nil
}

var defaultConfigs = sync.OnceValues(func() (*ConfigSet, error) {
	sub, err := fs.Sub(defaultConfigFS, "configs")
	if err != nil {
		return nil, err
	}
	return LoadConfigs(sub)
})

// DefaultConfigs returns the built-in configuration set. The set is shared;
// callers must not modify it.
func DefaultConfigs() *ConfigSet {
	set, err := defaultConfigs()
	if err != nil {
		panic(fmt.Sprintf("validate: built-in configurations: %v", err))
	}
	return set
}
