package tsz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aaronlmathis/tsz/tsz/internal"
)

// DeclarationManifest is a batch of metric declarations loadable from a
// YAML document, mirroring the shape of the teacher's own YAML-driven
// config loader (internal/config.LoadServerConfig: os.ReadFile followed by
// yaml.Unmarshal into a typed struct). It exists for tests and tooling
// that want to declare a fixed set of metrics data-driven rather than with
// one NewMetric call per declaration; the hot write path never touches
// YAML.
type DeclarationManifest struct {
	Metrics []MetricDeclaration `yaml:"metrics"`
}

// MetricDeclaration is one entry of a DeclarationManifest: a metric name,
// its value kind, and the Options to declare it with. FieldNames and
// EntityLabelNames are parsed and kept on the declaration; DefineAll does
// not use them, since a declaration registers only name, kind and options.
type MetricDeclaration struct {
	Name             string   `yaml:"name"`
	Kind             string   `yaml:"kind"` // "bool" | "int" | "double" | "string" | "distribution"
	FieldNames       []string `yaml:"field_names,omitempty"`
	EntityLabelNames []string `yaml:"entity_label_names,omitempty"`
	Options          Options  `yaml:"options,omitempty"`
}

func parseValueKind(kind string) (ValueKind, error) {
	switch kind {
	case "bool":
		return ValueBoolKind, nil
	case "int":
		return ValueIntKind, nil
	case "double":
		return ValueDoubleKind, nil
	case "string":
		return ValueStringKind, nil
	case "distribution":
		return ValueDistributionKind, nil
	default:
		return 0, fmt.Errorf("tsz: unknown metric value kind %q", kind)
	}
}

// LoadManifest reads and parses a DeclarationManifest from a YAML file at
// path, the same read-then-unmarshal shape as the teacher's server config
// loader.
func LoadManifest(path string) (*DeclarationManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tsz: reading manifest %q: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses a DeclarationManifest from raw YAML bytes.
func ParseManifest(data []byte) (*DeclarationManifest, error) {
	var manifest DeclarationManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("tsz: parsing manifest: %w", err)
	}
	return &manifest, nil
}

// DefineAll declares every metric in the manifest with the global exporter,
// in the realm named by its Options.Realm or, when that is empty, the
// default realm, using the strict (non-redundant) declaration
// form so a manifest that names the same metric twice with conflicting
// options fails loudly at load time rather than being silently resolved
// by declaration order.
func (m *DeclarationManifest) DefineAll() error {
	exporter := internal.GlobalExporter()
	for _, decl := range m.Metrics {
		kind, err := parseValueKind(decl.Kind)
		if err != nil {
			return err
		}
		realm := decl.Options.Realm
		if realm == "" {
			realm = defaultRealm
		}
		if _, err := exporter.DefineMetric(realm, decl.Name, kind, decl.Options); err != nil {
			return fmt.Errorf("tsz: defining metric %q: %w", decl.Name, err)
		}
	}
	return nil
}
