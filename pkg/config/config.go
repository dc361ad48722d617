package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/nudgedev/nudge/pkg/rule"
	"github.com/nudgedev/nudge/pkg/yaml"
)

//go:generate go run ../../internal/schemagen/main.go -o rule.v1beta1.json

var (
	//go:embed rules.yaml
	defaultRulesYAML []byte

	//go:embed rule.v1beta1.json
	schemaJSON []byte

	ValidAPIVersions = []string{
		"nudge.dev/v1beta1",
	}
	ValidKinds = []string{
		"Rule",
	}

	DefaultValidator = yaml.MustNewValidator("/rule.v1beta1.json", schemaJSON)
)

// Document is one trigger-rule document: metadata plus the rule itself.
// A rule file may contain several documents separated by `---`.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Document struct {
	*rule.Rule `json:",inline"`

	// APIVersion specifies the API version for this document.
	APIVersion string `json:"apiVersion,omitempty" jsonschema:"title=API Version"`
	// Kind defines the type of document.
	Kind string `json:"kind,omitempty" jsonschema:"title=Kind"`
}

func NewDocument() *Document {
	return &Document{
		APIVersion: ValidAPIVersions[0],
		Kind:       ValidKinds[0],
		Rule:       &rule.Rule{},
	}
}

// EnsureDefaults fills the document metadata when omitted, so bare rule
// documents (name/filters/actions only) remain valid.
func (d *Document) EnsureDefaults() {
	if d.APIVersion == "" {
		d.APIVersion = ValidAPIVersions[0]
	}
	if d.Kind == "" {
		d.Kind = ValidKinds[0]
	}
	if d.Rule == nil {
		d.Rule = &rule.Rule{}
	}
}

func (d Document) JSONSchemaExtend(jss *jsonschema.Schema) {
	apiVersion, ok := jss.Properties.Get("apiVersion")
	if !ok {
		panic("apiVersion property not found in schema")
	}

	for _, version := range ValidAPIVersions {
		apiVersion.OneOf = append(apiVersion.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: version,
			Title: "API Version",
		})
	}

	_, _ = jss.Properties.Set("apiVersion", apiVersion)

	kind, ok := jss.Properties.Get("kind")
	if !ok {
		panic("kind property not found in schema")
	}

	for _, kindValue := range ValidKinds {
		kind.OneOf = append(kind.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: kindValue,
			Title: "Kind",
		})
	}

	_, _ = jss.Properties.Set("kind", kind)
}

func (d *Document) MarshalYAML() ([]byte, error) {
	b := &bytes.Buffer{}
	enc := yaml.NewEncoder(b)
	err := enc.Encode(*d)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b.Bytes(), nil
}

// GetPath returns the rules file path, following XDG conventions.
func GetPath() string {
	if xdgHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgHome != "" {
		return filepath.Join(xdgHome, "nudge", "rules.yaml")
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", "nudge", "rules.yaml")
	}

	tmpRules := filepath.Join(os.TempDir(), "nudge", "rules.yaml")

	slog.Warn("could not determine user config directory, using temp path for rules",
		slog.String("path", tmpRules),
		slog.Any("error", fmt.Errorf("$XDG_CONFIG_HOME is unset, fall back to home directory: %w", err)),
	)

	return tmpRules
}

// WriteDefaultRules writes the embedded default rules.yaml and its JSON
// schema to the specified path.
func WriteDefaultRules(path string, force bool) error {
	rulesExist := false
	pathInfo, err := os.Stat(path)
	if pathInfo != nil {
		switch {
		case err == nil && pathInfo.Mode().IsRegular():
			rulesExist = true
		case pathInfo.IsDir():
			return fmt.Errorf("%s: path is a directory", path)
		default:
			return fmt.Errorf("%s: unknown file state", path)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if rulesExist && !force {
		slog.Debug("rules file already exists, skipping write",
			slog.String("path", path),
		)
	} else {
		slog.Info("write default rules",
			slog.String("path", path),
		)

		err = os.WriteFile(path, defaultRulesYAML, 0o600)
		if err != nil {
			return fmt.Errorf("write rules file: %w", err)
		}
	}

	// Write the JSON schema file alongside the rules file.
	schemaPath := filepath.Join(filepath.Dir(path), "rule.v1beta1.json")
	slog.Debug("write JSON schema",
		slog.String("path", schemaPath),
	)

	err = os.WriteFile(schemaPath, schemaJSON, 0o600)
	if err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}

	return nil
}

// DefaultRules returns the embedded default rule documents, compiled.
func DefaultRules() []*rule.Rule {
	loader := NewLoaderFromBytes(defaultRulesYAML)

	rules, issues := loader.Load()
	if len(issues) > 0 {
		panic(fmt.Sprintf("default rules are invalid: %v", issues[0]))
	}

	return rules
}

func readRules(path string) ([]byte, error) {
	pathInfo, err := os.Stat(path)
	if pathInfo != nil {
		if err == nil && pathInfo.IsDir() {
			return nil, fmt.Errorf("%s: path is a directory", path)
		}
		if err == nil && !pathInfo.Mode().IsRegular() {
			return nil, fmt.Errorf("%s: unknown file state", path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}
