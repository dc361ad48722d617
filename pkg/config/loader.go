package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/nudgedev/nudge/pkg/rule"
	"github.com/nudgedev/nudge/pkg/yaml"
)

// Validator validates a decoded document against a schema.
type Validator interface {
	Validate(data any) error
}

// Issue reports one rule document that could not be loaded. Other documents
// in the same file are unaffected.
type Issue struct {
	Err  error
	Name string
	Doc  int
}

func (i Issue) Error() string {
	if i.Name != "" {
		return fmt.Sprintf("document %d (%s): %v", i.Doc, i.Name, i.Err)
	}

	return fmt.Sprintf("document %d: %v", i.Doc, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}

// Loader reads rule documents from a YAML stream. A stream may contain
// several documents separated by `---`; each is validated, decoded, and
// compiled independently, so one bad document never discards the others.
type Loader struct {
	validator Validator
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] over raw YAML data.
func NewLoaderFromBytes(data []byte, opts ...LoaderOpt) *Loader {
	l := &Loader{
		validator: DefaultValidator,
		data:      data,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.yamlError = yaml.NewErrorWrapper(
		yaml.WithSource(l.data),
	)

	return l
}

// NewLoaderFromFile creates a [Loader] over the contents of a rules file.
func NewLoaderFromFile(path string, opts ...LoaderOpt) (*Loader, error) {
	data, err := readRules(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	return NewLoaderFromBytes(data, opts...), nil
}

type LoaderOpt func(*Loader)

// WithValidator sets a custom schema validator.
func WithValidator(v Validator) LoaderOpt {
	return func(l *Loader) {
		l.validator = v
	}
}

// Validate checks every document in the stream against the schema, without
// decoding into [Document] structs. It returns the first error found.
func (l *Loader) Validate() error {
	dec := yaml.NewDecoder(bytes.NewReader(l.data))

	for {
		var anyDoc any

		err := dec.Decode(&anyDoc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return l.yamlError.Wrap(err)
		}

		if anyDoc == nil {
			continue // Empty document.
		}

		err = l.validator.Validate(anyDoc)
		if err != nil {
			return l.yamlError.Wrap(err)
		}
	}
}

// Load decodes, validates, and compiles every rule document in the stream.
// Documents that fail validation or compilation are reported as [Issue]s and
// excluded; the returned rules are all active. Rules keep their document
// order. A YAML syntax error aborts the whole stream, since document
// boundaries are no longer trustworthy.
func (l *Loader) Load() ([]*rule.Rule, []Issue) {
	var (
		rules  []*rule.Rule
		issues []Issue
	)

	// Two decoders advance over the same stream in lockstep: one yields the
	// raw document for schema validation, the other the typed document.
	decAny := yaml.NewDecoder(bytes.NewReader(l.data))
	decDoc := yaml.NewDecoder(bytes.NewReader(l.data))

	seen := map[string]struct{}{}

	for docIdx := 0; ; docIdx++ {
		var (
			anyDoc any
			doc    Document
		)

		errAny := decAny.Decode(&anyDoc)
		if errors.Is(errAny, io.EOF) {
			return rules, issues
		}
		if errAny != nil {
			issues = append(issues, Issue{Doc: docIdx, Err: l.yamlError.Wrap(errAny)})
			return rules, issues
		}

		errDoc := decDoc.Decode(&doc)

		if anyDoc == nil {
			continue // Empty document.
		}

		if err := l.validator.Validate(anyDoc); err != nil {
			issues = append(issues, Issue{Doc: docIdx, Name: docName(anyDoc), Err: l.yamlError.Wrap(err)})
			continue
		}

		if errDoc != nil {
			issues = append(issues, Issue{Doc: docIdx, Name: docName(anyDoc), Err: l.yamlError.Wrap(errDoc)})
			continue
		}

		doc.EnsureDefaults()

		if err := doc.Rule.Compile(); err != nil {
			issues = append(issues, Issue{Doc: docIdx, Name: doc.Rule.Name, Err: err})
			continue
		}

		if _, dup := seen[doc.Rule.Name]; dup {
			issues = append(issues, Issue{
				Doc:  docIdx,
				Name: doc.Rule.Name,
				Err:  fmt.Errorf("duplicate rule name %q", doc.Rule.Name),
			})

			continue
		}

		seen[doc.Rule.Name] = struct{}{}
		rules = append(rules, doc.Rule)
	}
}

// LoadPath loads rules from a file, or from every .yaml/.yml file in a
// directory (sorted by filename, so load order is stable across hosts).
func LoadPath(path string) ([]*rule.Rule, []Issue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat path: %w", err)
	}

	if !info.IsDir() {
		loader, err := NewLoaderFromFile(path)
		if err != nil {
			return nil, nil, err
		}

		rules, issues := loader.Load()

		return rules, issues, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rules directory: %w", err)
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}

	sort.Strings(files)

	var (
		rules  []*rule.Rule
		issues []Issue
	)

	for _, file := range files {
		loader, err := NewLoaderFromFile(file)
		if err != nil {
			issues = append(issues, Issue{Name: file, Err: err})
			continue
		}

		fileRules, fileIssues := loader.Load()
		rules = append(rules, fileRules...)
		issues = append(issues, fileIssues...)
	}

	return rules, issues, nil
}

func docName(anyDoc any) string {
	m, ok := anyDoc.(map[string]any)
	if !ok {
		return ""
	}

	name, _ := m["name"].(string)

	return name
}
