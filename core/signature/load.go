package signature

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// Registry File Format
//
//	version: v1.0.0
//	commands:
//	  - name: ls
//	    description: list directory contents
//	    positional:
//	      - {name: path, shape: glob, optional: true}
//	    rest: {name: more, shape: path}
//	    flags:
//	      - {name: all, short: a}                  # switch
//	      - {name: depth, short: d, shape: int}    # value flag
//	      - {name: format, shape: string, required: true}
//	    excess: passthrough | error | truncate
//
// The version must be a semantic version with major version v1.

//go:embed registry.schema.json
var registrySchema string

const registrySchemaURL = "schema://signature-registry.json"

// SupportedMajor is the registry file major version this package reads.
const SupportedMajor = "v1"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(registrySchemaURL, strings.NewReader(registrySchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(registrySchemaURL)
})

type registryFile struct {
	Version  string        `yaml:"version"`
	Commands []commandSpec `yaml:"commands"`
}

type commandSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Positional  []paramSpec `yaml:"positional"`
	Rest        *paramSpec  `yaml:"rest"`
	Flags       []flagSpec  `yaml:"flags"`
	Excess      string      `yaml:"excess"`
}

type paramSpec struct {
	Name        string `yaml:"name"`
	Shape       string `yaml:"shape"`
	Optional    bool   `yaml:"optional"`
	Description string `yaml:"description"`
}

type flagSpec struct {
	Name        string `yaml:"name"`
	Short       string `yaml:"short"`
	Shape       string `yaml:"shape"`
	Required    bool   `yaml:"required"`
	Description string `yaml:"description"`
}

// ValidateDocument checks a registry document against the registry schema
// and the supported version range without building signatures.
func ValidateDocument(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("registry schema compilation failed: %w", err)
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("registry is not valid YAML: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("registry is not a document: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("registry does not match schema: %w", err)
	}

	version, _ := doc.(map[string]any)["version"].(string)
	return checkVersion(version)
}

func checkVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("registry version %q is not a semantic version", version)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("registry version %s is not supported (want %s.x)", version, SupportedMajor)
	}
	return nil
}

// ParseRegistry validates and decodes a registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var file registryFile
	if err := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict()).Decode(&file); err != nil {
		return nil, fmt.Errorf("registry decode failed: %w", err)
	}

	sigs := make([]*Signature, 0, len(file.Commands))
	seen := make(map[string]bool, len(file.Commands))
	for _, cmd := range file.Commands {
		if seen[cmd.Name] {
			return nil, fmt.Errorf("command %q is declared twice", cmd.Name)
		}
		seen[cmd.Name] = true

		sig, err := cmd.build()
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return NewRegistry(sigs...), nil
}

func (c commandSpec) build() (*Signature, error) {
	sig := Build(c.Name).Describe(c.Description)

	for _, p := range c.Positional {
		shape, err := resolveShape(c.Name, p.Name, p.Shape)
		if err != nil {
			return nil, err
		}
		if p.Optional {
			sig.Optional(p.Name, shape, p.Description)
		} else {
			sig.Required(p.Name, shape, p.Description)
		}
	}

	if c.Rest != nil {
		shape, err := resolveShape(c.Name, c.Rest.Name, c.Rest.Shape)
		if err != nil {
			return nil, err
		}
		sig.Rest(c.Rest.Name, shape, c.Rest.Description)
	}

	for _, f := range c.Flags {
		var short rune
		if f.Short != "" {
			short, _ = utf8.DecodeRuneInString(f.Short)
		}
		if f.Shape == "" || f.Shape == "switch" {
			if f.Required {
				return nil, fmt.Errorf("%s: switch --%s cannot be required", c.Name, f.Name)
			}
			sig.Switch(f.Name, short, f.Description)
			continue
		}
		shape, err := resolveShape(c.Name, f.Name, f.Shape)
		if err != nil {
			return nil, err
		}
		if f.Required {
			sig.RequiredNamed(f.Name, shape, short, f.Description)
		} else {
			sig.Named(f.Name, shape, short, f.Description)
		}
	}

	policy, err := ParseExcessPolicy(c.Excess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	sig.WithExcess(policy)

	if err := sig.Validate(); err != nil {
		return nil, err
	}
	return sig, nil
}

func resolveShape(command, param, name string) (Shape, error) {
	shape, ok := ParseShape(name)
	if !ok {
		return ShapeAny, fmt.Errorf("%s: parameter %q has unknown shape %q", command, param, name)
	}
	return shape, nil
}
