package trigger

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// Dir is the directory of trigger files inside a loader filesystem.
const Dir = "triggers"

// yamlFile is the YAML structure of one trigger file.
type yamlFile struct {
	Triggers []yamlTrigger `yaml:"triggers"`
}

type yamlTrigger struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	On          string          `yaml:"on"`
	Once        bool            `yaml:"once"`
	Stop        bool            `yaml:"stop"`
	When        []yamlCondition `yaml:"when,omitempty"`
	Do          []yamlAction    `yaml:"do"`
}

type yamlCondition struct {
	Op    string `yaml:"op"`
	Key   string `yaml:"key"`
	Value int    `yaml:"value,omitempty"`
}

type yamlAction struct {
	Type    string         `yaml:"type"`
	Event   string         `yaml:"event,omitempty"`
	Data    map[string]any `yaml:"data,omitempty"`
	Script  string         `yaml:"script,omitempty"`
	Message string         `yaml:"message,omitempty"`
}

// Loader handles loading trigger definitions from various sources.
type Loader struct {
	registry *Registry
}

// NewLoader creates a new trigger loader that populates the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadFromFS loads every YAML file in the triggers directory of fsys.
// The registry is only replaced when all files parse and validate.
func (l *Loader) LoadFromFS(fsys fs.FS) error {
	triggers, err := ParseFS(fsys)
	if err != nil {
		return err
	}
	l.registry.Replace(triggers)
	return nil
}

// LoadFromRepository replaces the registry content with the stored triggers.
func (l *Loader) LoadFromRepository(ctx context.Context, repo Repository) error {
	triggers, err := repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load triggers: %w", err)
	}
	for _, t := range triggers {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	l.registry.Replace(triggers)
	return nil
}

// ParseFS parses and validates every trigger file without touching a registry.
func ParseFS(fsys fs.FS) ([]*Trigger, error) {
	entries, err := fs.ReadDir(fsys, Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read triggers directory: %w", err)
	}

	var triggers []*Trigger
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !IsTriggerFile(entry.Name()) {
			continue
		}

		file := path.Join(Dir, entry.Name())
		parsed, err := parseFile(fsys, file)
		if err != nil {
			return nil, err
		}
		for _, t := range parsed {
			if prev, ok := seen[t.Name]; ok {
				return nil, fmt.Errorf("%w: %s defined in %s and %s", ErrInvalidTrigger, t.Name, prev, file)
			}
			seen[t.Name] = file
		}
		triggers = append(triggers, parsed...)
	}

	return triggers, nil
}

// IsTriggerFile reports whether name has a YAML extension.
func IsTriggerFile(name string) bool {
	ext := path.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// parseFile loads a single trigger definition file.
func parseFile(fsys fs.FS, file string) ([]*Trigger, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read trigger file %s: %w", file, err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("failed to parse trigger file %s: %w", file, err)
	}

	triggers := make([]*Trigger, len(yf.Triggers))
	for i := range yf.Triggers {
		t := convertYAMLTrigger(&yf.Triggers[i])
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		triggers[i] = t
	}
	return triggers, nil
}

// convertYAMLTrigger converts a YAML trigger to a domain Trigger.
func convertYAMLTrigger(yt *yamlTrigger) *Trigger {
	t := &Trigger{
		Name:        yt.Name,
		Description: yt.Description,
		On:          yt.On,
		Once:        yt.Once,
		Stop:        yt.Stop,
		Conditions:  make([]Condition, len(yt.When)),
		Actions:     make([]Action, len(yt.Do)),
	}

	for i, yc := range yt.When {
		t.Conditions[i] = Condition{Op: Op(yc.Op), Key: yc.Key, Value: yc.Value}
	}
	for i, ya := range yt.Do {
		t.Actions[i] = Action{
			Type:    ActionType(ya.Type),
			Event:   ya.Event,
			Data:    ya.Data,
			Script:  ya.Script,
			Message: ya.Message,
		}
	}

	return t
}
