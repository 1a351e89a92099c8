package task

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/goccy/go-yaml"
)

//go:embed defaults
var defaultsFS embed.FS

// Plan is the ordered list of tasks built from a manifest.
type Plan struct {
	Tasks []Task
	// Unknown holds the sorted manifest keys no section handles.
	Unknown []string
}

// LoadManifest reads a YAML manifest file into a generic map.
func LoadManifest(filePath string) (map[string]any, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", filePath, err)
	}
	var manifest map[string]any
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filePath, err)
	}
	if manifest == nil {
		manifest = map[string]any{}
	}
	return manifest, nil
}

// PlanManifest builds tasks section by section, in the order the sections
// are given. Sections missing from the manifest produce no tasks and their
// defaults are not applied.
func PlanManifest(manifest map[string]any, sections ...Section) (Plan, error) {
	var plan Plan
	handled := make(map[string]bool, len(sections))
	for _, s := range sections {
		if handled[s.Key] {
			return Plan{}, fmt.Errorf("duplicate manifest section: %s", s.Key)
		}
		handled[s.Key] = true

		raw, ok := manifest[s.Key]
		if !ok {
			continue
		}
		defaults, err := loadDefaults(s)
		if err != nil {
			return Plan{}, err
		}
		tasks, err := s.Tasks(overlay(defaults, raw))
		if err != nil {
			return Plan{}, fmt.Errorf("failed to create tasks for %s: %w", s.Key, err)
		}
		plan.Tasks = append(plan.Tasks, tasks...)
	}

	for key := range manifest {
		if !handled[key] {
			plan.Unknown = append(plan.Unknown, key)
		}
	}
	sort.Strings(plan.Unknown)
	return plan, nil
}

func loadDefaults(s Section) (map[string]any, error) {
	if s.Defaults == "" {
		return nil, nil
	}

	data, err := defaultsFS.ReadFile(path.Join("defaults", s.Defaults))
	if err != nil {
		return nil, fmt.Errorf("read defaults for %s: %w", s.Key, err)
	}

	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("parse defaults for %s: %w", s.Key, err)
	}
	return defaults, nil
}

// overlay merges raw over defaults. Nested maps merge key by key, any
// other value in raw replaces the default.
func overlay(defaults map[string]any, raw any) any {
	rawMap, ok := raw.(map[string]any)
	if !ok || defaults == nil {
		return raw
	}

	out := make(map[string]any, len(defaults)+len(rawMap))
	for key, value := range defaults {
		out[key] = value
	}
	for key, value := range rawMap {
		if base, ok := out[key].(map[string]any); ok {
			out[key] = overlay(base, value)
			continue
		}
		out[key] = value
	}
	return out
}
