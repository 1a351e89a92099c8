package task

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

// Task is one account action applied through an account manager.
type Task interface {
	// Name identifies the task in logs and errors.
	Name() string
	Execute(ctx context.Context, m vesta.AccountManager) error
}

// Section turns one top-level manifest key into tasks.
type Section struct {
	Key string
	// Defaults names a file under defaults/ that the manifest section is
	// merged over. Empty means no defaults.
	Defaults string

	build func(raw any) ([]Task, error)
}

// NewSection returns a Section that decodes its manifest value into T
// before calling build. Unknown fields in the manifest are rejected.
func NewSection[T any](key, defaults string, build func(T) ([]Task, error)) Section {
	return Section{
		Key:      key,
		Defaults: defaults,
		build: func(raw any) ([]Task, error) {
			cfg, err := decodeSection[T](raw)
			if err != nil {
				return nil, err
			}
			return build(cfg)
		},
	}
}

// Tasks builds the tasks for the raw manifest value of the section.
func (s Section) Tasks(raw any) ([]Task, error) {
	if s.build == nil {
		return nil, fmt.Errorf("section %s has no builder", s.Key)
	}
	return s.build(raw)
}

func decodeSection[T any](raw any) (T, error) {
	var cfg T
	if raw == nil {
		return cfg, nil
	}

	// Round trip through YAML so the struct tags of T apply.
	data, err := yaml.Marshal(raw)
	if err != nil {
		return cfg, fmt.Errorf("encode section: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return cfg, fmt.Errorf("decode section: %w", err)
	}
	return cfg, nil
}
