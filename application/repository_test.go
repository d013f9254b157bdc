package application

import (
	"context"

	"rpgbase-go/domain/trigger"
)

type memoryRepository struct {
	triggers []*trigger.Trigger
}

func (m *memoryRepository) FindAll(context.Context) ([]*trigger.Trigger, error) {
	return m.triggers, nil
}

func (m *memoryRepository) FindByName(_ context.Context, name string) (*trigger.Trigger, error) {
	for _, t := range m.triggers {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) Save(_ context.Context, t *trigger.Trigger) error {
	m.triggers = append(m.triggers, t)
	return nil
}

func (m *memoryRepository) Delete(context.Context, string) error { return nil }
