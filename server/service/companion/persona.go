// Package companion implements the chat-turn session pipeline: a session
// manager that owns one conversation transcript per (user, persona) pair,
// and a turn responder that talks to the generative provider.
package companion

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pkg/errors"
)

// PersonaID identifies one of the fixed, pre-authored companions.
type PersonaID string

const (
	PersonaMira   PersonaID = "mira"
	PersonaRutwik PersonaID = "rutwik"
)

func (id PersonaID) String() string {
	return string(id)
}

// Persona is a static, read-only companion definition.
type Persona struct {
	ID          PersonaID `yaml:"id"`
	Name        string    `yaml:"name"`
	Location    string    `yaml:"location"`
	Bio         string    `yaml:"bio"`
	Personality string    `yaml:"personality"`
	Emoji       string    `yaml:"emoji"`
}

// defaultPersonas is the built-in companion set.
var defaultPersonas = []Persona{
	{
		ID:          PersonaMira,
		Name:        "Mira",
		Location:    "Stockholm, Sweden",
		Bio:         "Creative soul from Stockholm who loves photography, fika, and deep conversations. Shy but playful.",
		Personality: "Empathetic, artistic, warm. Asks about feelings and creativity. Avoids cynicism.",
		Emoji:       "💜",
	},
	{
		ID:          PersonaRutwik,
		Name:        "Rutwik",
		Location:    "Los Angeles, USA",
		Bio:         "Ambitious tech enthusiast from LA. Loves hiking, big ideas, and playful banter. Confident and witty.",
		Personality: "Witty, playful, ambitious. Uses light sarcasm, challenges ideas. Talks tech, goals, adventure.",
		Emoji:       "💙",
	},
}

// Registry is the closed persona set. Lookups of unknown ids fail; there is
// no way to add personas at runtime.
type Registry struct {
	personas map[PersonaID]Persona
	order    []PersonaID
}

// NewRegistry returns a registry with the built-in persona set.
func NewRegistry() *Registry {
	return newRegistry(defaultPersonas)
}

// NewRegistryFromFile loads persona definitions from a YAML file. The file
// replaces the built-in set entirely, so deployments can reword bios without
// a rebuild.
func NewRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read persona config %s", path)
	}

	var personas []Persona
	if err := yaml.Unmarshal(data, &personas); err != nil {
		return nil, errors.Wrap(err, "failed to parse persona config")
	}
	if len(personas) == 0 {
		return nil, errors.New("persona config is empty")
	}
	for _, p := range personas {
		if p.ID == "" || p.Name == "" {
			return nil, errors.New("persona config entries require id and name")
		}
	}
	return newRegistry(personas), nil
}

func newRegistry(personas []Persona) *Registry {
	registry := &Registry{personas: make(map[PersonaID]Persona, len(personas))}
	for _, p := range personas {
		registry.personas[p.ID] = p
		registry.order = append(registry.order, p.ID)
	}
	return registry
}

// Get returns the persona for an id. The second return is false for ids
// outside the configured set.
func (r *Registry) Get(id PersonaID) (Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// List returns all personas in declaration order.
func (r *Registry) List() []Persona {
	list := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.personas[id])
	}
	return list
}
