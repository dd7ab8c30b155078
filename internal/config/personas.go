package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persona is a named system prompt the backend prepends to every chat.
type Persona struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// PersonaConfig stores all personas
type PersonaConfig struct {
	Personas []Persona `json:"personas"`
}

// DefaultPersonas returns pre-configured personas. Replies are spoken aloud,
// so the prompts ask for short plain-text answers.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:         "default",
			Description:  "No system prompt",
			SystemPrompt: "",
		},
		{
			Name:        "assistant",
			Description: "Friendly voice assistant",
			SystemPrompt: `You are ALOK, a friendly voice assistant. Your answers are read aloud, so:
- Keep replies short and conversational
- Avoid markdown tables, code blocks and long lists
- Spell out symbols that do not read well aloud`,
		},
		{
			Name:        "tutor",
			Description: "Patient spoken tutor",
			SystemPrompt: `You are a patient tutor speaking to a learner. When explaining:
- Break complex topics into small steps
- Use everyday analogies
- End with a short question that checks understanding`,
		},
	}
}

// GetPersonasPath returns the path to the personas file
func GetPersonasPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personas.json"), nil
}

// LoadPersonas loads the persona configuration, merging user entries over
// the defaults.
func LoadPersonas() (*PersonaConfig, error) {
	path, err := GetPersonasPath()
	if err != nil {
		return nil, err
	}
	return LoadPersonasFile(path)
}

// LoadPersonasFile loads personas from path.
func LoadPersonasFile(path string) (*PersonaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PersonaConfig{Personas: DefaultPersonas()}, nil
		}
		return nil, fmt.Errorf("failed to read personas: %w", err)
	}

	var pc PersonaConfig
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}

	pc.Personas = mergePersonas(DefaultPersonas(), pc.Personas)
	return &pc, nil
}

// Find returns the persona with the given name.
func (pc *PersonaConfig) Find(name string) (*Persona, error) {
	for i := range pc.Personas {
		if pc.Personas[i].Name == name {
			return &pc.Personas[i], nil
		}
	}
	return nil, fmt.Errorf("persona '%s' not found", name)
}

// Names lists persona names in order.
func (pc *PersonaConfig) Names() []string {
	names := make([]string, len(pc.Personas))
	for i, p := range pc.Personas {
		names[i] = p.Name
	}
	return names
}

func mergePersonas(defaults, custom []Persona) []Persona {
	result := make([]Persona, len(defaults))
	copy(result, defaults)

	for _, cp := range custom {
		found := false
		for i, dp := range result {
			if dp.Name == cp.Name {
				result[i] = cp
				found = true
				break
			}
		}
		if !found {
			result = append(result, cp)
		}
	}

	return result
}
