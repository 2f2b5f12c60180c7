package chat

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/layer-3/warden/core"
)

// Personas maps an asset to the system prompt of its chat persona
type Personas map[core.AssetRef]string

var defaultFigures = map[core.AssetRef]string{
	"1":  "Augustus",
	"2":  "Claudius",
	"3":  "Hadrian",
	"4":  "Trajan",
	"5":  "Qin Shi Huang",
	"6":  "Queen Victoria",
	"7":  "Elagabalus",
	"8":  "Marcus Aurelius",
	"9":  "Napoleon",
	"10": "Nero",
	"11": "Vespasian",
	"12": "Justinian",
	"13": "Alexander the Great",
}

// DefaultPersonas returns the built-in historical rulers
func DefaultPersonas() Personas {
	p := make(Personas, len(defaultFigures))
	for asset, name := range defaultFigures {
		p[asset] = fmt.Sprintf("You are %s. Stay in character and answer as %s would, in the first person.", name, name)
	}
	return p
}

// LoadPersonas reads a JSON object of asset id to system prompt
func LoadPersonas(path string) (Personas, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read personas: %w", err)
	}

	var byID map[string]string
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}

	p := make(Personas, len(byID))
	for id, prompt := range byID {
		asset, err := core.ParseAssetRef(id)
		if err != nil {
			return nil, fmt.Errorf("persona key %q: %w", id, err)
		}
		p[asset] = prompt
	}
	return p, nil
}

// Lookup returns the persona prompt for asset
func (p Personas) Lookup(asset core.AssetRef) (string, bool) {
	prompt, ok := p[asset]
	return prompt, ok
}
