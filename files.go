package vibetracker

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ReadComposition parses a composition from YAML or JSON. The two formats
// share the field names, so the reader just tries both.
func ReadComposition(r io.Reader) (Composition, error) {
	var c Composition
	data, err := io.ReadAll(r)
	if err != nil {
		return c, fmt.Errorf("could not read composition: %w", err)
	}
	if errJSON := json.Unmarshal(data, &c); errJSON != nil {
		c = Composition{}
		if errYaml := yaml.Unmarshal(data, &c); errYaml != nil {
			return c, fmt.Errorf("the composition could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	return c, nil
}

// Write serializes the composition as YAML.
func (c *Composition) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("could not encode composition: %w", err)
	}
	return enc.Close()
}
