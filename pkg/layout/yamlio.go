package layout

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a persisted Layout file for the orchestratord apply
// subcommand. The on-disk format itself belongs to the front-end and is
// out of scope; this is a thin decode-and-submit helper so the layout
// engine can be exercised end-to-end from the CLI.
func LoadYAML(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
