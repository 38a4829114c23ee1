package servicecli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

func unmarshalBindings(raw string, out *manifest.ServiceBindings) error {
	if raw == "" {
		return fmt.Errorf("empty --bindings")
	}
	return json.Unmarshal([]byte(raw), out)
}

func printManifest(man manifest.ServiceManifest) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(man)
}
