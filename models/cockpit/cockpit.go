// Package cockpit is the cockpit-access policy: who may enter the cockpit,
// and when, given a pin-operated door and crew that may become
// incapacitated.
package cockpit

import (
	_ "embed"

	"github.com/rfielding/kripke-smv/model"
)

//go:embed cockpit.yaml
var source []byte

// Source returns the policy as YAML.
func Source() []byte { return source }

// Load parses the embedded policy.
func Load() (*model.Document, error) {
	return model.Parse(source)
}
