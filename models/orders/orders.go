// Package orders models the lifecycle of a single order with a billing
// module deciding whether it was paid.
package orders

import (
	_ "embed"

	"github.com/rfielding/kripke-smv/model"
)

//go:embed orders.yaml
var source []byte

// Load parses the embedded model.
func Load() (*model.Document, error) {
	return model.Parse(source)
}
