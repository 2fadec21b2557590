//go:build !libass

package libass

import "github.com/gogpu/ggass/backend"

// init registers a nil-returning factory when the libass tag is not set.
// This allows code to compile without libass while still allowing
// backend.Get(backend.BackendLibass) to return nil gracefully.
func init() {
	backend.Register(backend.BackendLibass, func() backend.Backend {
		return nil
	})
}
