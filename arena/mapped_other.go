//go:build !linux && !darwin

package arena

// Mapped falls back to a heap-backed arena where anonymous mappings with
// deferred commit are not wired up.
type Mapped struct {
	*Mem
}

// NewMapped returns a heap-backed arena of maxSize bytes.
func NewMapped(maxSize int) (*Mapped, error) {
	return &Mapped{Mem: NewMem(maxSize)}, nil
}

// Committed returns the bytes below the break.
func (m *Mapped) Committed() int { return m.Hi() }

var _ Arena = (*Mapped)(nil)
