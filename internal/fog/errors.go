package fog

import "errors"

var (
	// ErrInconsistentSnapshot means the vision state could not produce a
	// valid frame this cycle. The worker skips the publish and waits for the
	// next request.
	ErrInconsistentSnapshot = errors.New("fog: inconsistent vision snapshot")
	// ErrTextureSize means the snapshot grid does not match the texture size.
	ErrTextureSize = errors.New("fog: texture size mismatch")
	// ErrStopped is returned by Manager operations after Close.
	ErrStopped = errors.New("fog: manager closed")
	// ErrStarted is returned when a manager is started twice or seeded late.
	ErrStarted = errors.New("fog: manager already started")
)
