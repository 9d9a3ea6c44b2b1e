// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager registers features and loads the enabled ones, in order,
// onto the Fiber router.
package loader
