// Package led drives the board status LED of the single-board computer a rig
// runs on, mirroring whether the strip is lit, dormant or stopped.
package led

// Controller abstracts LED hardware control across different SBC boards.
// Implementations handle board-specific LED naming and capabilities.
type Controller interface {
	// Set controls an LED's state and optional pattern
	// Parameters:
	//   ledType: board-specific LED identifier (e.g., "act", "system", "green")
	//   enabled: whether the LED should be on or off
	//   pattern: optional pattern ("solid", "blink", "heartbeat"),
	//            empty string means no pattern change
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the list of LED types supported by this controller
	Available() []string

	// Patterns returns the list of patterns supported by this controller
	Patterns() []string
}

// preferredStatusLEDs lists the LED types used for rig status, most
// preferred first.
var preferredStatusLEDs = []string{"act", "system", "green", "user", "blue"}

// StatusLED picks the LED a Manager drives on this board. It returns "" when
// the controller has none.
func StatusLED(c Controller) string {
	available := c.Available()
	for _, want := range preferredStatusLEDs {
		for _, have := range available {
			if have == want {
				return have
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}
