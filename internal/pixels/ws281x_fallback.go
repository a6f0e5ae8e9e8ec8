//go:build !ws281x

package pixels

import "errors"

// newWS281x reports that the binary was built without the ws281x driver.
func newWS281x(_ Options) (Strip, error) {
	return nil, errors.New("ws281x driver not compiled in; rebuild with -tags ws281x")
}
