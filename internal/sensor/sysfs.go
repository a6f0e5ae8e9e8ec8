package sensor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultSysfsPath is the first IIO device's illuminance channel.
const DefaultSysfsPath = "/sys/bus/iio/devices/iio:device0/in_illuminance_raw"

// sysfs reads an integer from an IIO raw value file.
type sysfs struct {
	path string
}

// NewSysfs creates a sysfs sensor reading path.
func NewSysfs(path string) (LightSensor, error) {
	if path == "" {
		path = DefaultSysfsPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("light sensor %s not available: %w", path, err)
	}
	return &sysfs{path: path}, nil
}

func (s *sysfs) Read(_ context.Context) (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read light sensor: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse light sensor value %q: %w", strings.TrimSpace(string(data)), err)
	}
	return v, nil
}

func (s *sysfs) Close() error {
	return nil
}
