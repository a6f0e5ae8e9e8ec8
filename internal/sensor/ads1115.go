package sensor

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

var channels = []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// ads1115 reads a photoresistor divider through an ADS1115 ADC on I2C.
type ads1115 struct {
	bus i2c.BusCloser
	pin ads1x15.PinADC
}

// NewADS1115 opens the I2C bus and configures one single-ended channel.
func NewADS1115(busName string, channel int) (LightSensor, error) {
	if channel < 0 || channel >= len(channels) {
		return nil, fmt.Errorf("ads1115 channel %d out of range 0-3", channel)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", busName, err)
	}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open ads1115: %w", err)
	}

	pin, err := adc.PinForChannel(channels[channel], 5*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to configure ads1115 channel %d: %w", channel, err)
	}

	return &ads1115{bus: bus, pin: pin}, nil
}

func (a *ads1115) Read(_ context.Context) (int, error) {
	sample, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read ads1115: %w", err)
	}
	return int(sample.Raw), nil
}

func (a *ads1115) Close() error {
	if err := a.pin.Halt(); err != nil {
		a.bus.Close()
		return err
	}
	return a.bus.Close()
}
