// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package sensors

import (
	"errors"
	"fmt"

	"github.com/schmidtw/sdlogger/record"
	"github.com/schmidtw/sdlogger/sampler"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

var errNotStarted = errors.New("sensor not started")

type bmxx80Params struct {
	// Bus is the I2C bus name; empty selects the first bus.
	Bus string `mapstructure:"bus"`

	Address uint16 `mapstructure:"address"`
}

// bmxx80Sensor reads the temperature from a Bosch BMP180/BMP280/BME280 on
// I2C.
type bmxx80Sensor struct {
	params bmxx80Params
	bus    i2c.BusCloser
	dev    *bmxx80.Dev
}

func newBmxx80(_ *builder, kind record.Kind, params map[string]any) (sampler.Sensor, error) {
	if kind != record.Temperature {
		return nil, fmt.Errorf("%w: bmxx80 only provides temperature, not %s", ErrInvalidParams, kind)
	}

	p := bmxx80Params{
		Address: 0x76,
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	return &bmxx80Sensor{params: p}, nil
}

func (b *bmxx80Sensor) Kind() record.Kind {
	return record.Temperature
}

func (b *bmxx80Sensor) Begin() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(b.params.Bus)
	if err != nil {
		return fmt.Errorf("i2c open '%s': %w", b.params.Bus, err)
	}

	dev, err := bmxx80.NewI2C(bus, b.params.Address, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return fmt.Errorf("bmxx80 at 0x%02x: %w", b.params.Address, err)
	}

	b.bus = bus
	b.dev = dev
	return nil
}

func (b *bmxx80Sensor) Read() (record.Fields, error) {
	if b.dev == nil {
		return record.Fields{}, errNotStarted
	}

	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return record.Fields{}, err
	}

	return record.Fields{float32(e.Temperature.Celsius())}, nil
}

func (b *bmxx80Sensor) Close() error {
	if b.bus == nil {
		return nil
	}

	var err error
	if b.dev != nil {
		err = b.dev.Halt()
	}
	if e := b.bus.Close(); e != nil && err == nil {
		err = e
	}
	b.dev = nil
	b.bus = nil
	return err
}
