/*
	Copyright 2015 Franc[e]sco (lolisamurai@tfwno.gf)
	This file is part of hachicast.
	hachicast is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.
	hachicast is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.
	You should have received a copy of the GNU General Public License
	along with hachicast. If not, see <http://www.gnu.org/licenses/>.
*/

package hachi

import (
	"fmt"
	"sort"
)

// A Driver is an interface through which the emulator hands its peripheral
// state to the outside world, for example a display service.
// Drivers should be registered by the RegisterDriver function in init().
type Driver interface {
	// Called once when the emulator is created.
	OnInit(c *Chip8) error
	// Called after the program cleared the screen.
	Cls(c *Chip8) error
	// Called after the program drew a sprite.
	UpdateScreen(c *Chip8) error
	// Releases the resources held by the driver.
	Close() error
}

// A DriverOpener creates a driver from a set of driver specific parameters.
type DriverOpener func(params map[string]string) (Driver, error)

// -----------------------------------------------------------------------------

var drivers = map[string]DriverOpener{}

// RegisterDriver registers a driver to a name. The driver can then be opened
// with OpenDriver.
// This is not thread-safe, so don't call it concurrently to OpenDriver.
func RegisterDriver(name string, open DriverOpener) error {
	if drivers[name] != nil {
		return fmt.Errorf("Driver %s already exists.", name)
	}
	drivers[name] = open
	return nil
}

// UnregisterDriver removes a previously registered driver.
// This is not thread-safe, so don't call it concurrently to OpenDriver.
func UnregisterDriver(name string) error {
	if drivers[name] == nil {
		return fmt.Errorf("Driver %s does not exists.", name)
	}
	delete(drivers, name)
	return nil
}

// OpenDriver opens the driver registered under name.
func OpenDriver(name string, params map[string]string) (Driver, error) {
	open := drivers[name]
	if open == nil {
		return nil, fmt.Errorf("Driver %s not found.", name)
	}
	d, err := open(params)
	if err != nil {
		return nil, fmt.Errorf("opening driver %s: %w", name, err)
	}
	return d, nil
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------

// A NullDriver is the default driver, which ignores all calls.
type NullDriver struct{}

func (NullDriver) OnInit(c *Chip8) error       { return nil }
func (NullDriver) Cls(c *Chip8) error          { return nil }
func (NullDriver) UpdateScreen(c *Chip8) error { return nil }
func (NullDriver) Close() error                { return nil }

func init() {
	err := RegisterDriver("null", func(map[string]string) (Driver, error) {
		return NullDriver{}, nil
	})
	if err != nil {
		panic(err)
	}
}
