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
	"context"
	"time"
)

// Run runs the emulator, blocking the thread, until the context is done or
// Step returns an error. Steps are paced to Settings.InstructionsPerSecond and
// the timers are decremented at Settings.TimerFrequency, both from the calling
// goroutine.
func (c *Chip8) Run(ctx context.Context) error {
	cycle := time.NewTicker(time.Second / time.Duration(c.settings.InstructionsPerSecond))
	defer cycle.Stop()

	// a nil channel never fires, which disables the timer decay
	var timerC <-chan time.Time
	if c.settings.TimerFrequency > 0 {
		timer := time.NewTicker(time.Second / time.Duration(c.settings.TimerFrequency))
		defer timer.Stop()
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timerC:
			c.DecrementTimers()
		case <-cycle.C:
			if err := c.Step(); err != nil {
				return err
			}
		}
	}
}
