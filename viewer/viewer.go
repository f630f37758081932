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

package viewer

import (
	"fmt"

	"github.com/Francesco149/hachicast/hachi"
	"github.com/Francesco149/hachicast/peripheral"
	tl "github.com/JoelOtter/termloop"
)

// screen origin in terminal cells
const (
	originX = 0
	originY = 2
)

// A Viewer is a termloop game that shows the most recent screen received.
type Viewer struct {
	g      *tl.Game
	screen *screenEntity
}

// New builds a viewer fed by messages.
func New(messages <-chan *peripheral.Message) *Viewer {
	g := tl.NewGame()
	s := newScreenEntity(g.Screen(), messages)
	g.Screen().AddEntity(s.status)
	g.Screen().AddEntity(s)
	return &Viewer{g: g, screen: s}
}

// Start runs the termloop game. It blocks until the user quits.
func (v *Viewer) Start() { v.g.Start() }

// Received returns the number of messages shown so far.
func (v *Viewer) Received() int { return v.screen.received }

// Dropped returns the number of messages with an unusable screen geometry.
func (v *Viewer) Dropped() int { return v.screen.dropped }

// screenEntity drains the message channel on every frame and toggles only
// the pixels that changed since the previous message.
type screenEntity struct {
	scr      *tl.Screen
	messages <-chan *peripheral.Message
	status   *tl.Text

	pixels        [][]*tl.Rectangle // [x][y]
	last          []byte
	width, height int
	received      int
	dropped       int
}

func newScreenEntity(scr *tl.Screen, messages <-chan *peripheral.Message) *screenEntity {
	s := &screenEntity{
		scr:      scr,
		messages: messages,
		status: tl.NewText(originX, 0, "Waiting for peripheral state...",
			tl.ColorDefault, tl.ColorDefault),
	}
	s.resize(hachi.Width, hachi.Height)
	return s
}

func (s *screenEntity) Draw(*tl.Screen) {
	var latest *peripheral.Message
	for done := false; !done; {
		select {
		case m, ok := <-s.messages:
			if !ok {
				done = true
				break
			}
			if validGeometry(m) {
				latest = m
			} else {
				s.dropped++
			}
		default:
			done = true
		}
	}
	if latest != nil {
		s.show(latest)
	}
}

func (s *screenEntity) Tick(tl.Event) {}

// validGeometry reports whether the packed screen of m matches its
// dimensions.
func validGeometry(m *peripheral.Message) bool {
	width, height := int(m.ScreenWidth), int(m.ScreenHeight)
	return width > 0 && height > 0 && width%8 == 0 &&
		len(m.Screen) == width*height/8
}

// show draws the screen of m. Messages with an unusable geometry are
// dropped and false is returned.
func (s *screenEntity) show(m *peripheral.Message) bool {
	if !validGeometry(m) {
		return false
	}

	width, height := int(m.ScreenWidth), int(m.ScreenHeight)
	if width != s.width || height != s.height {
		// resolution changes are unlikely, so just start over
		s.resize(width, height)
	}

	for _, p := range diffPixels(s.last, m.Screen, width, height) {
		if p.on {
			s.scr.AddEntity(s.pixels[p.x][p.y])
		} else {
			s.scr.RemoveEntity(s.pixels[p.x][p.y])
		}
	}
	copy(s.last, m.Screen)
	s.received++

	sound := "off"
	if m.Sound {
		sound = "on"
	}
	s.status.SetText(fmt.Sprintf("Screen: %v*%v, Keys: %016b, Sound: %s, Frames: %v",
		width, height, m.Keys, sound, s.received))
	return true
}

func (s *screenEntity) resize(width, height int) {
	for x := range s.pixels {
		for y := range s.pixels[x] {
			s.scr.RemoveEntity(s.pixels[x][y])
		}
	}

	s.width, s.height = width, height
	s.pixels = make([][]*tl.Rectangle, width)
	for x := 0; x < width; x++ {
		s.pixels[x] = make([]*tl.Rectangle, height)
		for y := 0; y < height; y++ {
			s.pixels[x][y] = tl.NewRectangle(originX+x, originY+y, 1, 1,
				tl.ColorWhite)
		}
	}
	s.last = make([]byte, width*height/8)
}

type pixelChange struct {
	x, y int
	on   bool
}

// diffPixels compares two packed screens of the given size and returns the
// pixels that were turned on or off. Bytes past the end of the screen are
// ignored.
func diffPixels(before, after []byte, width, height int) (changes []pixelChange) {
	rowBytes := width / 8
	if rowBytes == 0 || height <= 0 {
		return nil
	}

	for index := 0; index < len(before) && index < len(after); index++ {
		changed := before[index] ^ after[index]
		if changed == 0 {
			continue
		}
		y := index / rowBytes
		if y >= height {
			break
		}

		// iterate this group of 8 pixels and see what changed
		mask := uint8(0x80)
		for bit := 0; bit < 8; bit++ {
			x := index%rowBytes*8 + bit
			if changed&mask != 0 && x < width {
				changes = append(changes, pixelChange{
					x:  x,
					y:  y,
					on: after[index]&mask != 0,
				})
			}
			mask >>= 1
		}
	}
	return changes
}
