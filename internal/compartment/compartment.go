// Package compartment defines the destination labels an item can be assigned to
// and the Layout that maps every item of a search to one of them.
package compartment

import (
	"strconv"
	"strings"
)

// Compartment identifies one destination group of a partition.
// The zero value marks an unassigned slot.
type Compartment uint8

const (
	Unassigned Compartment = iota
	Footwell
	LeftSaddle
	RightSaddle
	Trunk
)

var names = [...]string{
	Unassigned:  "unassigned",
	Footwell:    "footwell",
	LeftSaddle:  "left_saddle",
	RightSaddle: "right_saddle",
	Trunk:       "trunk",
}

func (c Compartment) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "compartment(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is one of the known, assignable compartments.
func (c Compartment) Valid() bool {
	return c >= Footwell && c <= Trunk
}

// Layout is the scratch assignment parallel to an item list.
type Layout []Compartment

// Clone returns an independent copy of the layout.
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	out := make(Layout, len(l))
	copy(out, l)
	return out
}

// Complete reports whether every slot carries a compartment.
func (l Layout) Complete() bool {
	for _, c := range l {
		if c == Unassigned {
			return false
		}
	}
	return true
}

// Fill labels every unassigned slot with c.
func (l Layout) Fill(c Compartment) {
	for i := range l {
		if l[i] == Unassigned {
			l[i] = c
		}
	}
}

// Count returns how many slots carry c.
func (l Layout) Count(c Compartment) int {
	n := 0
	for _, have := range l {
		if have == c {
			n++
		}
	}
	return n
}

func (l Layout) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range l {
		if i > 0 {
			b.WriteByte(' ')
		}
		if c == Unassigned {
			b.WriteByte('-')
			continue
		}
		b.WriteString(c.String())
	}
	b.WriteByte(']')
	return b.String()
}
