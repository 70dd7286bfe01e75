package ionbal

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownIon indicates an ion name outside the supported set.
var ErrUnknownIon = errors.New("ionbal: unknown ion")

// Element is a chemical element tracked by the tables.
type Element int

const (
	Carbon Element = iota
	Nitrogen
	Oxygen
	Neon
	Magnesium
)

// Asplund et al. (2009) photospheric abundances, 12 + log10(n_X / n_H).
var solarLogEps = map[Element]float64{
	Carbon:    8.43,
	Nitrogen:  7.83,
	Oxygen:    8.69,
	Neon:      7.93,
	Magnesium: 7.60,
}

var elementSymbols = map[Element]string{
	Carbon:    "C",
	Nitrogen:  "N",
	Oxygen:    "O",
	Neon:      "Ne",
	Magnesium: "Mg",
}

func (e Element) String() string { return elementSymbols[e] }

// SolarAbundance is the solar number abundance of e relative to hydrogen.
func (e Element) SolarAbundance() float64 {
	return math.Pow(10, solarLogEps[e]-12)
}

// Ion is one ionisation state of an element. The zero value is invalid.
type Ion int

const (
	_ Ion = iota
	C4
	N5
	O6
	O7
	O8
	Ne8
	Ne9
	Mg10
)

type ionInfo struct {
	name    string
	element Element
	stage   int
}

var ions = map[Ion]ionInfo{
	C4:   {"c4", Carbon, 4},
	N5:   {"n5", Nitrogen, 5},
	O6:   {"o6", Oxygen, 6},
	O7:   {"o7", Oxygen, 7},
	O8:   {"o8", Oxygen, 8},
	Ne8:  {"ne8", Neon, 8},
	Ne9:  {"ne9", Neon, 9},
	Mg10: {"mg10", Magnesium, 10},
}

// Ions lists the supported ions in declaration order.
func Ions() []Ion {
	return []Ion{C4, N5, O6, O7, O8, Ne8, Ne9, Mg10}
}

// ParseIon accepts names such as "ne8", "Ne8" or "NE8".
func ParseIon(s string) (Ion, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for ion, info := range ions {
		if info.name == key {
			return ion, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIon, s)
}

// Valid reports whether i is one of the supported ions.
func (i Ion) Valid() bool {
	_, ok := ions[i]
	return ok
}

// Name is the lower-case identifier used in output keys, e.g. "ne8".
func (i Ion) Name() string {
	if info, ok := ions[i]; ok {
		return info.name
	}
	return fmt.Sprintf("ion(%d)", int(i))
}

func (i Ion) String() string { return i.Name() }

// Element returns the parent element.
func (i Ion) Element() Element { return ions[i].element }

// Stage is the spectroscopic ionisation stage (VI for O6 is 6).
func (i Ion) Stage() int { return ions[i].stage }

// MarshalText implements encoding.TextMarshaler.
func (i Ion) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIon, int(i))
	}
	return []byte(i.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Ion) UnmarshalText(b []byte) error {
	ion, err := ParseIon(string(b))
	if err != nil {
		return err
	}
	*i = ion
	return nil
}
