package clicommon

import (
	"fmt"
	"strconv"
)

// LevelledFlag counts how many times a boolean flag was given, so `-vv` means level 2. An explicit number
// (`--verbose=3`) sets the level directly and `--verbose=false` lowers it by one.
type LevelledFlag int

func (f *LevelledFlag) Set(s string) error {
	if on, err := strconv.ParseBool(s); err == nil {
		switch {
		case on:
			*f++
		case *f > 0:
			*f--
		}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid level %q: expected a boolean or a number", s)
	}
	if n < 0 {
		return fmt.Errorf("invalid level %d: must not be negative", n)
	}
	*f = LevelledFlag(n)
	return nil
}

func (f *LevelledFlag) Type() string {
	return "level"
}

func (f *LevelledFlag) String() string {
	return strconv.Itoa(int(*f))
}
