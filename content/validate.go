package content

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// ErrInvalidRange is returned when document coordinates do not fit its text.
var ErrInvalidRange = errors.New("invalid range")

func rangeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRange, fmt.Sprintf(format, args...))
}

// Validate checks document coordinates against its text. Converter clamps
// whatever it is given, so this is the place to reject broken payloads.
// All problems found are reported together.
func (d *Document) Validate() error {
	var (
		err    error
		length = utf8.RuneCountInString(d.Text)
	)

	if !utf8.ValidString(d.Text) {
		err = multierr.Append(err, errors.New("text is not valid UTF-8"))
	}

	prevEnd := -1
	for i, b := range d.Blocks {
		switch {
		case b.Start < 0 || b.End < b.Start || b.End > length:
			err = multierr.Append(err, rangeError("block %d [%d, %d] outside of text of length %d", i, b.Start, b.End, length))
		case b.Start <= prevEnd:
			err = multierr.Append(err, rangeError("block %d [%d, %d] overlaps previous block ending at %d", i, b.Start, b.End, prevEnd))
		}
		prevEnd = max(prevEnd, b.End)

		size := b.End - b.Start + 1
		for j, e := range b.Entities {
			if e.Start < 0 || e.End < e.Start || e.End > size {
				err = multierr.Append(err, rangeError("block %d entity %d [%d, %d) outside of block of length %d", i, j, e.Start, e.End, size))
			}
		}
	}

	for id, styles := range d.LayoutStyles {
		for j, s := range styles {
			if s.Start < 0 || s.End < s.Start || s.End > length {
				err = multierr.Append(err, rangeError("layout %q style %d [%d, %d) outside of text of length %d", id, j, s.Start, s.End, length))
			}
		}
	}

	seen := make(map[string]bool, len(d.Layouts))
	for i, l := range d.Layouts {
		switch {
		case l.ID == "":
			err = multierr.Append(err, fmt.Errorf("layout %d has no id", i))
		case seen[l.ID]:
			err = multierr.Append(err, fmt.Errorf("duplicate layout %q", l.ID))
		}
		seen[l.ID] = true
		if l.StartsWith < 0 || l.Exemplary <= 0 {
			err = multierr.Append(err, fmt.Errorf("layout %q has invalid widths: starts with %v, exemplary %v", l.ID, l.StartsWith, l.Exemplary))
		}
	}
	return err
}
