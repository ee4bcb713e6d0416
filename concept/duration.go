package concept

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration is an ISO-8601 duration (PnYnMnDTnHnMnS). No example repo in
// the pack imports an ISO-8601 duration library, so this hand-rolled
// encoder is the package's other deliberate standard-library-only type
// (documented in DESIGN.md alongside Decimal).
type Duration struct {
	Years, Months, Days          int64
	Hours, Minutes               int64
	Seconds                      float64
}

// String formats d per ISO-8601, e.g. "P1Y2M3DT4H5M6.5S".
func (d Duration) String() string {
	var b strings.Builder
	b.WriteByte('P')
	writeUnit(&b, d.Years, 'Y')
	writeUnit(&b, d.Months, 'M')
	writeUnit(&b, d.Days, 'D')

	if d.Hours != 0 || d.Minutes != 0 || d.Seconds != 0 {
		b.WriteByte('T')
		writeUnit(&b, d.Hours, 'H')
		writeUnit(&b, d.Minutes, 'M')
		if d.Seconds != 0 {
			s := strconv.FormatFloat(d.Seconds, 'f', -1, 64)
			b.WriteString(s)
			b.WriteByte('S')
		}
	}
	if b.Len() == 1 {
		return "P0D"
	}
	return b.String()
}

func writeUnit(b *strings.Builder, v int64, unit byte) {
	if v != 0 {
		fmt.Fprintf(b, "%d%c", v, unit)
	}
}

// ParseDuration parses an ISO-8601 duration string of the form
// P[nY][nM][nD][T[nH][nM][nS]].
func ParseDuration(s string) (Duration, error) {
	if len(s) == 0 || s[0] != 'P' {
		return Duration{}, fmt.Errorf("duration must start with 'P': %q", s)
	}
	rest := s[1:]
	datePart, timePart, hasTime := strings.Cut(rest, "T")

	var d Duration
	if err := parseDurationFields(datePart, map[byte]*int64{
		'Y': &d.Years, 'M': &d.Months, 'D': &d.Days,
	}, nil); err != nil {
		return Duration{}, err
	}
	if hasTime {
		if err := parseDurationFields(timePart, map[byte]*int64{
			'H': &d.Hours, 'M': &d.Minutes,
		}, &d.Seconds); err != nil {
			return Duration{}, err
		}
	}
	return d, nil
}

// parseDurationFields consumes runs of "<number><unit>" from s, writing
// integer units into intFields and, if present, the 'S' unit (which may
// carry a fractional component) into secondsOut.
func parseDurationFields(s string, intFields map[byte]*int64, secondsOut *float64) error {
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			if c != '.' {
				numText := s[start:i]
				if c == 'S' && secondsOut != nil {
					v, err := strconv.ParseFloat(numText, 64)
					if err != nil {
						return fmt.Errorf("invalid seconds component %q: %w", numText, err)
					}
					*secondsOut = v
				} else if field, ok := intFields[c]; ok {
					v, err := strconv.ParseInt(numText, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid %c component %q: %w", c, numText, err)
					}
					*field = v
				} else {
					return fmt.Errorf("unrecognized duration unit %q in %q", string(c), s)
				}
				start = i + 1
			}
		}
	}
	return nil
}
