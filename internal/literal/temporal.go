package literal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(text string) (Date, error) {
	t, err := time.Parse("2006-01-02", text)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date literal %s", text)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// TimeOfDay is a clock time with nanosecond precision.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond > 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
		s += "." + frac
	}
	return s
}

// ParseTimeOfDay parses hh:mm[:ss[.fffffffff]].
func ParseTimeOfDay(text string) (TimeOfDay, error) {
	bad := fmt.Errorf("invalid timeofday literal %s", text)
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, bad
	}
	var tod TimeOfDay
	var err error
	if tod.Hour, err = clockField(parts[0], 23); err != nil {
		return TimeOfDay{}, bad
	}
	if tod.Minute, err = clockField(parts[1], 59); err != nil {
		return TimeOfDay{}, bad
	}
	if len(parts) == 3 {
		sec, frac, hasFrac := strings.Cut(parts[2], ".")
		if tod.Second, err = clockField(sec, 59); err != nil {
			return TimeOfDay{}, bad
		}
		if hasFrac {
			if frac == "" || len(frac) > 9 {
				return TimeOfDay{}, bad
			}
			n, convErr := strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
			if convErr != nil {
				return TimeOfDay{}, bad
			}
			tod.Nanosecond = n
		}
	}
	return tod, nil
}

func clockField(s string, hi int) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("clock field %q must have two digits", s)
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > hi {
		return 0, fmt.Errorf("clock field %q out of range", s)
	}
	return v, nil
}

// ParseDuration parses an ISO 8601 day-time duration: [-]P[nD][T[nH][nM][n[.f]S]].
func ParseDuration(text string) (time.Duration, error) {
	bad := fmt.Errorf("invalid duration literal %s", text)
	s := text
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if len(s) < 2 || (s[0] != 'P' && s[0] != 'p') {
		return 0, bad
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	seen := false
	for len(s) > 0 {
		if s[0] == 'T' || s[0] == 't' {
			if inTime {
				return 0, bad
			}
			inTime = true
			s = s[1:]
			if s == "" {
				return 0, bad
			}
			continue
		}
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, bad
		}
		number, designator := s[:i], s[i]
		s = s[i+1:]

		var unit time.Duration
		switch {
		case !inTime && (designator == 'D' || designator == 'd'):
			unit = 24 * time.Hour
		case inTime && (designator == 'H' || designator == 'h'):
			unit = time.Hour
		case inTime && (designator == 'M' || designator == 'm'):
			unit = time.Minute
		case inTime && (designator == 'S' || designator == 's'):
			unit = time.Second
		default:
			return 0, bad
		}
		if strings.Contains(number, ".") && unit != time.Second {
			return 0, bad
		}
		v, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, bad
		}
		total += time.Duration(v * float64(unit))
		seen = true
	}
	if !seen {
		return 0, bad
	}
	if negative {
		total = -total
	}
	return total, nil
}
