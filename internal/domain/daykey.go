package domain

import (
	"fmt"
	"time"
)

// DayKey identifies one calendar day in the reference timezone. It is the
// natural key of a darshan record together with the temple id. The underlying
// time is always midnight in the location it was normalized with.
type DayKey time.Time

const dayKeyLayout = "2006-01-02"

// Relative day tokens accepted by the public retrieval endpoint.
const (
	TokenToday     = "today"
	TokenYesterday = "yesterday"
)

// NormalizeDay truncates t to the start of its calendar day in loc.
// Idempotent: normalizing an already-normalized key yields the same key.
func NormalizeDay(t time.Time, loc *time.Location) DayKey {
	lt := t.In(loc)
	return DayKey(time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc))
}

// ParseDay parses an explicit "YYYY-MM-DD" date in loc.
func ParseDay(s string, loc *time.Location) (DayKey, error) {
	t, err := time.ParseInLocation(dayKeyLayout, s, loc)
	if err != nil {
		return DayKey{}, fmt.Errorf("%w: bad date %q", ErrBadParams, s)
	}
	return DayKey(t), nil
}

// ResolveDayToken maps "today"/"yesterday" relative to now, or an explicit
// "YYYY-MM-DD" date, onto a day key. Anything else is ErrBadParams.
func ResolveDayToken(token string, now time.Time, loc *time.Location) (DayKey, error) {
	switch token {
	case TokenToday:
		return NormalizeDay(now, loc), nil
	case TokenYesterday:
		return NormalizeDay(now, loc).AddDays(-1), nil
	case "":
		return DayKey{}, fmt.Errorf("%w: empty day token", ErrBadParams)
	default:
		return ParseDay(token, loc)
	}
}

func (d DayKey) Time() time.Time { return time.Time(d) }

func (d DayKey) String() string { return time.Time(d).Format(dayKeyLayout) }

func (d DayKey) IsZero() bool { return time.Time(d).IsZero() }

// AddDays shifts the key by whole calendar days, staying on midnight even
// across DST transitions.
func (d DayKey) AddDays(n int) DayKey {
	t := time.Time(d)
	return DayKey(time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location()))
}

func (d DayKey) Before(o DayKey) bool { return time.Time(d).Before(time.Time(o)) }

func (d DayKey) Equal(o DayKey) bool { return time.Time(d).Equal(time.Time(o)) }

func (d DayKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *DayKey) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: bad day key %s", ErrBadParams, s)
	}
	t, err := time.Parse(dayKeyLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("%w: bad day key %s", ErrBadParams, s)
	}
	*d = DayKey(t)
	return nil
}
