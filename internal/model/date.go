package model

import (
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

// CalendarDate returns the calendar day of t as observed in loc, anchored at UTC midnight.
func CalendarDate(t time.Time, loc *time.Location) datatypes.Date {
	y, m, d := t.In(loc).Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func ParseDate(value string) (datatypes.Date, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(parsed), nil
}

func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

func AddDays(d datatypes.Date, days int) datatypes.Date {
	return datatypes.Date(time.Time(d).AddDate(0, 0, days))
}

func SameDate(a, b datatypes.Date) bool {
	ay, am, ad := time.Time(a).Date()
	by, bm, bd := time.Time(b).Date()
	return ay == by && am == bm && ad == bd
}

// Weekday returns the day index with Monday as 0 and Sunday as 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
