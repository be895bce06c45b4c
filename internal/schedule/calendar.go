package schedule

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

var spanishDays = [7]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

var spanishMonths = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// NextBusinessDates walks the `window` calendar days strictly after `now` in
// the given location and returns the ones that fall on a weekday, as ISO
// dates in ascending order.
func NextBusinessDates(now time.Time, window int, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)

	dates := make([]string, 0, window)
	for i := 1; i <= window; i++ {
		day := today.AddDate(0, 0, i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, day.Format(isoDate))
	}
	return dates
}

// FormatSpanish renders an ISO date as "Lunes 2 de Marzo". Unparseable input
// is returned as-is so a malformed date never breaks an outgoing message.
func FormatSpanish(date string) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %d de %s", spanishDays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1])
}

// Today returns the current ISO date in the given location.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(isoDate)
}

// IsToday reports whether the ISO date matches the current day in loc.
func IsToday(date string, now time.Time, loc *time.Location) bool {
	return date == Today(now, loc)
}
