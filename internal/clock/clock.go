// Package clock provides the simulated calendar: fractional hours rolling
// into days, months, and years on a fixed calendar.
package clock

import (
	"fmt"
	"math"
)

// MonthsPerYear is fixed; only the month length is configurable.
const MonthsPerYear = 12

// DefaultDaysPerMonth is used when a clock is built with a non-positive month length.
const DefaultDaysPerMonth = 30

// Season is derived from the month in four fixed bands.
type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

var seasonNames = [4]string{"Spring", "Summer", "Autumn", "Winter"}

func (s Season) String() string {
	if int(s) < len(seasonNames) {
		return seasonNames[s]
	}
	return fmt.Sprintf("Season(%d)", s)
}

// SeasonOf maps a month (1–12) to its season.
func SeasonOf(month int) Season {
	switch month {
	case 12, 1, 2:
		return Winter
	case 3, 4, 5:
		return Spring
	case 6, 7, 8:
		return Summer
	default:
		return Autumn
	}
}

// Phase is the coarse time of day.
type Phase uint8

const (
	Night Phase = iota // 0–6
	Morning            // 6–12
	Afternoon          // 12–18
	Evening            // 18–22
	Late               // 22–24
)

var phaseNames = [5]string{"night", "morning", "afternoon", "evening", "late"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", p)
}

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Date is a calendar day.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Before reports whether d falls strictly before o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// YearsSince returns the number of whole years from birth to d.
func (d Date) YearsSince(birth Date) int {
	years := d.Year - birth.Year
	if d.Month < birth.Month || (d.Month == birth.Month && d.Day < birth.Day) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func (d Date) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// Stamp is an absolute simulated instant in hours since the clock's origin.
type Stamp float64

// Days returns the stamp expressed in days.
func (s Stamp) Days() float64 {
	return float64(s) / 24
}

// Clock holds the current simulated time. All fields are exported so the
// checkpoint schema can capture them without reflection tricks.
type Clock struct {
	Hour         float64 `json:"hour"` // 0 <= Hour < 24
	Day          int     `json:"day"`
	Month        int     `json:"month"`
	Year         int     `json:"year"`
	TotalDays    int     `json:"total_days"`
	TotalHours   float64 `json:"total_hours"`
	DaysPerMonth int     `json:"days_per_month"`
}

// New creates a clock starting at the given date and hour.
func New(start Date, hour float64, daysPerMonth int) *Clock {
	if daysPerMonth <= 0 {
		daysPerMonth = DefaultDaysPerMonth
	}
	c := &Clock{
		Day:          start.Day,
		Month:        start.Month,
		Year:         start.Year,
		DaysPerMonth: daysPerMonth,
	}
	if c.Month < 1 || c.Month > MonthsPerYear {
		c.Month = 1
	}
	if c.Day < 1 || c.Day > daysPerMonth {
		c.Day = 1
	}
	if hour > 0 && hour < 24 {
		c.Hour = hour
	}
	return c
}

// MaxAdvanceHours bounds a single Advance; larger requests are clamped.
const MaxAdvanceHours = 1e15

// Advance moves the clock forward by a fractional number of hours and
// returns the dates entered along the way, oldest first. Only the last
// calendar year of dates is listed, so each calendar day appears at most
// once. Non-positive or non-finite input leaves the clock untouched.
func (c *Clock) Advance(hours float64) []Date {
	if !(hours > 0) || math.IsInf(hours, 0) {
		return nil
	}
	hours = min(hours, MaxAdvanceHours)
	c.TotalHours += hours

	h := c.Hour + hours
	days := int(math.Floor(h / 24))
	c.Hour = h - float64(days)*24
	if c.Hour >= 24 {
		c.Hour -= 24
		days++
	}
	if c.Hour < 0 {
		c.Hour = 0
	}
	if days == 0 {
		return nil
	}

	listed := min(days, MonthsPerYear*c.DaysPerMonth)
	c.skipDays(days - listed)
	entered := make([]Date, 0, listed)
	for i := 0; i < listed; i++ {
		c.rollDay()
		entered = append(entered, c.Date())
	}
	return entered
}

// skipDays moves the calendar n days forward in one step.
func (c *Clock) skipDays(n int) {
	if n <= 0 {
		return
	}
	perYear := MonthsPerYear * c.DaysPerMonth
	idx := c.Year*perYear + (c.Month-1)*c.DaysPerMonth + (c.Day - 1) + n
	c.TotalDays += n
	c.Year = idx / perYear
	rem := idx % perYear
	c.Month = rem/c.DaysPerMonth + 1
	c.Day = rem%c.DaysPerMonth + 1
}

func (c *Clock) rollDay() {
	c.TotalDays++
	c.Day++
	if c.Day > c.DaysPerMonth {
		c.Day = 1
		c.Month++
		if c.Month > MonthsPerYear {
			c.Month = 1
			c.Year++
		}
	}
}

// Date returns the current calendar day.
func (c *Clock) Date() Date {
	return Date{Day: c.Day, Month: c.Month, Year: c.Year}
}

// Now returns the absolute simulated instant.
func (c *Clock) Now() Stamp {
	return Stamp(c.TotalHours)
}

// Season derives the season from the current month.
func (c *Clock) Season() Season {
	return SeasonOf(c.Month)
}

// Weekday returns 0 (Monday) through 6 (Sunday).
func (c *Clock) Weekday() int {
	return c.TotalDays % 7
}

// IsWeekend reports whether today is Saturday or Sunday.
func (c *Clock) IsWeekend() bool {
	return c.Weekday() >= 5
}

// Phase returns the time-of-day band for the current hour.
func (c *Clock) Phase() Phase {
	switch h := c.Hour; {
	case h < 6:
		return Night
	case h < 12:
		return Morning
	case h < 18:
		return Afternoon
	case h < 22:
		return Evening
	default:
		return Late
	}
}

// Label renders a human-readable time, e.g. "Spring, Mon 3/4/2025 14:30".
func (c *Clock) Label() string {
	whole := int(c.Hour)
	minutes := int((c.Hour - float64(whole)) * 60)
	return fmt.Sprintf("%s, %s %s %d:%02d",
		c.Season(), weekdayNames[c.Weekday()], c.Date(), whole, minutes)
}

