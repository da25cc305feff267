package feature

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Pointwise calendar transforms: each is a function of a single row's
// timestamp (and the run's region). Booleans are encoded as 0/1 so every
// derived column is a float.
const (
	CalYear          = "year"
	CalMonthSin      = "month_sin"
	CalDayOfMonth    = "day_of_month"
	CalDayOfWeekSin  = "day_of_week_sin"
	CalIsWeekday     = "is_weekday"
	CalPeriodOfDay   = "period_of_day"
	CalPublicHoliday = "is_public_holiday"
	CalIsDaylight    = "is_daylight"
)

// AllCalendar lists the supported calendar features in persisted order.
var AllCalendar = []string{
	CalYear, CalMonthSin, CalDayOfMonth, CalDayOfWeekSin,
	CalIsWeekday, CalPeriodOfDay, CalPublicHoliday, CalIsDaylight,
}

// periodic maps a value with the given period onto a sine wave.
func periodic(value, period float64) float64 {
	return math.Sin(2 * math.Pi * value / period)
}

// weekday returns the day of week with Monday=0 .. Sunday=6.
func weekday(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}

func (d *Deriver) calendarValue(name string, ts time.Time) float64 {
	switch name {
	case CalYear:
		return float64(ts.Year())
	case CalMonthSin:
		return periodic(float64(ts.Month()), 12)
	case CalDayOfMonth:
		return float64(ts.Day())
	case CalDayOfWeekSin:
		return periodic(float64(weekday(ts)), 7)
	case CalIsWeekday:
		return boolFeature(weekday(ts) < 5)
	case CalPeriodOfDay:
		// Half-hour slot within the day, mapped onto a sine over 48 slots.
		slot := float64(ts.Hour()*2 + ts.Minute()/30)
		return periodic(slot, 48)
	case CalPublicHoliday:
		actual, observed, _ := d.holidays.IsHoliday(ts)
		return boolFeature(actual || observed)
	case CalIsDaylight:
		return boolFeature(d.isDaylight(ts))
	}
	return math.NaN()
}

// isDaylight reports whether the instant falls between sunrise and sunset at
// the region's reference coordinates, on the region's local date.
func (d *Deriver) isDaylight(ts time.Time) bool {
	local := ts.In(d.loc)
	rise, set := sunrise.SunriseSunset(d.region.Lat, d.region.Lon,
		local.Year(), local.Month(), local.Day())
	return rise.Before(ts) && ts.Before(set)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
