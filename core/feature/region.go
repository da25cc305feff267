package feature

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
)

// Region describes a NEM region: its reference coordinates (the state
// capital, used for daylight computation), IANA timezone and the state's
// public holiday set.
type Region struct {
	Code     string
	Timezone string
	Lat      float64
	Lon      float64
	Holidays []*cal.Holiday
}

var regions = map[string]Region{
	"NSW": {Code: "NSW", Timezone: "Australia/Sydney", Lat: -33.8688, Lon: 151.2093, Holidays: au.HolidaysNSW},
	"QLD": {Code: "QLD", Timezone: "Australia/Brisbane", Lat: -27.4698, Lon: 153.0251, Holidays: au.HolidaysQLD},
	"SA":  {Code: "SA", Timezone: "Australia/Adelaide", Lat: -34.9285, Lon: 138.6007, Holidays: au.HolidaysSA},
	"VIC": {Code: "VIC", Timezone: "Australia/Melbourne", Lat: -37.8136, Lon: 144.9631, Holidays: au.HolidaysVIC},
}

// RegionByCode resolves a NEM region code.
func RegionByCode(code string) (Region, error) {
	r, ok := regions[code]
	if !ok {
		return Region{}, fmt.Errorf("unknown NEM region %q", code)
	}
	return r, nil
}

// Location loads the region's timezone.
func (r Region) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}
