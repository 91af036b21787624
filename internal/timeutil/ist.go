package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). Order and delivery dates are shown in IST.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Clock returns the current time. Services take a Clock so expiry can be tested.
type Clock func() time.Time

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// FormatIST formats a time in IST using the given layout
func FormatIST(t time.Time, layout string) string {
	return t.In(IST).Format(layout)
}

const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02 Jan 2006, 03:04 PM"
)
