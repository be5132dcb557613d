package core

import (
	"errors"
	"time"
)

// Labels shown instead of a date.
const (
	LabelNoDate      = "Tarih yok"
	LabelInvalidDate = "Geçersiz tarih"
)

// Turkey has stayed on UTC+3 all year since 2016.
var displayZone = time.FixedZone("TRT", 3*60*60)

// FormatDate renders a day the way tr-TR does (02.01.2006). decodeErr is the
// error DecodeEntry returned for the same entry, if any.
func FormatDate(t time.Time, decodeErr error) string {
	if errors.Is(decodeErr, ErrInvalidDate) {
		return LabelInvalidDate
	}
	if t.IsZero() {
		return LabelNoDate
	}
	return t.In(displayZone).Format("02.01.2006")
}

// ParseDay reads a YYYY-MM-DD form value as midnight in the display zone.
func ParseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, displayZone)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}
