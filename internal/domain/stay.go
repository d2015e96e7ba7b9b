package domain

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

// MaxRangeNights caps the nights of any per-night report over a date range.
const MaxRangeNights = 366

var ErrInvalidStay = errors.New("check-out must be after check-in")

// Stay is a half-open range of nights [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: DateOf(checkIn), CheckOut: DateOf(checkOut)}
	if !s.CheckOut.After(s.CheckIn) {
		return Stay{}, ErrInvalidStay
	}
	return s, nil
}

func ParseStay(checkIn, checkOut string) (Stay, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return Stay{}, err
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return Stay{}, err
	}
	return NewStay(in, out)
}

func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// Dates lists every occupied night in ascending order.
func (s Stay) Dates() []string {
	out := make([]string, 0, s.Nights())
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDate(0, 0, 1) {
		out = append(out, FormatDate(d))
	}
	return out
}

func (s Stay) FirstNight() string { return FormatDate(s.CheckIn) }

func (s Stay) LastNight() string { return FormatDate(s.CheckOut.AddDate(0, 0, -1)) }

func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(s.CheckOut)
}

// DateOf drops the clock part, keeping the calendar date of t.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}
