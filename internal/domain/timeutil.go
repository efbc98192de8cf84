package domain

import "time"

// Rango de timestamps aceptados por el normalizador. Fuera de él la fila se descarta.
var (
	MinTimestamp = time.Date(1677, 9, 22, 0, 0, 0, 0, time.UTC)
	MaxTimestamp = time.Date(2262, 4, 11, 0, 0, 0, 0, time.UTC)
)

const (
	secondsPerHour = 3600
	secondsPerDay  = 86400
)

// InTimestampRange indica si t cae dentro de [MinTimestamp, MaxTimestamp].
func InTimestampRange(t time.Time) bool {
	return !t.Before(MinTimestamp) && !t.After(MaxTimestamp)
}

// SecondsBetween devuelve b - a en segundos. No pasa por time.Duration, que satura
// en ~292 años.
func SecondsBetween(a, b time.Time) float64 {
	return float64(b.Unix()-a.Unix()) + float64(b.Nanosecond()-a.Nanosecond())/1e9
}

// DaysBetween devuelve b - a en días fraccionarios.
func DaysBetween(a, b time.Time) float64 {
	return SecondsBetween(a, b) / secondsPerDay
}

// hourIndex es el número de hora desde epoch que contiene t (floor).
func hourIndex(t time.Time) int64 {
	return floorDiv(t.Unix(), secondsPerHour)
}

// hourIndexCeil es el número de la primera hora en punto >= t.
func hourIndexCeil(t time.Time) int64 {
	h := hourIndex(t)
	if t.Unix() == h*secondsPerHour && t.Nanosecond() == 0 {
		return h
	}
	return h + 1
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
