package domain

import "time"

// SoloFecha normaliza un instante a fecha calendario (medianoche UTC).
// Todas las comparaciones de fechas del dominio operan sobre este valor.
func SoloFecha(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DiasEntre devuelve la cantidad de días calendario entre desde y hasta
// (positivo cuando hasta es posterior).
func DiasEntre(desde, hasta time.Time) int {
	return int(SoloFecha(hasta).Sub(SoloFecha(desde)).Hours() / 24)
}

// EsPosterior reporta si a cae en un día calendario posterior a b.
func EsPosterior(a, b time.Time) bool {
	return SoloFecha(a).After(SoloFecha(b))
}
