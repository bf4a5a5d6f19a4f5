package model

import "strings"

// Patients are not persisted on their own; records refer to them by name.
// Names compare case-insensitively after trimming surrounding whitespace.

func NormalizePatientName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func SamePatient(a, b string) bool {
	return NormalizePatientName(a) == NormalizePatientName(b)
}
