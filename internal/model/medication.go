package model

// Medication is a catalog entry identified by its name and dosage.
type Medication struct {
	Name             string `json:"name" validate:"notblank"`
	Dosage           string `json:"dosage" validate:"notblank"`
	DefaultFrequency string `json:"default_frequency,omitempty"`
	DefaultNotes     string `json:"default_notes,omitempty"`
}

func (m *Medication) Clone() *Medication {
	c := *m
	return &c
}

// MedicationKey is the catalog identity of a Medication.
type MedicationKey struct {
	Name   string
	Dosage string
}

func (m *Medication) Key() MedicationKey {
	return MedicationKey{Name: m.Name, Dosage: m.Dosage}
}
