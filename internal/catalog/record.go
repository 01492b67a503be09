package catalog

import "time"

// FuelType is the normalized fuel category of a car
type FuelType string

const (
	FuelGas         FuelType = "gas"
	FuelDiesel      FuelType = "diesel"
	FuelElectricity FuelType = "electricity"
	FuelHybrid      FuelType = "hybrid"
)

// Valid reports whether f is one of the known fuel types
func (f FuelType) Valid() bool {
	switch f {
	case FuelGas, FuelDiesel, FuelElectricity, FuelHybrid:
		return true
	}
	return false
}

// Transmission is the normalized transmission kind of a car
type Transmission string

const (
	TransmissionAutomatic Transmission = "automatic"
	TransmissionManual    Transmission = "manual"
)

// Valid reports whether t is one of the known transmissions
func (t Transmission) Valid() bool {
	return t == TransmissionAutomatic || t == TransmissionManual
}

// Record is one car in the catalog. NaturalKey identifies the car across
// imports; ID is assigned by the store.
type Record struct {
	ID             int64        `json:"id"`
	NaturalKey     string       `json:"naturalKey"`
	Make           string       `json:"make"`
	Model          string       `json:"model"`
	Year           int          `json:"year"`
	Price          float64      `json:"price"`
	FuelType       FuelType     `json:"fuelType"`
	Transmission   Transmission `json:"transmission"`
	Cylinders      int          `json:"cylinders"`
	Displacement   float64      `json:"displacement"`
	CityMPG        int          `json:"cityMpg"`
	HighwayMPG     int          `json:"highwayMpg"`
	CombinationMPG int          `json:"combinationMpg"`
	Description    string       `json:"description"`
	ImageURL       string       `json:"imageUrl"`
	IsAvailable    bool         `json:"isAvailable"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Title is the short display name of a car
func (r *Record) Title() string {
	return r.Make + " " + r.Model
}
