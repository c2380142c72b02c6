package domain

import "time"

// Driver represents a driver in the system.
// CurrentBookedTrips stays within [0, max booked trips]; Available is false exactly
// when the counter sits at the maximum.
type Driver struct {
	ID                 int64
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	PasswordHash       string
	LicenseNumber      string
	ImageURL           string
	Rating             int
	Available          bool
	CurrentBookedTrips int
	CreatedAt          time.Time
}

// FullName returns the driver's display name.
func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}

// Car is a vehicle, optionally assigned to one driver.
type Car struct {
	ID           int64
	Model        string
	LicensePlate string
	Color        string
	DriverID     *int64
}
