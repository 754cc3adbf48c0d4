package types

// User is a flat synthetic user record. Records are immutable for the
// duration of an analysis run and identified by UID.
//
// All scalar fields are kept in their string representation, including the
// coordinates, so that malformed upstream values survive loading and are
// handled by the address scorer instead of failing the import.
type User struct {
	// Core identification fields
	UID       string `json:"uid"`        // Opaque unique identifier (UUID from the data API)
	FirstName string `json:"first_name"` // Given name
	LastName  string `json:"last_name"`  // Family name
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Avatar    string `json:"avatar,omitempty"`

	// Personal attributes
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phone_number,omitempty"`
	DateOfBirth string `json:"date_of_birth"` // Compared verbatim, no date parsing

	Address      Address      `json:"address"`
	Employment   Employment   `json:"employment"`
	Subscription Subscription `json:"subscription"`
}

// Address holds the location attributes of a user.
type Address struct {
	City          string `json:"city"`
	StreetName    string `json:"street_name"`
	StreetAddress string `json:"street_address"`
	ZipCode       string `json:"zip_code"`
	State         string `json:"state"`
	Country       string `json:"country,omitempty"`
	Latitude      string `json:"latitude"`  // Decimal degrees, may be empty or malformed
	Longitude     string `json:"longitude"` // Decimal degrees, may be empty or malformed
}

// Employment holds the job attributes of a user.
type Employment struct {
	Title    string `json:"title"`
	KeySkill string `json:"key_skill"`
}

// Subscription holds the billing attributes of a user.
type Subscription struct {
	Plan          string `json:"plan"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	Term          string `json:"term"`
}
