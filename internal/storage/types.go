package storage

import "errors"

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// PropertyCount is the most frequent value of one user property.
type PropertyCount struct {
	Property string `json:"property"`
	Value    string `json:"value"`
	Count    int    `json:"count"`
}

// Property names a user attribute and the column that stores it.
// Column must be qualified with the alias used by the user join
// (u = users, a = addresses, e = employment, s = subscriptions).
type Property struct {
	Name   string
	Column string
}

// Properties is the fixed list reported by MostCommonProperties, in report order.
var Properties = []Property{
	{Name: "gender", Column: "u.gender"},
	{Name: "city", Column: "a.city"},
	{Name: "state", Column: "a.state"},
	{Name: "employment_title", Column: "e.title"},
	{Name: "key_skill", Column: "e.key_skill"},
	{Name: "subscription_plan", Column: "s.plan"},
	{Name: "subscription_status", Column: "s.status"},
	{Name: "payment_method", Column: "s.payment_method"},
	{Name: "subscription_term", Column: "s.term"},
}
