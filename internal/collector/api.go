package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/scrypster/lookalike/pkg/types"
)

// apiUser is the wire form of a user returned by the data API. Sensitive
// fields (password, social insurance and credit card numbers) are not decoded.
type apiUser struct {
	UID         string `json:"uid"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`

	Employment struct {
		Title    string `json:"title"`
		KeySkill string `json:"key_skill"`
	} `json:"employment"`

	Address struct {
		City          string `json:"city"`
		StreetName    string `json:"street_name"`
		StreetAddress string `json:"street_address"`
		ZipCode       string `json:"zip_code"`
		State         string `json:"state"`
		Country       string `json:"country"`
		Coordinates   struct {
			Lat coordinate `json:"lat"`
			Lng coordinate `json:"lng"`
		} `json:"coordinates"`
	} `json:"address"`

	Subscription struct {
		Plan          string `json:"plan"`
		Status        string `json:"status"`
		PaymentMethod string `json:"payment_method"`
		Term          string `json:"term"`
	} `json:"subscription"`
}

// coordinate keeps the textual form of a JSON number or string so that
// malformed values reach the address scorer unchanged.
type coordinate string

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid coordinate %s: %w", data, err)
		}
		*c = coordinate(s)
	default:
		*c = coordinate(data)
	}
	return nil
}

func (u *apiUser) toUser() types.User {
	return types.User{
		UID:         u.UID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		Email:       u.Email,
		Avatar:      u.Avatar,
		Gender:      u.Gender,
		PhoneNumber: u.PhoneNumber,
		DateOfBirth: u.DateOfBirth,
		Address: types.Address{
			City:          u.Address.City,
			StreetName:    u.Address.StreetName,
			StreetAddress: u.Address.StreetAddress,
			ZipCode:       u.Address.ZipCode,
			State:         u.Address.State,
			Country:       u.Address.Country,
			Latitude:      string(u.Address.Coordinates.Lat),
			Longitude:     string(u.Address.Coordinates.Lng),
		},
		Employment: types.Employment{
			Title:    u.Employment.Title,
			KeySkill: u.Employment.KeySkill,
		},
		Subscription: types.Subscription{
			Plan:          u.Subscription.Plan,
			Status:        u.Subscription.Status,
			PaymentMethod: u.Subscription.PaymentMethod,
			Term:          u.Subscription.Term,
		},
	}
}

// decodeUsers decodes a JSON array of users. A single object (returned by
// the API for unsized requests) is accepted as a batch of one.
func decodeUsers(r io.Reader) ([]types.User, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var wire []apiUser
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var one apiUser
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		wire = []apiUser{one}
	} else if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]types.User, len(wire))
	for i := range wire {
		users[i] = wire[i].toUser()
	}
	return users, nil
}
