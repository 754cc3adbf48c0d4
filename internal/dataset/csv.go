// Package dataset reads and writes the flattened user CSV (random_users.csv).
//
// Columns follow the dotted flattening of the data API's JSON
// ("address.city", "address.coordinates.lat", "subscription.plan", ...).
// Reading is header-driven: unknown columns are ignored and missing
// optional columns leave their field empty.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/scrypster/lookalike/pkg/types"
)

// DefaultFilename is the conventional name of the user CSV.
const DefaultFilename = "random_users.csv"

// ErrMissingUID is returned when a row has no uid.
var ErrMissingUID = errors.New("missing uid")

type column struct {
	name string
	get  func(*types.User) string
	set  func(*types.User, string)
}

// columns lists the CSV columns in write order.
var columns = []column{
	{"uid", func(u *types.User) string { return u.UID }, func(u *types.User, v string) { u.UID = v }},
	{"first_name", func(u *types.User) string { return u.FirstName }, func(u *types.User, v string) { u.FirstName = v }},
	{"last_name", func(u *types.User) string { return u.LastName }, func(u *types.User, v string) { u.LastName = v }},
	{"username", func(u *types.User) string { return u.Username }, func(u *types.User, v string) { u.Username = v }},
	{"email", func(u *types.User) string { return u.Email }, func(u *types.User, v string) { u.Email = v }},
	{"avatar", func(u *types.User) string { return u.Avatar }, func(u *types.User, v string) { u.Avatar = v }},
	{"gender", func(u *types.User) string { return u.Gender }, func(u *types.User, v string) { u.Gender = v }},
	{"phone_number", func(u *types.User) string { return u.PhoneNumber }, func(u *types.User, v string) { u.PhoneNumber = v }},
	{"date_of_birth", func(u *types.User) string { return u.DateOfBirth }, func(u *types.User, v string) { u.DateOfBirth = v }},
	{"employment.title", func(u *types.User) string { return u.Employment.Title }, func(u *types.User, v string) { u.Employment.Title = v }},
	{"employment.key_skill", func(u *types.User) string { return u.Employment.KeySkill }, func(u *types.User, v string) { u.Employment.KeySkill = v }},
	{"address.city", func(u *types.User) string { return u.Address.City }, func(u *types.User, v string) { u.Address.City = v }},
	{"address.street_name", func(u *types.User) string { return u.Address.StreetName }, func(u *types.User, v string) { u.Address.StreetName = v }},
	{"address.street_address", func(u *types.User) string { return u.Address.StreetAddress }, func(u *types.User, v string) { u.Address.StreetAddress = v }},
	{"address.zip_code", func(u *types.User) string { return u.Address.ZipCode }, func(u *types.User, v string) { u.Address.ZipCode = v }},
	{"address.state", func(u *types.User) string { return u.Address.State }, func(u *types.User, v string) { u.Address.State = v }},
	{"address.country", func(u *types.User) string { return u.Address.Country }, func(u *types.User, v string) { u.Address.Country = v }},
	{"address.coordinates.lat", func(u *types.User) string { return u.Address.Latitude }, func(u *types.User, v string) { u.Address.Latitude = v }},
	{"address.coordinates.lng", func(u *types.User) string { return u.Address.Longitude }, func(u *types.User, v string) { u.Address.Longitude = v }},
	{"subscription.plan", func(u *types.User) string { return u.Subscription.Plan }, func(u *types.User, v string) { u.Subscription.Plan = v }},
	{"subscription.status", func(u *types.User) string { return u.Subscription.Status }, func(u *types.User, v string) { u.Subscription.Status = v }},
	{"subscription.payment_method", func(u *types.User) string { return u.Subscription.PaymentMethod }, func(u *types.User, v string) { u.Subscription.PaymentMethod = v }},
	{"subscription.term", func(u *types.User) string { return u.Subscription.Term }, func(u *types.User, v string) { u.Subscription.Term = v }},
}

// Header returns the column names written by Write.
func Header() []string {
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	return header
}

// Write writes users as CSV with a header row.
func Write(w io.Writer, users []types.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("dataset: failed to write header: %w", err)
	}
	record := make([]string, len(columns))
	for i := range users {
		for j, c := range columns {
			record[j] = c.get(&users[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("dataset: failed to write user %s: %w", users[i].UID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("dataset: failed to flush: %w", err)
	}
	return nil
}

// WriteUsers writes users to path, creating parent directories as needed.
func WriteUsers(path string, users []types.User) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: failed to create %s: %w", path, err)
	}
	if err := Write(f, users); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dataset: failed to close %s: %w", path, err)
	}
	return nil
}

// Read parses users from CSV. The header row is required and must contain
// a uid column; every row must have a non-empty uid.
func Read(r io.Reader) ([]types.User, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []types.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		// The first column may carry a UTF-8 byte order mark.
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[name] = i
	}
	if _, ok := index["uid"]; !ok {
		return nil, fmt.Errorf("dataset: header has no uid column: %w", ErrMissingUID)
	}

	users := make([]types.User, 0)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		var u types.User
		for _, c := range columns {
			if i, ok := index[c.name]; ok && i < len(record) {
				c.set(&u, record[i])
			}
		}
		if u.UID == "" {
			return nil, fmt.Errorf("dataset: line %d: %w", line, ErrMissingUID)
		}
		users = append(users, u)
	}
	return users, nil
}

// ReadUsers reads users from the CSV file at path.
func ReadUsers(path string) ([]types.User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// InvalidUIDs returns the UIDs that are not well-formed UUIDs. The engine
// accepts any opaque identifier; callers use this to flag unexpected input.
func InvalidUIDs(users []types.User) []string {
	var invalid []string
	for i := range users {
		if _, err := uuid.Parse(users[i].UID); err != nil {
			invalid = append(invalid, users[i].UID)
		}
	}
	return invalid
}
