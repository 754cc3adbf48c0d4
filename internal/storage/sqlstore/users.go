package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scrypster/lookalike/internal/storage"
	"github.com/scrypster/lookalike/pkg/types"
)

// userJoin joins the side tables back onto users. Aliases match
// storage.Property columns.
const userJoin = `
	FROM users u
	LEFT JOIN addresses a ON a.id = u.address_id
	LEFT JOIN employment e ON e.id = u.employment_id
	LEFT JOIN subscriptions s ON s.id = u.subscription_id`

const listUsersQuery = `
	SELECT u.uid,
		COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
		COALESCE(u.username, ''), COALESCE(u.email, ''), COALESCE(u.avatar, ''),
		COALESCE(u.gender, ''), COALESCE(u.phone_number, ''), COALESCE(u.date_of_birth, ''),
		COALESCE(a.city, ''), COALESCE(a.street_name, ''), COALESCE(a.street_address, ''),
		COALESCE(a.zip_code, ''), COALESCE(a.state, ''), COALESCE(a.country, ''),
		COALESCE(a.latitude, ''), COALESCE(a.longitude, ''),
		COALESCE(e.title, ''), COALESCE(e.key_skill, ''),
		COALESCE(s.plan, ''), COALESCE(s.status, ''),
		COALESCE(s.payment_method, ''), COALESCE(s.term, '')` + userJoin + `
	ORDER BY u.uid`

// SaveUsers creates or updates users keyed by UID in one transaction.
func (s *Store) SaveUsers(ctx context.Context, users []types.User) error {
	for i := range users {
		if users[i].UID == "" {
			return fmt.Errorf("%w: user %d has no uid", storage.ErrInvalidInput, i)
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range users {
			if err := s.saveUser(ctx, tx, &users[i]); err != nil {
				return s.errorf("failed to save user %s: %w", users[i].UID, err)
			}
		}
		return nil
	})
}

func (s *Store) saveUser(ctx context.Context, tx *sql.Tx, u *types.User) error {
	var addressID, employmentID, subscriptionID int64
	err := tx.QueryRowContext(ctx,
		s.rebind(`SELECT address_id, employment_id, subscription_id FROM users WHERE uid = ?`),
		u.UID,
	).Scan(&addressID, &employmentID, &subscriptionID)

	switch {
	case isNoRows(err):
		return s.insertUser(ctx, tx, u)
	case err != nil:
		return err
	}

	a, e, sub := &u.Address, &u.Employment, &u.Subscription
	if _, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE addresses SET city = ?, street_name = ?, street_address = ?, zip_code = ?,
			state = ?, country = ?, latitude = ?, longitude = ?
		WHERE id = ?`),
		a.City, a.StreetName, a.StreetAddress, a.ZipCode, a.State, a.Country, a.Latitude, a.Longitude,
		addressID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE employment SET title = ?, key_skill = ? WHERE id = ?`),
		e.Title, e.KeySkill, employmentID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE subscriptions SET plan = ?, status = ?, payment_method = ?, term = ? WHERE id = ?`),
		sub.Plan, sub.Status, sub.PaymentMethod, sub.Term, subscriptionID,
	); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.rebind(`
		UPDATE users SET first_name = ?, last_name = ?, username = ?, email = ?, avatar = ?,
			gender = ?, phone_number = ?, date_of_birth = ?
		WHERE uid = ?`),
		u.FirstName, u.LastName, u.Username, u.Email, u.Avatar,
		u.Gender, u.PhoneNumber, u.DateOfBirth,
		u.UID,
	)
	return err
}

func (s *Store) insertUser(ctx context.Context, tx *sql.Tx, u *types.User) error {
	var addressID, employmentID, subscriptionID int64

	a, e, sub := &u.Address, &u.Employment, &u.Subscription
	if err := tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO addresses (city, street_name, street_address, zip_code, state, country, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		a.City, a.StreetName, a.StreetAddress, a.ZipCode, a.State, a.Country, a.Latitude, a.Longitude,
	).Scan(&addressID); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO employment (title, key_skill) VALUES (?, ?) RETURNING id`),
		e.Title, e.KeySkill,
	).Scan(&employmentID); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO subscriptions (plan, status, payment_method, term) VALUES (?, ?, ?, ?) RETURNING id`),
		sub.Plan, sub.Status, sub.PaymentMethod, sub.Term,
	).Scan(&subscriptionID); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO users (uid, first_name, last_name, username, email, avatar,
			gender, phone_number, date_of_birth, address_id, employment_id, subscription_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		u.UID, u.FirstName, u.LastName, u.Username, u.Email, u.Avatar,
		u.Gender, u.PhoneNumber, u.DateOfBirth, addressID, employmentID, subscriptionID,
	)
	return err
}

// ListUsers returns every stored user ordered by UID.
func (s *Store) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, s.errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]types.User, 0)
	for rows.Next() {
		var u types.User
		if err := rows.Scan(
			&u.UID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.Avatar,
			&u.Gender, &u.PhoneNumber, &u.DateOfBirth,
			&u.Address.City, &u.Address.StreetName, &u.Address.StreetAddress,
			&u.Address.ZipCode, &u.Address.State, &u.Address.Country,
			&u.Address.Latitude, &u.Address.Longitude,
			&u.Employment.Title, &u.Employment.KeySkill,
			&u.Subscription.Plan, &u.Subscription.Status,
			&u.Subscription.PaymentMethod, &u.Subscription.Term,
		); err != nil {
			return nil, s.errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, s.errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// MostCommonProperties returns the most frequent value of each property.
func (s *Store) MostCommonProperties(ctx context.Context) ([]storage.PropertyCount, error) {
	counts := make([]storage.PropertyCount, 0, len(storage.Properties))
	for _, p := range storage.Properties {
		// p.Column comes from the fixed storage.Properties list.
		query := fmt.Sprintf(`
			SELECT %[1]s, COUNT(*) AS n`+userJoin+`
			WHERE %[1]s IS NOT NULL AND %[1]s <> ''
			GROUP BY %[1]s
			ORDER BY n DESC, %[1]s ASC
			LIMIT 1`, p.Column)

		pc := storage.PropertyCount{Property: p.Name}
		err := s.db.QueryRowContext(ctx, query).Scan(&pc.Value, &pc.Count)
		if isNoRows(err) {
			continue
		}
		if err != nil {
			return nil, s.errorf("failed to count %s: %w", p.Name, err)
		}
		counts = append(counts, pc)
	}
	return counts, nil
}
