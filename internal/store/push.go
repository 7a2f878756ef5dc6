package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/tally/internal/model"
)

const pushColumns = `id, endpoint, p256dh_key, auth_key, role_id, device_name, created_at`

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func scanSubscription(sc scanner) (*model.PushSubscription, error) {
	sub := &model.PushSubscription{}
	if err := sc.Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.RoleID, &sub.DeviceName, &sub.CreatedAt); err != nil {
		return nil, err
	}
	return sub, nil
}

// Upsert saves a subscription. Subscribing an endpoint again replaces its
// keys, role and device name.
func (s *PushStore) Upsert(endpoint, p256dh, auth, roleID, deviceName string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (endpoint, p256dh_key, auth_key, role_id, device_name)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		     p256dh_key = excluded.p256dh_key,
		     auth_key = excluded.auth_key,
		     role_id = excluded.role_id,
		     device_name = excluded.device_name`,
		endpoint, p256dh, auth, roleID, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	return s.GetByEndpoint(endpoint)
}

func (s *PushStore) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(
		`SELECT `+pushColumns+` FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) List() ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT ` + pushColumns + ` FROM push_subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []model.PushSubscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// DeleteByEndpoint reports whether a subscription was removed.
func (s *PushStore) DeleteByEndpoint(endpoint string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
