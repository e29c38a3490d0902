package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetItem, SetItem and RemoveItem make DB a storage.Storage, so the
// command line client keeps its session across runs.

func (d *DB) GetItem(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow(`select value from local_storage where key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}

	return value, true, nil
}

func (d *DB) SetItem(key, value string) error {
	_, err := d.db.Exec(`
		insert into local_storage (key, value)
		values (?, ?)
		on conflict(key) do update set value = excluded.value, updated = current_timestamp
		`, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

func (d *DB) RemoveItem(key string) error {
	_, err := d.db.Exec(`delete from local_storage where key = ?`, key)
	if err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}

	return nil
}

// Keys lists every stored key, oldest write first.
func (d *DB) Keys() ([]string, error) {
	rows, err := d.db.Query(`select key from local_storage order by updated, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}
