package store

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
}

func (db *DB) CreateAdminUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(db.Q(`INSERT INTO admin_users (username, password_hash) VALUES (?, ?)`),
		username, string(hash))
	return err
}

// CheckAdminCredentials verifies a username/password pair against the stored
// bcrypt hash.
func (db *DB) CheckAdminCredentials(username, password string) (bool, error) {
	var hash string
	err := db.QueryRow(db.Q(`SELECT password_hash FROM admin_users WHERE username=?`), username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

func (db *DB) CountAdminUsers() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}
