// Package testutil provides in-memory stores shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table created.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared-cache database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		MustExec(t, db, stmt)
	}
	return db
}

func MustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT DEFAULT '',
		password TEXT,
		role TEXT NOT NULL DEFAULT 'client',
		avatar TEXT DEFAULT '',
		auth_provider TEXT DEFAULT 'email',
		google_id TEXT UNIQUE,
		email_verified_at DATETIME,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_online BOOLEAN DEFAULT 0,
		last_seen DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`,
	`CREATE TABLE user_devices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		fcm_token TEXT NOT NULL UNIQUE,
		device_type TEXT DEFAULT 'unknown',
		last_active_at DATETIME,
		created_at DATETIME
	);`,
	`CREATE TABLE otp_records (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		code TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		is_used BOOLEAN NOT NULL DEFAULT 0,
		used_at DATETIME,
		created_at DATETIME
	);`,
	`CREATE TABLE properties (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		property_type TEXT NOT NULL,
		listing_type TEXT NOT NULL,
		price REAL NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		bedrooms INTEGER,
		bathrooms INTEGER,
		area_sqm REAL,
		status TEXT NOT NULL DEFAULT 'available',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`,
	`CREATE TABLE property_media (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		object_key TEXT NOT NULL,
		file_name TEXT,
		file_size INTEGER,
		mime_type TEXT,
		position INTEGER,
		created_at DATETIME
	);`,
	`CREATE TABLE wishlist_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (user_id, property_id)
	);`,
	`CREATE TABLE schedule_properties (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		property_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		scheduled_at DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		notes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		property_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE conversation_members (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at DATETIME,
		last_read_at DATETIME,
		UNIQUE (conversation_id, user_id)
	);`,
	`CREATE TABLE messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		content TEXT,
		file_url TEXT,
		file_name TEXT,
		created_at DATETIME
	);`,
}
