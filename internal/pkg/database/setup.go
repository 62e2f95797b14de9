package database

import (
	"fmt"
	"log"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/internal/pkg/env"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var db *gorm.DB

// GetDB returns the connection opened by SetupDatabase
func GetDB() *gorm.DB {
	if db == nil {
		panic("database not initialized. Call SetupDatabase first.")
	}
	return db
}

// SetDB replaces the global connection; used by tests and tooling
func SetDB(conn *gorm.DB) {
	db = conn
}

// Models lists every table owned by the paywall, in dependency order
func Models() []interface{} {
	return append([]interface{}{
		&models.VipTier{},
		&models.User{},
		&models.EntitlementGrant{},
		&models.LedgerEntry{},
	}, models.CatalogModels()...)
}

// AutoMigrate creates or updates all paywall tables
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}

func SetupDatabase() {
	var err error
	driver := env.GetEnv("DB_DRIVER", "mysql")

	if driver == "sqlite" {
		db, err = OpenSQLite(env.GetEnv("DB_NAME", "paywall.db"))
		if err != nil {
			panic(err)
		}
		if err = AutoMigrate(db); err != nil {
			panic(err)
		}
		return
	}

	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,   // data source name
			DefaultStringSize:         256,   // default size for string fields
			DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
		}), &gorm.Config{})
		if err == nil {
			if env.GetEnv("DB_AUTO_MIGRATE", "true") == "true" {
				if mErr := AutoMigrate(db); mErr != nil {
					log.Printf("[Database] AutoMigrate failed: %v", mErr)
				}
			}
			return
		}

		log.Printf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// OpenSQLite opens a pure-Go SQLite database. A single connection is used so
// ":memory:" databases are shared by every caller and writes are serialized.
func OpenSQLite(path string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return conn, nil
}

// OpenMemory returns a migrated in-memory database
func OpenMemory() (*gorm.DB, error) {
	conn, err := OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}
