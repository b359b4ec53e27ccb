package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"
	"Go_FileStore/model"

	mysqlDriver "github.com/go-sql-driver/mysql"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// AutoMigrate migrates every table owned by the file store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UploadSession{},
		&model.File{},
		&model.MirrorTask{},
	)
}

func mysqlDSN(cfg config.Config, dbName string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBHost,
		cfg.DBPort,
		dbName,
	)
}

// InitMysql opens the MySQL connection, creating the database when it
// does not exist yet, and migrates the schema.
func InitMysql(cfg config.Config) (*gorm.DB, error) {
	dsn := mysqlDSN(cfg, cfg.DBName)
	db, err := gorm.Open(gormMysql.Open(dsn), &gorm.Config{})
	if err != nil && isUnknownDatabaseError(err) {
		if createErr := ensureMySQLDatabase(cfg); createErr != nil {
			return nil, fmt.Errorf("create mysql database %s: %w", cfg.DBName, createErr)
		}
		db, err = gorm.Open(gormMysql.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("init mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logging.Info("init mysql success", "host", cfg.DBHost, "db", cfg.DBName)
	return db, nil
}

func isUnknownDatabaseError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1049
	}
	return strings.Contains(strings.ToLower(err.Error()), "unknown database")
}

func ensureMySQLDatabase(cfg config.Config) error {
	dbName := strings.TrimSpace(cfg.DBName)
	if dbName == "" {
		return errors.New("empty database name")
	}

	serverDB, err := sql.Open("mysql", mysqlDSN(cfg, ""))
	if err != nil {
		return err
	}
	defer serverDB.Close()

	if err = serverDB.Ping(); err != nil {
		return err
	}

	_, err = serverDB.Exec(
		"CREATE DATABASE IF NOT EXISTS " + quoteMySQLIdentifier(dbName) + " CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci",
	)
	return err
}

func quoteMySQLIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
