package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DBConfig struct {
	Host     string `default:"localhost"`
	Port     string `default:"5432"`
	User     string `default:"postgres"`
	Password string `default:"postgres"`
	Name     string `default:"hll_bench"`
}

// BenchConfig is the benchmark's configuration surface. Everything is
// env-driven with the report's fixed values as defaults; there is no
// rich CLI on purpose.
type BenchConfig struct {
	DatasetSizes        []int   `split_words:"true" default:"10000,100000,1000000,10000000"`
	CardinalityFraction float64 `split_words:"true" default:"0.1"`
	Precisions          []int   `default:"10,12,14"`
	Repetitions         int     `default:"5"`
	WindowDays          []int   `split_words:"true" default:"1,7,14,30"`
	EventDays           int     `split_words:"true" default:"30"`
	EventsPerDay        int     `split_words:"true" default:"100000"`
	OutputDir           string  `split_words:"true" default:"./tables"`
	Seed                int64   `default:"0"`
}

func LoadDBConfig() DBConfig {
	_ = godotenv.Load()

	var cfg DBConfig
	if err := envconfig.Process("db", &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse DB config: %v", err))
	}
	return cfg
}

func LoadBenchConfig() (BenchConfig, error) {
	_ = godotenv.Load()

	var cfg BenchConfig
	if err := envconfig.Process("bench", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse benchmark config: %w", err)
	}
	return cfg, nil
}

func adminConnStr(cfg DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password,
	)
}

// WaitForDB polls the server with a fixed retry interval until it
// answers a ping or the attempts run out.
func WaitForDB(cfg DBConfig, attempts int, interval time.Duration) error {
	adminDB, err := sql.Open("postgres", adminConnStr(cfg))
	if err != nil {
		return fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer adminDB.Close()

	for i := 0; i < attempts; i++ {
		if err = adminDB.Ping(); err == nil {
			log.Printf("✅ Database ready after %d attempt(s)\n", i+1)
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempts, err)
}

func DropAndRecreateDatabase(cfg DBConfig) error {
	adminDB, err := sql.Open("postgres", adminConnStr(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to admin DB: %w", err)
	}
	defer adminDB.Close()

	// Terminate any active connections
	_, _ = adminDB.Exec(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid();`, cfg.Name)

	// Safely quote the DB name
	quotedDBName := fmt.Sprintf(`"%s"`, cfg.Name)

	_, err = adminDB.Exec(`DROP DATABASE IF EXISTS ` + quotedDBName)
	if err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}

	_, err = adminDB.Exec(`CREATE DATABASE ` + quotedDBName)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	log.Printf("✅ Dropped and recreated database %s\n", cfg.Name)
	return nil
}

func DropDatabase(cfg DBConfig) error {
	adminDB, err := sql.Open("postgres", adminConnStr(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to admin DB: %w", err)
	}
	defer adminDB.Close()

	_, _ = adminDB.Exec(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid();`, cfg.Name)

	quotedDBName := fmt.Sprintf(`"%s"`, cfg.Name)
	if _, err = adminDB.Exec(`DROP DATABASE IF EXISTS ` + quotedDBName); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}

	log.Printf("✅ Dropped database %s\n", cfg.Name)
	return nil
}

func ConnectDB() *gorm.DB {
	cfg := LoadDBConfig()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // disable logging
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}

	return db
}

func ResetDatabase(db *gorm.DB, models ...interface{}) error {

	err := ResetSchema(db)
	if err != nil {
		return err
	}

	err = ResetSessionConfig(db)
	if err != nil {
		return err
	}

	err = ConfirmNoTables(db)
	if err != nil {
		return err
	}

	// GORM auto-migration to recreate tables
	err = db.AutoMigrate(models...)
	if err != nil {
		return err
	}
	return err
}

func ResetSchema(db *gorm.DB) error {
	if err := db.Exec("DROP SCHEMA public CASCADE").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE SCHEMA public").Error; err != nil {
		return err
	}
	fmt.Println("✅ Dropped and recreated public schema")

	return nil
}

func ResetSessionConfig(db *gorm.DB) error {
	// Optional: reset planner/session settings
	err := db.Exec(`DISCARD ALL;`).Error
	if err != nil {
		return err
	}
	fmt.Println("✅ DISCARD ALL executed")
	err = db.Exec("RESET ALL").Error
	if err != nil {
		return err
	}

	fmt.Println("✅ RESET ALL executed")
	return err
}

func ConfirmNoTables(db *gorm.DB) error {
	// Confirm clean
	var tables []string
	if err := db.Raw(`SELECT tablename FROM pg_tables WHERE schemaname = 'public'`).Scan(&tables).Error; err != nil {
		return fmt.Errorf("failed to query tables: %w", err)
	}
	if len(tables) > 0 {
		return fmt.Errorf("❌ tables still exist after reset: %v", tables)
	}
	fmt.Println("✅ Verified: no user-defined tables remain")

	return nil
}
