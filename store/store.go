// Package store persists episode summaries to PostgreSQL so long
// simulation campaigns can be analyzed after the fact.
package store

import (
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Option defines the PostgreSQL connection options.
type Option struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
	Config     *gorm.Config
}

// EpisodeRecord is one completed episode's aggregate result.
type EpisodeRecord struct {
	ID                    uint   `gorm:"primaryKey"`
	RunID                 string `gorm:"index"`
	Episode               int
	Steps                 int
	NumTrajectories       int
	MeanReward            float64
	MeanTerminalCash      float64
	MeanTerminalInventory float64
	CreatedAt             time.Time
}

// Store wraps a PostgreSQL connection pool.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the episode schema.
func Open(opt Option) (*Store, error) {
	dsn, err := opt.dsn()
	if err != nil {
		return nil, err
	}
	cfg := opt.Config
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&EpisodeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate episode schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveEpisode inserts one episode record.
func (s *Store) SaveEpisode(rec *EpisodeRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("save episode: %w", err)
	}
	return nil
}

// RunEpisodes lists all episode records of a run in order.
func (s *Store) RunEpisodes(runID string) ([]EpisodeRecord, error) {
	var out []EpisodeRecord
	if err := s.db.Where("run_id = ?", runID).Order("episode").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load run episodes: %w", err)
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() (string, error) {
	if opt.ConnString != "" {
		return opt.ConnString, nil
	}
	if opt.Database == "" {
		return "", fmt.Errorf("database name is required")
	}
	host := opt.Host
	if host == "" {
		host = defaultHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   opt.Database,
	}
	if opt.User != "" {
		u.User = url.UserPassword(opt.User, opt.Password)
	}
	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
