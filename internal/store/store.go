package store

import (
	"context"
	"log"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/util"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db  *gorm.DB
	cfg *config.Config
}

func New(ctx context.Context, driver, dsn string, cfg *config.Config) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.LineUser{},
		&models.LineMessage{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db, cfg: cfg}

	// Seed default data
	if err := store.seedData(); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return store, nil
}

func (s *Store) seedData() error {
	var userCount int64
	s.db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		return nil
	}

	password := ""
	if s.cfg != nil {
		password = s.cfg.DefaultAdminPassword
	}
	if password == "" {
		var err error
		password, err = util.CryptoRandomString(16)
		if err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		Role:         "admin",
		Avatar:       models.DefaultAvatar,
	}
	if err := s.db.Create(user).Error; err != nil {
		return err
	}
	log.Printf("Created default user: admin / %s (role: admin)", password)
	return nil
}

// Health verifies database connectivity.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
