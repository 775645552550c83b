package database

import (
	"github.com/eruedin/swad-core-sub002/internal/config"
	"github.com/eruedin/swad-core-sub002/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	logger.Info("database connected",
		zap.String("host", cfg.DBHost),
		zap.String("dbname", cfg.DBName),
	)
	return db
}

func AutoMigrate(db *gorm.DB, logger *zap.Logger) {
	err := db.AutoMigrate(
		&models.User{},
		&models.GroupMember{},
		&models.Game{},
		&models.GameQuestion{},
		&models.QuestionOption{},
		&models.Match{},
		&models.MatchPlayer{},
		&models.MatchAnswer{},
	)
	if err != nil {
		logger.Fatal("failed to auto-migrate", zap.Error(err))
	}
	logger.Info("database migrated")
}

// MigrateLegacyVisibility rewrites rows imported from the old system, where
// the two visibility flags were persisted as a bitmask in a "visibility"
// column. Bit set means flag on. The column is dropped afterwards so the
// migration is a no-op on a current schema.
func MigrateLegacyVisibility(db *gorm.DB, logger *zap.Logger) error {
	var hasColumn bool
	err := db.Raw(`SELECT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_name = 'matches' AND column_name = 'visibility'
	)`).Scan(&hasColumn).Error
	if err != nil {
		return err
	}
	if !hasColumn {
		return nil
	}

	type legacyRow struct {
		ID         uint
		Visibility uint
	}
	var rows []legacyRow
	if err := db.Table("matches").Select("id, visibility").Find(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		showQst, showUsr := models.DecodeLegacyVisibility(row.Visibility)
		err := db.Table("matches").Where("id = ?", row.ID).Updates(map[string]interface{}{
			"show_question_results": showQst,
			"show_user_results":     showUsr,
		}).Error
		if err != nil {
			return err
		}
	}

	if err := db.Exec("ALTER TABLE matches DROP COLUMN visibility").Error; err != nil {
		return err
	}

	logger.Info("legacy visibility flags migrated", zap.Int("rows", len(rows)))
	return nil
}
