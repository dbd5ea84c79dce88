package db

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db, cfg.DefaultTimezone); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func Migrate(db *gorm.DB, defaultTZ string) error {
	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.Branch{},
		&models.User{},
		&models.Service{},
		&models.WorkingHour{},
		&models.WorkingDayOverride{},
		&models.Customer{},
		&models.AppointmentLock{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	db.Exec(`
        UPDATE tenants
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, defaultTZ)

	// Last line of defence behind the per-barber row lock: postgres itself
	// refuses two live appointments of one barber that overlap.
	for _, stmt := range []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
        BEGIN
            IF NOT EXISTS (
                SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
            ) THEN
                ALTER TABLE appointments
                ADD CONSTRAINT appointments_no_overlap
                EXCLUDE USING gist (
                    barber_id WITH =,
                    tstzrange(start_time, end_time, '[)') WITH &&
                ) WHERE (status <> 'CANCELLED');
            END IF;
        END $$`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			log.Printf("db: overlap constraint not installed: %v", err)
			break
		}
	}

	return nil
}
