// Command migrate applies the schema and reports which ledger tables exist.
//
// Usage: go run ./cmd/migrate
package main

import (
	"log"

	"github.com/wiproedx/synergeticsopenedx/config"
	"github.com/wiproedx/synergeticsopenedx/database"
	"gorm.io/gorm"
)

var ledgerTables = []string{
	"users",
	"courses",
	"program_subjects",
	"program_languages",
	"program_institutions",
	"program_instructors",
	"programs",
	"program_courses",
	"program_instructor_links",
	"program_certificate_signatories",
	"program_orders",
	"program_coupons",
	"program_coupon_redemptions",
	"program_enrollments",
	"course_enrollments",
	"program_certificates",
	"outbox_events",
	"payment_callback_logs",
	"cron_job_logs",
	"admin_audit_logs",
}

func main() {
	log.Println("=== Programs Payments Migration ===")

	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file could not be read, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	migrator := store.GetDB().(*gorm.DB).Migrator()
	missing := 0
	for _, table := range ledgerTables {
		if migrator.HasTable(table) {
			log.Printf("  ok       %s", table)
			continue
		}
		missing++
		log.Printf("  MISSING  %s", table)
	}
	if missing > 0 {
		log.Fatalf("%d tables are missing after migration", missing)
	}
	log.Println("All migrations completed successfully")
}
