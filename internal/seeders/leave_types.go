package seeders

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workforce-service/internal/models"
)

// SeedLeaveTypes creates or updates the built-in leave-type catalog.
// Deployments can add their own rows; seeding only upserts these codes.
func SeedLeaveTypes(db *gorm.DB) error {
	leaveTypes := []models.LeaveType{
		{Code: "CASUAL", Name: "Casual Leave", IsActive: true},
		{Code: "SICK", Name: "Sick Leave", IsActive: true},
		{Code: "EARNED", Name: "Earned Leave", IsActive: true},
		{Code: "MATERNITY", Name: "Maternity Leave", IsActive: true},
		{Code: "PATERNITY", Name: "Paternity Leave", IsActive: true},
		{Code: "UNPAID", Name: "Unpaid Leave", IsActive: true},
		{Code: "COMP_OFF", Name: "Compensatory Off", IsActive: true},
	}

	for _, lt := range leaveTypes {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_active", "updated_at"}),
		}).Create(&lt).Error
		if err != nil {
			log.Printf("Failed to seed leave type %s: %v", lt.Code, err)
			return err
		}
	}

	log.Printf("Seeded %d leave types", len(leaveTypes))
	return nil
}
