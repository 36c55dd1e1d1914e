package seed

import (
	"fmt"

	"nutribunda/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInRole is a permanent application role.
type BuiltInRole struct {
	Name        string
	Description string
}

// BuiltInRoles defines the application roles. The names are part of the token
// contract, so they are seeded exactly as the mobile and admin clients expect
// them.
var BuiltInRoles = []BuiltInRole{
	{Name: models.RoleAdmin, Description: "Administrator with full access"},
	{Name: models.RolePregnant, Description: "Pregnant mother"},
	{Name: models.RoleLactating, Description: "Post-natal mother"},
	{Name: models.RoleToddler, Description: "Infant 0-24 months"},
}

// Roles seeds the built-in roles, updating descriptions in place. Existing
// role IDs are never touched; users keep their assignments across reruns.
func Roles(db *gorm.DB) error {
	for _, item := range BuiltInRoles {
		role := models.Role{Name: item.Name, Description: item.Description}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).Create(&role).Error; err != nil {
			return fmt.Errorf("seed built-in role %s: %w", item.Name, err)
		}
	}
	return nil
}
