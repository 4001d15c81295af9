package database

import "liber/internal/models"

// AllModels is the single list fed to AutoMigrate. Order matters:
// referenced tables come before tables holding their foreign keys.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.PostVote{},
		&models.Comment{},
		&models.Follow{},
		&models.Notification{},
		&models.Message{},
	}
}
