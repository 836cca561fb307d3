package dbschema

import "time"

// BaseModel is the shared column set of every table.
type BaseModel struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
