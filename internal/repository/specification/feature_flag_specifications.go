package specification

import "gorm.io/gorm"

type ByFlagName struct {
	Name string
}

func (s ByFlagName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type EnabledFlags struct{}

func (s EnabledFlags) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_enabled = ?", true)
}
