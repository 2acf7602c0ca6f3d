package specification

import "gorm.io/gorm"

// UserRefContains matches moderation logs whose user reference contains the fragment.
type UserRefContains struct {
	Fragment string
}

func (s UserRefContains) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Fragment + "%"
	return db.Where("user_ref ILIKE ?", pattern)
}

type ByContentType struct {
	ContentType string
}

func (s ByContentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_type = ?", s.ContentType)
}
