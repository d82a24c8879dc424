package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type contextKey string

// ContextUserIDKey BaseModel hook'larının işlemi yapan kullanıcıyı bulması için.
const ContextUserIDKey contextKey = "userID"

// BaseModel tüm tablolara gömülen ortak alanlar.
type BaseModel struct {
	ID        uint           `gorm:"primarykey"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedBy uint           `gorm:"index"`
	UpdatedBy uint
}

// BeforeCreate context'teki kullanıcı ID'sini CreatedBy/UpdatedBy alanlarına yazar.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if userID, ok := tx.Statement.Context.Value(ContextUserIDKey).(uint); ok {
		b.CreatedBy = userID
		b.UpdatedBy = userID
	}
	return nil
}

// BeforeUpdate context'teki kullanıcı ID'sini UpdatedBy alanına yazar.
func (b *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	if userID, ok := tx.Statement.Context.Value(ContextUserIDKey).(uint); ok {
		b.UpdatedBy = userID
	}
	return nil
}

// ContextWithUserID hook'lar için kullanıcı ID'sini context'e ekler.
func ContextWithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}
