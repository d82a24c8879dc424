package models

import "gorm.io/datatypes"

// IdempotencyKey istemcinin gönderdiği token ile saklanan yanıt eşlemesi.
// Aynı token ile tekrar edilen istek, saklanan yanıtla aynen cevaplanır;
// aynı token farklı bir istek gövdesiyle gelirse hata döner.
type IdempotencyKey struct {
	BaseModel
	Key         string `gorm:"type:varchar(64);uniqueIndex;not null"`
	ClientID    uint   `gorm:"index;not null"`
	RequestHash string `gorm:"type:varchar(64);not null"`

	ResponseStatus int            `gorm:"not null;default:0"`
	ResponseBody   datatypes.JSON `gorm:"type:jsonb"`
}
