package entity

import (
	"time"

	"gorm.io/datatypes"
)

// User 用户实体
// Profile 为可选的扩展资料（JSON），填写过资料的用户在行为挖掘中
// 会携带 User_Has_Profile 标记
type User struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Email     string         `gorm:"column:email;type:varchar(255);uniqueIndex:uk_email;not null"`
	FirstName string         `gorm:"column:first_name;type:varchar(128)"`
	Profile   datatypes.JSON `gorm:"column:profile;type:json"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasProfile 判断用户是否填写过资料
func (u *User) HasProfile() bool {
	return u.FirstName != "" || len(u.Profile) > 2 // "{}" 视为空
}
