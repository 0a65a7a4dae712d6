package mysql

import (
	"time"

	"gorm.io/gorm"
)

// RolePrivilegeModel 角色权限表
type RolePrivilegeModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Role      string    `gorm:"column:role;type:varchar(32);not null;uniqueIndex:uk_role_privilege,priority:1"`
	Privilege string    `gorm:"column:privilege;type:varchar(32);not null;uniqueIndex:uk_role_privilege,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (RolePrivilegeModel) TableName() string { return "role_privileges" }

// AutoMigrate 迁移授权相关表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RolePrivilegeModel{})
}
