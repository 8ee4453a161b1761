// Package database 定义了共享参照数据模型
// 参照表由后端统一下发，ID为后端分配并在全量替换时保持不变
// 本地领域记录以外键引用参照表ID，ID稳定性是参照数据同步的硬性约束
package database

// District 行政区参照表
type District struct {
	ID    uint   `gorm:"primarykey" json:"id"`          // 后端分配的ID，替换时保持不变
	Label string `gorm:"not null;size:200" json:"label"` // 行政区名称
}

// TableName 指定District模型对应的数据库表名
func (District) TableName() string {
	return "districts"
}

// Occupation 职业类别参照表
type Occupation struct {
	ID    uint   `gorm:"primarykey" json:"id"`          // 后端分配的ID，替换时保持不变
	Label string `gorm:"not null;size:200" json:"label"` // 职业类别名称
}

// TableName 指定Occupation模型对应的数据库表名
func (Occupation) TableName() string {
	return "occupations"
}

// LandUseType 土地用途参照表
type LandUseType struct {
	ID    uint   `gorm:"primarykey" json:"id"`          // 后端分配的ID，替换时保持不变
	Label string `gorm:"not null;size:200" json:"label"` // 土地用途名称
}

// TableName 指定LandUseType模型对应的数据库表名
func (LandUseType) TableName() string {
	return "land_use_types"
}

// BuildingType 建筑类型参照表
type BuildingType struct {
	ID    uint   `gorm:"primarykey" json:"id"`          // 后端分配的ID，替换时保持不变
	Label string `gorm:"not null;size:200" json:"label"` // 建筑类型名称
}

// TableName 指定BuildingType模型对应的数据库表名
func (BuildingType) TableName() string {
	return "building_types"
}
