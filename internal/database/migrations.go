// Package database 提供数据库迁移功能
// 包含采集记录表和参照表的创建与索引优化
package database

import (
	"gorm.io/gorm"
)

// AutoMigrate 执行全部表结构的自动迁移
// 参数: db *gorm.DB - GORM数据库连接实例
// 返回值: error - 迁移失败时返回错误信息
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Taxpayer{},     // 纳税人登记表
		&Parcel{},       // 宗地登记表
		&ParcelOwner{},  // 宗地权利人表
		&Building{},     // 建筑物表
		&District{},     // 行政区参照表
		&Occupation{},   // 职业类别参照表
		&LandUseType{},  // 土地用途参照表
		&BuildingType{}, // 建筑类型参照表
	)
	if err != nil {
		return err
	}

	return createSyncIndexes(db)
}

// createSyncIndexes 创建同步查询使用的复合索引
// 待同步记录的选取按(created_at, id)排序，保证分页确定可续传
func createSyncIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_taxpayers_sync_order ON taxpayers(sync_status, created_at, id)",
		"CREATE INDEX IF NOT EXISTS idx_parcels_sync_order ON parcels(sync_status, created_at, id)",
		"CREATE INDEX IF NOT EXISTS idx_parcel_owners_parcel ON parcel_owners(parcel_id)",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}
	return nil
}
