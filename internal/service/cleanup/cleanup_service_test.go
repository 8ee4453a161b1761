// Package cleanup 提供导出后清理服务的单元测试
package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/internal/database"
)

// setupTestDB 设置测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// TestPurgeTaxpayers 测试纳税人记录清理
func TestPurgeTaxpayers(t *testing.T) {
	db := setupTestDB(t)
	service := NewCleanupService(db)

	dir := t.TempDir()
	existing := filepath.Join(dir, "id_card.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("jpeg"), 0644))
	missing := filepath.Join(dir, "already_gone.jpg")

	target := database.Taxpayer{
		FullName:    "待清理",
		NationalID:  "110101199001010001",
		Attachments: database.AttachmentList{existing, missing},
	}
	require.NoError(t, db.Create(&target).Error)

	kept := database.Taxpayer{FullName: "保留", NationalID: "110101199001010002"}
	require.NoError(t, db.Create(&kept).Error)

	result, err := service.PurgeTaxpayers([]uint{target.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.RecordsDeleted)
	assert.Equal(t, 1, result.FilesDeleted)
	// 磁盘上已不存在的附件文件静默跳过，不计入失败
	assert.Equal(t, 0, result.FileFailures)

	_, statErr := os.Stat(existing)
	assert.True(t, os.IsNotExist(statErr))

	var remaining []database.Taxpayer
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}

// TestPurgeTaxpayersEmptyIDs 测试空ID列表为空操作
func TestPurgeTaxpayersEmptyIDs(t *testing.T) {
	db := setupTestDB(t)
	service := NewCleanupService(db)

	result, err := service.PurgeTaxpayers(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RecordsDeleted)
}

// TestPurgeParcelsDeletesDependents 测试宗地清理连带从属记录
func TestPurgeParcelsDeletesDependents(t *testing.T) {
	db := setupTestDB(t)
	service := NewCleanupService(db)

	parcel := database.Parcel{
		CadastralCode: "110101-001-0001",
		Area:          300,
		Owner:         &database.ParcelOwner{FullName: "权利人甲", NationalID: "110101199001010003"},
		Buildings: []database.Building{
			{Name: "主房", FloorArea: 98, Floors: 2},
		},
	}
	require.NoError(t, db.Create(&parcel).Error)

	result, err := service.PurgeParcels([]uint{parcel.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.RecordsDeleted)
	// 关联行、建筑物、权利人各一条
	assert.Equal(t, int64(3), result.DependentsDeleted)

	var parcels, owners, buildings, joins int64
	require.NoError(t, db.Model(&database.Parcel{}).Count(&parcels).Error)
	require.NoError(t, db.Model(&database.ParcelOwner{}).Count(&owners).Error)
	require.NoError(t, db.Model(&database.Building{}).Count(&buildings).Error)
	require.NoError(t, db.Table("parcel_buildings").Count(&joins).Error)
	assert.Equal(t, int64(0), parcels)
	assert.Equal(t, int64(0), owners)
	assert.Equal(t, int64(0), buildings)
	assert.Equal(t, int64(0), joins)
}

// TestPurgeParcelsKeepsSharedBuildings 测试仍被引用的建筑物不被删除
func TestPurgeParcelsKeepsSharedBuildings(t *testing.T) {
	db := setupTestDB(t)
	service := NewCleanupService(db)

	shared := database.Building{Name: "共用建筑", FloorArea: 200, Floors: 3}
	require.NoError(t, db.Create(&shared).Error)

	first := database.Parcel{
		CadastralCode: "110101-001-0001",
		Area:          300,
		Buildings:     []database.Building{shared},
	}
	require.NoError(t, db.Create(&first).Error)

	second := database.Parcel{
		CadastralCode: "110101-001-0002",
		Area:          280,
		Buildings:     []database.Building{shared},
	}
	require.NoError(t, db.Create(&second).Error)

	result, err := service.PurgeParcels([]uint{first.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RecordsDeleted)

	// 另一宗地仍引用该建筑物
	var buildings int64
	require.NoError(t, db.Model(&database.Building{}).Count(&buildings).Error)
	assert.Equal(t, int64(1), buildings)

	var joins int64
	require.NoError(t, db.Table("parcel_buildings").Where("parcel_id = ?", second.ID).Count(&joins).Error)
	assert.Equal(t, int64(1), joins)

	// 清理另一宗地后建筑物成为孤儿，随之删除
	_, err = service.PurgeParcels([]uint{second.ID})
	require.NoError(t, err)
	require.NoError(t, db.Model(&database.Building{}).Count(&buildings).Error)
	assert.Equal(t, int64(0), buildings)
}
