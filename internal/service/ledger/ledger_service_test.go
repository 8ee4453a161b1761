// Package ledger 提供同步状态账服务的单元测试
package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/internal/database"
)

// setupTestDB 设置测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	// 使用内存SQLite数据库进行测试
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存数据库限制单连接，避免每个连接各自为政
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// seedTaxpayers 按递增的创建时间写入n条待同步纳税人记录
func seedTaxpayers(t *testing.T, db *gorm.DB, n int) []database.Taxpayer {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	records := make([]database.Taxpayer, 0, n)
	for i := 0; i < n; i++ {
		record := database.Taxpayer{
			FullName:   fmt.Sprintf("纳税人%03d", i+1),
			NationalID: fmt.Sprintf("11010119900101%04d", i+1),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&record).Error)
		records = append(records, record)
	}
	return records
}

// TestMarkFailed 测试失败状态转换
func TestMarkFailed(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	records := seedTaxpayers(t, db, 3)

	t.Run("记录错误并递增尝试次数", func(t *testing.T) {
		ids := []uint{records[0].ID, records[1].ID}
		require.NoError(t, service.MarkTaxpayersFailed(ids, "connection refused"))

		var updated []database.Taxpayer
		require.NoError(t, db.Where("id IN ?", ids).Find(&updated).Error)
		require.Len(t, updated, 2)

		for _, record := range updated {
			assert.Equal(t, database.SyncStatusFailed, record.SyncStatus)
			require.NotNil(t, record.SyncError)
			assert.Equal(t, "connection refused", *record.SyncError)
			assert.Equal(t, 1, record.SyncAttempts)
			assert.NotNil(t, record.LastSyncAt)
		}
	})

	t.Run("再次失败时尝试次数恰好加一", func(t *testing.T) {
		ids := []uint{records[0].ID}
		require.NoError(t, service.MarkTaxpayersFailed(ids, "timeout"))

		var record database.Taxpayer
		require.NoError(t, db.First(&record, records[0].ID).Error)
		assert.Equal(t, 2, record.SyncAttempts)
		require.NotNil(t, record.SyncError)
		assert.Equal(t, "timeout", *record.SyncError)
	})

	t.Run("未涉及的记录不受影响", func(t *testing.T) {
		var record database.Taxpayer
		require.NoError(t, db.First(&record, records[2].ID).Error)
		assert.Equal(t, database.SyncStatusPending, record.SyncStatus)
		assert.Equal(t, 0, record.SyncAttempts)
	})

	t.Run("空ID列表为空操作", func(t *testing.T) {
		require.NoError(t, service.MarkTaxpayersFailed(nil, "ignored"))
	})
}

// TestMarkSynced 测试已同步状态转换
func TestMarkSynced(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	records := seedTaxpayers(t, db, 2)

	// 先制造失败状态，验证转换时错误信息被清空
	require.NoError(t, service.MarkTaxpayersFailed([]uint{records[0].ID}, "boom"))
	require.NoError(t, service.MarkTaxpayersSynced([]uint{records[0].ID}))

	var record database.Taxpayer
	require.NoError(t, db.First(&record, records[0].ID).Error)
	assert.Equal(t, database.SyncStatusSynced, record.SyncStatus)
	assert.Nil(t, record.SyncError, "已同步记录不允许保留错误信息")
	assert.NotNil(t, record.LastSyncAt)
	// 尝试次数只由失败转换递增
	assert.Equal(t, 1, record.SyncAttempts)
}

// TestSelectPending 测试待同步记录选取
func TestSelectPending(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	records := seedTaxpayers(t, db, 10)

	t.Run("不超过limit条", func(t *testing.T) {
		selected, err := service.SelectPendingTaxpayers(4, nil)
		require.NoError(t, err)
		assert.Len(t, selected, 4)
	})

	t.Run("按创建时间和ID升序", func(t *testing.T) {
		selected, err := service.SelectPendingTaxpayers(10, nil)
		require.NoError(t, err)
		require.Len(t, selected, 10)
		for i := 1; i < len(selected); i++ {
			assert.True(t, selected[i-1].ID < selected[i].ID)
		}
	})

	t.Run("已同步记录不再被选中", func(t *testing.T) {
		require.NoError(t, service.MarkTaxpayersSynced([]uint{records[0].ID, records[1].ID}))

		selected, err := service.SelectPendingTaxpayers(10, nil)
		require.NoError(t, err)
		assert.Len(t, selected, 8)
		for _, record := range selected {
			assert.NotEqual(t, database.SyncStatusSynced, record.SyncStatus)
		}
	})

	t.Run("失败记录始终可再次选中", func(t *testing.T) {
		require.NoError(t, service.MarkTaxpayersFailed([]uint{records[2].ID}, "boom"))

		selected, err := service.SelectPendingTaxpayers(10, nil)
		require.NoError(t, err)

		var found bool
		for _, record := range selected {
			if record.ID == records[2].ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("游标之后的记录才会返回", func(t *testing.T) {
		cursor := &PendingCursor{CreatedAt: records[4].CreatedAt, ID: records[4].ID}
		selected, err := service.SelectPendingTaxpayers(10, cursor)
		require.NoError(t, err)
		for _, record := range selected {
			assert.True(t, record.ID > records[4].ID)
		}
	})
}

// TestCountPending 测试待同步统计
func TestCountPending(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	records := seedTaxpayers(t, db, 5)

	require.NoError(t, service.MarkTaxpayersFailed([]uint{records[0].ID}, "boom"))
	require.NoError(t, service.MarkTaxpayersSynced([]uint{records[1].ID}))

	summary, err := service.CountPending()
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TaxpayerPending)
	assert.Equal(t, int64(1), summary.TaxpayerFailed)
	assert.Equal(t, int64(0), summary.ParcelPending)
	assert.Equal(t, int64(0), summary.ParcelFailed)
}
