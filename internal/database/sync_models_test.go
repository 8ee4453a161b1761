// Package database 提供同步状态账模型的单元测试
package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSyncStatusString 测试同步状态的可读名称
func TestSyncStatusString(t *testing.T) {
	assert.Equal(t, "pending", SyncStatusPending.String())
	assert.Equal(t, "synced", SyncStatusSynced.String())
	assert.Equal(t, "failed", SyncStatusFailed.String())
	assert.Equal(t, "unknown(9)", SyncStatus(9).String())
}

// TestAttachmentListValue 测试附件列表序列化
func TestAttachmentListValue(t *testing.T) {
	t.Run("空列表序列化为空数组", func(t *testing.T) {
		value, err := AttachmentList(nil).Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", value)
	})

	t.Run("路径列表序列化为JSON数组", func(t *testing.T) {
		value, err := AttachmentList{"/data/a.jpg", "/data/b.jpg"}.Value()
		require.NoError(t, err)
		assert.Equal(t, `["/data/a.jpg","/data/b.jpg"]`, value)
	})
}

// TestAttachmentListScan 测试附件列表反序列化
func TestAttachmentListScan(t *testing.T) {
	t.Run("从字符串反序列化", func(t *testing.T) {
		var list AttachmentList
		require.NoError(t, list.Scan(`["/data/a.jpg"]`))
		assert.Equal(t, AttachmentList{"/data/a.jpg"}, list)
	})

	t.Run("从字节切片反序列化", func(t *testing.T) {
		var list AttachmentList
		require.NoError(t, list.Scan([]byte(`["/data/a.jpg","/data/b.jpg"]`)))
		assert.Len(t, list, 2)
	})

	t.Run("空值得到空列表", func(t *testing.T) {
		var list AttachmentList
		require.NoError(t, list.Scan(nil))
		assert.Nil(t, list)
	})

	t.Run("不支持的类型返回错误", func(t *testing.T) {
		var list AttachmentList
		assert.Error(t, list.Scan(42))
	})
}
