// Package handler 提供同步操作处理器的单元测试
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiwangfds/fieldtax/internal/database"
	apperrors "github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/response"
	"github.com/weiwangfds/fieldtax/internal/service/export"
	"github.com/weiwangfds/fieldtax/internal/service/ledger"
	"github.com/weiwangfds/fieldtax/internal/service/refdata"
)

// stubExportService 脚本化的导出协调器桩
type stubExportService struct {
	summary      *export.ExportSummary
	err          error
	gotChunkSize int
}

func (s *stubExportService) ExportTaxpayers(ctx context.Context, chunkSize int) (*export.ExportSummary, error) {
	s.gotChunkSize = chunkSize
	return s.summary, s.err
}

func (s *stubExportService) ExportParcels(ctx context.Context, chunkSize int) (*export.ExportSummary, error) {
	s.gotChunkSize = chunkSize
	return s.summary, s.err
}

// stubRefdataService 脚本化的参照数据同步服务桩
type stubRefdataService struct {
	summary *refdata.RefreshSummary
	err     error
}

func (s *stubRefdataService) Synchronize(ctx context.Context) (*refdata.RefreshSummary, error) {
	return s.summary, s.err
}

// stubLedgerService 只为CountPending提供脚本结果的状态账桩
type stubLedgerService struct {
	summary *ledger.PendingSummary
	err     error
}

func (s *stubLedgerService) MarkTaxpayersSynced(ids []uint) error               { return nil }
func (s *stubLedgerService) MarkTaxpayersFailed(ids []uint, message string) error { return nil }
func (s *stubLedgerService) MarkParcelsSynced(ids []uint) error                 { return nil }
func (s *stubLedgerService) MarkParcelsFailed(ids []uint, message string) error { return nil }

func (s *stubLedgerService) SelectPendingTaxpayers(limit int, after *ledger.PendingCursor) ([]database.Taxpayer, error) {
	return nil, nil
}

func (s *stubLedgerService) SelectPendingParcels(limit int, after *ledger.PendingCursor) ([]database.Parcel, error) {
	return nil, nil
}

func (s *stubLedgerService) CountPending() (*ledger.PendingSummary, error) {
	return s.summary, s.err
}

// newSyncTestRouter 构造注册了同步路由的测试引擎
func newSyncTestRouter(handler *SyncHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	sync := engine.Group("/api/v1/sync")
	{
		sync.POST("/taxpayers", handler.ExportTaxpayers)
		sync.POST("/parcels", handler.ExportParcels)
		sync.POST("/reference", handler.SynchronizeReference)
		sync.GET("/pending", handler.GetPendingStatus)
	}
	return engine
}

// doRequest 执行一次测试请求并解析统一响应
func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return recorder, resp
}

// TestExportTaxpayersEndpoint 测试纳税人导出接口
func TestExportTaxpayersEndpoint(t *testing.T) {
	t.Run("导出成功返回汇总", func(t *testing.T) {
		exportStub := &stubExportService{
			summary: &export.ExportSummary{SyncedCount: 45, FailedCount: 0, ChunkCount: 3},
		}
		engine := newSyncTestRouter(NewSyncHandler(exportStub, &stubRefdataService{}, &stubLedgerService{}))

		recorder, resp := doRequest(t, engine, http.MethodPost, "/api/v1/sync/taxpayers", `{"chunk_size":10}`)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, 10, exportStub.gotChunkSize)

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(45), data["synced_count"])
		assert.Equal(t, float64(3), data["chunk_count"])
	})

	t.Run("空请求体使用默认分块大小", func(t *testing.T) {
		exportStub := &stubExportService{summary: &export.ExportSummary{}}
		engine := newSyncTestRouter(NewSyncHandler(exportStub, &stubRefdataService{}, &stubLedgerService{}))

		recorder, _ := doRequest(t, engine, http.MethodPost, "/api/v1/sync/taxpayers", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 0, exportStub.gotChunkSize)
	})

	t.Run("请求体非法返回400", func(t *testing.T) {
		engine := newSyncTestRouter(NewSyncHandler(&stubExportService{}, &stubRefdataService{}, &stubLedgerService{}))

		recorder, _ := doRequest(t, engine, http.MethodPost, "/api/v1/sync/taxpayers", `{"chunk_size":`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("部分失败时消息区分", func(t *testing.T) {
		exportStub := &stubExportService{
			summary: &export.ExportSummary{SyncedCount: 25, FailedCount: 20, ChunkCount: 3},
		}
		engine := newSyncTestRouter(NewSyncHandler(exportStub, &stubRefdataService{}, &stubLedgerService{}))

		recorder, resp := doRequest(t, engine, http.MethodPost, "/api/v1/sync/taxpayers", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 0, resp.Code)
		assert.Contains(t, resp.Message, "部分失败")
	})

	t.Run("会话互斥时返回409", func(t *testing.T) {
		exportStub := &stubExportService{err: apperrors.ErrExportInProgressError}
		engine := newSyncTestRouter(NewSyncHandler(exportStub, &stubRefdataService{}, &stubLedgerService{}))

		recorder, _ := doRequest(t, engine, http.MethodPost, "/api/v1/sync/taxpayers", "")
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("会话级错误连同已有进度返回", func(t *testing.T) {
		exportStub := &stubExportService{
			summary: &export.ExportSummary{SyncedCount: 20, FailedCount: 20, ChunkCount: 2},
			err:     apperrors.NewByCode(apperrors.ErrAuthTokenExpired),
		}
		engine := newSyncTestRouter(NewSyncHandler(exportStub, &stubRefdataService{}, &stubLedgerService{}))

		recorder, resp := doRequest(t, engine, http.MethodPost, "/api/v1/sync/taxpayers", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, int(apperrors.ErrAuthTokenExpired), resp.Code)

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(20), data["synced_count"])
	})
}

// TestSynchronizeReferenceEndpoint 测试参照数据同步接口
func TestSynchronizeReferenceEndpoint(t *testing.T) {
	t.Run("同步成功返回各表行数", func(t *testing.T) {
		refdataStub := &stubRefdataService{
			summary: &refdata.RefreshSummary{
				Success:       true,
				Message:       "参照数据同步完成",
				CountsByTable: map[string]int{"districts": 2},
			},
		}
		engine := newSyncTestRouter(NewSyncHandler(&stubExportService{}, refdataStub, &stubLedgerService{}))

		recorder, resp := doRequest(t, engine, http.MethodPost, "/api/v1/sync/reference", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, "参照数据同步完成", resp.Message)
	})

	t.Run("会话互斥时返回409", func(t *testing.T) {
		refdataStub := &stubRefdataService{err: apperrors.ErrExportInProgressError}
		engine := newSyncTestRouter(NewSyncHandler(&stubExportService{}, refdataStub, &stubLedgerService{}))

		recorder, _ := doRequest(t, engine, http.MethodPost, "/api/v1/sync/reference", "")
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

// TestGetPendingStatusEndpoint 测试待同步统计接口
func TestGetPendingStatusEndpoint(t *testing.T) {
	ledgerStub := &stubLedgerService{
		summary: &ledger.PendingSummary{TaxpayerPending: 3, TaxpayerFailed: 1},
	}
	engine := newSyncTestRouter(NewSyncHandler(&stubExportService{}, &stubRefdataService{}, ledgerStub))

	recorder, resp := doRequest(t, engine, http.MethodGet, "/api/v1/sync/pending", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), data["taxpayer_pending"])
	assert.Equal(t, float64(1), data["taxpayer_failed"])
}
