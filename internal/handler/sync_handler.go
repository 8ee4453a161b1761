// Package handler 提供HTTP接口处理器
// 采集端UI通过这些接口触发同步操作并获取结果汇总
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/response"
	"github.com/weiwangfds/fieldtax/internal/service/export"
	"github.com/weiwangfds/fieldtax/internal/service/ledger"
	"github.com/weiwangfds/fieldtax/internal/service/refdata"
)

// SyncHandler 同步操作处理器
type SyncHandler struct {
	exportService  export.ExportService
	refdataService refdata.RefdataService
	ledgerService  ledger.LedgerService
}

// NewSyncHandler 创建同步操作处理器实例
func NewSyncHandler(
	exportService export.ExportService,
	refdataService refdata.RefdataService,
	ledgerService ledger.LedgerService,
) *SyncHandler {
	return &SyncHandler{
		exportService:  exportService,
		refdataService: refdataService,
		ledgerService:  ledgerService,
	}
}

// exportRequest 导出请求体
type exportRequest struct {
	ChunkSize int `json:"chunk_size"` // 分块大小，0表示使用配置默认值
}

// ExportTaxpayers 导出全部待同步的纳税人记录
// 会话结束后返回成功/失败计数；已有会话在运行时返回409
func (h *SyncHandler) ExportTaxpayers(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "请求参数错误: "+err.Error())
			return
		}
	}

	summary, err := h.exportService.ExportTaxpayers(c.Request.Context(), req.ChunkSize)
	h.respondExport(c, summary, err)
}

// ExportParcels 导出全部待同步的宗地记录
func (h *SyncHandler) ExportParcels(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "请求参数错误: "+err.Error())
			return
		}
	}

	summary, err := h.exportService.ExportParcels(c.Request.Context(), req.ChunkSize)
	h.respondExport(c, summary, err)
}

// respondExport 将导出结果转换为统一响应
// 会话级错误（认证失败、本地存储错误）连同已有进度一并返回
func (h *SyncHandler) respondExport(c *gin.Context, summary *export.ExportSummary, err error) {
	if err != nil {
		appErr, ok := errors.GetAppError(err)
		if ok && appErr.Code == errors.ErrExportInProgress {
			response.Conflict(c, appErr.Message)
			return
		}

		if ok {
			response.ErrorWithData(c, int(appErr.Code), appErr.Message, summary)
		} else {
			response.ErrorWithData(c, int(errors.ErrInternalServer), err.Error(), summary)
		}
		return
	}

	if summary.FailedCount > 0 {
		response.SuccessWithMessage(c, "导出完成（部分失败）", summary)
		return
	}
	response.SuccessWithMessage(c, "导出完成", summary)
}

// SynchronizeReference 全量重同步参照数据
func (h *SyncHandler) SynchronizeReference(c *gin.Context) {
	summary, err := h.refdataService.Synchronize(c.Request.Context())
	if err != nil {
		appErr, ok := errors.GetAppError(err)
		if ok && appErr.Code == errors.ErrExportInProgress {
			response.Conflict(c, appErr.Message)
			return
		}

		if ok {
			response.ErrorWithData(c, int(appErr.Code), appErr.Message, summary)
		} else {
			response.ErrorWithData(c, int(errors.ErrReferenceSync), err.Error(), summary)
		}
		return
	}

	response.SuccessWithMessage(c, summary.Message, summary)
}

// GetPendingStatus 查询待同步记录统计
func (h *SyncHandler) GetPendingStatus(c *gin.Context) {
	summary, err := h.ledgerService.CountPending()
	if err != nil {
		if appErr, ok := errors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.InternalServerError(c, err.Error())
		}
		return
	}

	response.Success(c, summary)
}
