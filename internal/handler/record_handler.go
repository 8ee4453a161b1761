package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiwangfds/fieldtax/internal/database"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/response"
	"github.com/weiwangfds/fieldtax/internal/service/record"
)

// RecordHandler 采集记录处理器
// 采集端UI在外业离线状态下通过这些接口递交表单生成的完整记录
type RecordHandler struct {
	recordService record.RecordService
}

// NewRecordHandler 创建采集记录处理器实例
func NewRecordHandler(recordService record.RecordService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
	}
}

// CreateTaxpayer 新建纳税人记录
func (h *RecordHandler) CreateTaxpayer(c *gin.Context) {
	var taxpayer database.Taxpayer
	if err := c.ShouldBindJSON(&taxpayer); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.recordService.CreateTaxpayer(&taxpayer); err != nil {
		if appErr, ok := errors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.Error(c, int(errors.ErrDatabaseInsert), err.Error())
		}
		return
	}

	response.SuccessWithMessage(c, "纳税人记录已入库", gin.H{
		"taxpayer": taxpayer,
	})
}

// CreateParcel 新建宗地记录
func (h *RecordHandler) CreateParcel(c *gin.Context) {
	var parcel database.Parcel
	if err := c.ShouldBindJSON(&parcel); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.recordService.CreateParcel(&parcel); err != nil {
		if appErr, ok := errors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.Error(c, int(errors.ErrDatabaseInsert), err.Error())
		}
		return
	}

	response.SuccessWithMessage(c, "宗地记录已入库", gin.H{
		"parcel": parcel,
	})
}

// ListTaxpayers 分页查询本地纳税人记录
func (h *RecordHandler) ListTaxpayers(c *gin.Context) {
	page, pageSize := parsePagination(c)

	records, total, err := h.recordService.ListTaxpayers(page, pageSize)
	if err != nil {
		if appErr, ok := errors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.InternalServerError(c, err.Error())
		}
		return
	}

	response.SuccessWithPage(c, records, total, page, pageSize)
}

// ListParcels 分页查询本地宗地记录
func (h *RecordHandler) ListParcels(c *gin.Context) {
	page, pageSize := parsePagination(c)

	records, total, err := h.recordService.ListParcels(page, pageSize)
	if err != nil {
		if appErr, ok := errors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.InternalServerError(c, err.Error())
		}
		return
	}

	response.SuccessWithPage(c, records, total, page, pageSize)
}

// ListReferenceTables 查询全部参照表，供表单选择器使用
func (h *RecordHandler) ListReferenceTables(c *gin.Context) {
	tables, err := h.recordService.GetReferenceTables()
	if err != nil {
		if appErr, ok := errors.GetAppError(err); ok {
			response.Error(c, int(appErr.Code), appErr.Message)
		} else {
			response.InternalServerError(c, err.Error())
		}
		return
	}

	response.Success(c, tables)
}

// parsePagination 解析分页参数，超出范围时回落到默认值
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return page, pageSize
}
