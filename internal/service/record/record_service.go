// Package record 提供采集记录的本地入库与查询功能
// 采集端UI递交完整的领域记录和附件路径，字段级校验不在本子系统范围内
// 新建记录一律以待同步状态入库，状态账之后只由协调器和清理服务改写
package record

import (
	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/internal/database"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/logger"
)

// ReferenceTables 参照数据集合，供采集端表单选择器使用
type ReferenceTables struct {
	Districts     []database.District     `json:"districts"`
	Occupations   []database.Occupation   `json:"occupations"`
	LandUseTypes  []database.LandUseType  `json:"land_use_types"`
	BuildingTypes []database.BuildingType `json:"building_types"`
}

// RecordService 采集记录服务接口
type RecordService interface {
	// CreateTaxpayer 新建纳税人记录，状态账重置为待同步
	CreateTaxpayer(record *database.Taxpayer) error

	// CreateParcel 新建宗地记录（含权利人与建筑物），状态账重置为待同步
	CreateParcel(record *database.Parcel) error

	// ListTaxpayers 分页查询本地纳税人记录
	ListTaxpayers(page, pageSize int) ([]database.Taxpayer, int64, error)

	// ListParcels 分页查询本地宗地记录（预加载权利人与建筑物）
	ListParcels(page, pageSize int) ([]database.Parcel, int64, error)

	// GetReferenceTables 查询全部参照表
	GetReferenceTables() (*ReferenceTables, error)
}

// recordService 采集记录服务实现
type recordService struct {
	db *gorm.DB
}

// NewRecordService 创建采集记录服务实例
func NewRecordService(db *gorm.DB) RecordService {
	return &recordService{db: db}
}

// CreateTaxpayer 新建纳税人记录
func (s *recordService) CreateTaxpayer(record *database.Taxpayer) error {
	record.SyncLedger = database.SyncLedger{SyncStatus: database.SyncStatusPending}

	if err := s.db.Create(record).Error; err != nil {
		logger.Errorf("[记录服务] 新建纳税人记录失败: %v", err)
		return errors.WrapByCode(errors.ErrDatabaseInsert, err)
	}

	logger.Infof("[记录服务] 纳税人记录已入库, ID: %d, 附件数: %d", record.ID, len(record.Attachments))
	return nil
}

// CreateParcel 新建宗地记录
// 权利人与建筑物随宗地在同一事务内入库
func (s *recordService) CreateParcel(record *database.Parcel) error {
	record.SyncLedger = database.SyncLedger{SyncStatus: database.SyncStatusPending}

	if err := s.db.Create(record).Error; err != nil {
		logger.Errorf("[记录服务] 新建宗地记录失败: %v", err)
		return errors.WrapByCode(errors.ErrDatabaseInsert, err)
	}

	logger.Infof("[记录服务] 宗地记录已入库, ID: %d, 建筑物数: %d", record.ID, len(record.Buildings))
	return nil
}

// ListTaxpayers 分页查询本地纳税人记录
func (s *recordService) ListTaxpayers(page, pageSize int) ([]database.Taxpayer, int64, error) {
	var records []database.Taxpayer
	var total int64

	if err := s.db.Model(&database.Taxpayer{}).Count(&total).Error; err != nil {
		return nil, 0, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	offset := (page - 1) * pageSize
	if err := s.db.Order("created_at ASC, id ASC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	return records, total, nil
}

// ListParcels 分页查询本地宗地记录
func (s *recordService) ListParcels(page, pageSize int) ([]database.Parcel, int64, error) {
	var records []database.Parcel
	var total int64

	if err := s.db.Model(&database.Parcel{}).Count(&total).Error; err != nil {
		return nil, 0, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	offset := (page - 1) * pageSize
	query := s.db.Preload("Owner").Preload("Buildings").Order("created_at ASC, id ASC")
	if err := query.Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	return records, total, nil
}

// GetReferenceTables 查询全部参照表
func (s *recordService) GetReferenceTables() (*ReferenceTables, error) {
	tables := &ReferenceTables{}

	if err := s.db.Order("id ASC").Find(&tables.Districts).Error; err != nil {
		return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}
	if err := s.db.Order("id ASC").Find(&tables.Occupations).Error; err != nil {
		return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}
	if err := s.db.Order("id ASC").Find(&tables.LandUseTypes).Error; err != nil {
		return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}
	if err := s.db.Order("id ASC").Find(&tables.BuildingTypes).Error; err != nil {
		return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	return tables, nil
}
