// Package transfer 定义上传分块的线上数据格式
// 记录中的参照表外键即后端分配的ID（参照数据同步保持ID不变），可直接上送
package transfer

import (
	"time"

	"github.com/weiwangfds/fieldtax/internal/database"
)

// taxpayerPayload 纳税人记录的线上格式
type taxpayerPayload struct {
	LocalID         uint      `json:"local_id"`                // 本地记录ID，附件部分通过该ID关联
	FullName        string    `json:"full_name"`               // 纳税人姓名
	NationalID      string    `json:"national_id"`             // 身份证件号码
	TaxCode         string    `json:"tax_code"`                // 税务登记号
	Address         string    `json:"address"`                 // 居住地址
	Phone           string    `json:"phone"`                   // 联系电话
	DeclaredIncome  float64   `json:"declared_income"`         // 申报年收入
	OccupationID    *uint     `json:"occupation_id,omitempty"` // 职业类别ID（后端参照ID）
	DistrictID      *uint     `json:"district_id,omitempty"`   // 行政区ID（后端参照ID）
	AttachmentCount int       `json:"attachment_count"`        // 附件数量，供接收端校验
	CapturedAt      time.Time `json:"captured_at"`             // 外业采集时间
}

// newTaxpayerPayload 由本地记录构造纳税人线上格式
func newTaxpayerPayload(record *database.Taxpayer) taxpayerPayload {
	return taxpayerPayload{
		LocalID:         record.ID,
		FullName:        record.FullName,
		NationalID:      record.NationalID,
		TaxCode:         record.TaxCode,
		Address:         record.Address,
		Phone:           record.Phone,
		DeclaredIncome:  record.DeclaredIncome,
		OccupationID:    record.OccupationID,
		DistrictID:      record.DistrictID,
		AttachmentCount: len(record.Attachments),
		CapturedAt:      record.CreatedAt,
	}
}

// ownerPayload 宗地权利人的线上格式
type ownerPayload struct {
	FullName     string  `json:"full_name"`     // 权利人姓名
	NationalID   string  `json:"national_id"`   // 身份证件号码
	Phone        string  `json:"phone"`         // 联系电话
	SharePercent float64 `json:"share_percent"` // 权利份额
}

// buildingPayload 建筑物的线上格式
type buildingPayload struct {
	Name           string  `json:"name"`                        // 建筑物名称
	BuildingTypeID *uint   `json:"building_type_id,omitempty"`  // 建筑类型ID（后端参照ID）
	FloorArea      float64 `json:"floor_area"`                  // 建筑面积
	Floors         int     `json:"floors"`                      // 层数
	YearBuilt      int     `json:"year_built"`                  // 建成年份
}

// parcelPayload 宗地记录的线上格式
// 从属记录（权利人、建筑物）内联在宗地中一并上送
type parcelPayload struct {
	LocalID         uint              `json:"local_id"`                    // 本地记录ID，附件部分通过该ID关联
	CadastralCode   string            `json:"cadastral_code"`              // 宗地代码
	Address         string            `json:"address"`                     // 坐落地址
	Area            float64           `json:"area"`                        // 宗地面积
	AcquisitionDate *time.Time        `json:"acquisition_date,omitempty"`  // 取得日期
	LandUseTypeID   *uint             `json:"land_use_type_id,omitempty"`  // 土地用途ID（后端参照ID）
	DistrictID      *uint             `json:"district_id,omitempty"`       // 行政区ID（后端参照ID）
	Owner           *ownerPayload     `json:"owner,omitempty"`             // 权利人
	Buildings       []buildingPayload `json:"buildings"`                   // 建筑物列表
	AttachmentCount int               `json:"attachment_count"`            // 附件数量，供接收端校验
	CapturedAt      time.Time         `json:"captured_at"`                 // 外业采集时间
}

// newParcelPayload 由本地记录构造宗地线上格式
func newParcelPayload(record *database.Parcel) parcelPayload {
	payload := parcelPayload{
		LocalID:         record.ID,
		CadastralCode:   record.CadastralCode,
		Address:         record.Address,
		Area:            record.Area,
		AcquisitionDate: record.AcquisitionDate,
		LandUseTypeID:   record.LandUseTypeID,
		DistrictID:      record.DistrictID,
		Buildings:       make([]buildingPayload, 0, len(record.Buildings)),
		AttachmentCount: len(record.Attachments),
		CapturedAt:      record.CreatedAt,
	}

	if record.Owner != nil {
		payload.Owner = &ownerPayload{
			FullName:     record.Owner.FullName,
			NationalID:   record.Owner.NationalID,
			Phone:        record.Owner.Phone,
			SharePercent: record.Owner.SharePercent,
		}
	}

	for _, building := range record.Buildings {
		payload.Buildings = append(payload.Buildings, buildingPayload{
			Name:           building.Name,
			BuildingTypeID: building.BuildingTypeID,
			FloorArea:      building.FloorArea,
			Floors:         building.Floors,
			YearBuilt:      building.YearBuilt,
		})
	}

	return payload
}
