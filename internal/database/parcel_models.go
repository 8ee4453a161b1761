// Package database 定义了不动产相关的数据库模型
// 包含宗地、权利人和建筑物模型
package database

import (
	"time"
)

// Parcel 宗地登记记录模型
// 外业采集端离线录入的不动产信息，内嵌同步状态账
// 权利人为一对一从属记录，建筑物通过关联表多对多挂接
type Parcel struct {
	ID              uint           `gorm:"primarykey" json:"id"`                               // 主键ID，本地自增
	CadastralCode   string         `gorm:"uniqueIndex;not null;size:50" json:"cadastral_code"` // 宗地代码
	Address         string         `gorm:"size:500" json:"address"`                            // 坐落地址
	Area            float64        `gorm:"not null" json:"area"`                               // 宗地面积（平方米）
	AcquisitionDate *time.Time     `json:"acquisition_date,omitempty"`                         // 取得日期
	LandUseTypeID   *uint          `gorm:"index" json:"land_use_type_id,omitempty"`            // 土地用途外键，指向参照表land_use_types
	DistrictID      *uint          `gorm:"index" json:"district_id,omitempty"`                 // 行政区外键，指向参照表districts
	Attachments     AttachmentList `gorm:"type:text" json:"attachments"`                       // 现场照片文件路径列表
	Owner           *ParcelOwner   `gorm:"foreignKey:ParcelID" json:"owner,omitempty"`         // 权利人，一对一从属记录
	Buildings       []Building     `gorm:"many2many:parcel_buildings" json:"buildings"`        // 建筑物，多对多关联
	SyncLedger      `json:"sync_ledger"`                                                      // 内嵌同步状态账
	CreatedAt       time.Time      `json:"created_at"`                                         // 记录创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                         // 记录最后更新时间
}

// TableName 指定Parcel模型对应的数据库表名
func (Parcel) TableName() string {
	return "parcels"
}

// ParcelOwner 宗地权利人模型
// 从属于宗地的一对一记录，随宗地一并删除
type ParcelOwner struct {
	ID           uint      `gorm:"primarykey" json:"id"`                        // 主键ID，本地自增
	ParcelID     uint      `gorm:"uniqueIndex;not null" json:"parcel_id"`       // 所属宗地外键
	FullName     string    `gorm:"not null;size:200" json:"full_name"`          // 权利人姓名
	NationalID   string    `gorm:"not null;size:30" json:"national_id"`         // 身份证件号码
	Phone        string    `gorm:"size:30" json:"phone"`                        // 联系电话
	SharePercent float64   `gorm:"default:100" json:"share_percent"`            // 权利份额（百分比）
	CreatedAt    time.Time `json:"created_at"`                                  // 记录创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                  // 记录最后更新时间
}

// TableName 指定ParcelOwner模型对应的数据库表名
func (ParcelOwner) TableName() string {
	return "parcel_owners"
}

// Building 建筑物模型
// 通过parcel_buildings关联表与宗地多对多挂接
// 清理时仅删除不再被任何宗地引用的建筑物
type Building struct {
	ID             uint      `gorm:"primarykey" json:"id"`                     // 主键ID，本地自增
	Name           string    `gorm:"size:200" json:"name"`                     // 建筑物名称
	BuildingTypeID *uint     `gorm:"index" json:"building_type_id,omitempty"`  // 建筑类型外键，指向参照表building_types
	FloorArea      float64   `gorm:"default:0" json:"floor_area"`              // 建筑面积（平方米）
	Floors         int       `gorm:"default:1" json:"floors"`                  // 层数
	YearBuilt      int       `json:"year_built"`                               // 建成年份
	CreatedAt      time.Time `json:"created_at"`                               // 记录创建时间
	UpdatedAt      time.Time `json:"updated_at"`                               // 记录最后更新时间
}

// TableName 指定Building模型对应的数据库表名
func (Building) TableName() string {
	return "buildings"
}
