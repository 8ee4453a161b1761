// Package database 定义了纳税人相关的数据库模型
package database

import (
	"time"
)

// Taxpayer 纳税人登记记录模型
// 外业采集端离线录入的纳税人信息，内嵌同步状态账
// 导出成功并经后端确认后，记录连同附件一并从本地删除
type Taxpayer struct {
	ID             uint           `gorm:"primarykey" json:"id"`                              // 主键ID，本地自增
	FullName       string         `gorm:"not null;size:200" json:"full_name"`                // 纳税人姓名
	NationalID     string         `gorm:"uniqueIndex;not null;size:30" json:"national_id"`   // 身份证件号码
	TaxCode        string         `gorm:"size:30" json:"tax_code"`                           // 税务登记号
	Address        string         `gorm:"size:500" json:"address"`                           // 居住地址
	Phone          string         `gorm:"size:30" json:"phone"`                              // 联系电话
	DeclaredIncome float64        `gorm:"default:0" json:"declared_income"`                  // 申报年收入
	OccupationID   *uint          `gorm:"index" json:"occupation_id,omitempty"`              // 职业类别外键，指向参照表occupations
	DistrictID     *uint          `gorm:"index" json:"district_id,omitempty"`                // 行政区外键，指向参照表districts
	Attachments    AttachmentList `gorm:"type:text" json:"attachments"`                      // 现场照片文件路径列表
	SyncLedger     `json:"sync_ledger"`                                                     // 内嵌同步状态账
	CreatedAt      time.Time      `json:"created_at"`                                        // 记录创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                        // 记录最后更新时间
}

// TableName 指定Taxpayer模型对应的数据库表名
func (Taxpayer) TableName() string {
	return "taxpayers"
}
