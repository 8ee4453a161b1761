// Package database 定义了数据库相关的模型和结构体
// 包含纳税人、不动产登记和参照数据等核心数据模型
package database

// 此文件保留作为数据库模型包的入口文件
// 具体的模型定义已拆分到以下文件：
// - sync_models.go: 同步状态账相关模型（SyncStatus, SyncLedger, AttachmentList）
// - taxpayer_models.go: 纳税人相关模型（Taxpayer）
// - parcel_models.go: 不动产相关模型（Parcel, ParcelOwner, Building）
// - reference_models.go: 参照数据模型（District, Occupation, LandUseType, BuildingType）
