// Package export 提供分块导出协调器
// 一次导出会话: 登录换取会话凭证 -> 循环选取分块并上传 -> 按分块提交结果
// 单个分块失败只污染该分块，会话继续处理后续分块；认证失败则中止整个会话
package export

import (
	"context"

	"github.com/google/uuid"

	"github.com/weiwangfds/fieldtax/config"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/logger"
	"github.com/weiwangfds/fieldtax/internal/service/cleanup"
	"github.com/weiwangfds/fieldtax/internal/service/ledger"
	"github.com/weiwangfds/fieldtax/internal/service/session"
	"github.com/weiwangfds/fieldtax/internal/service/transfer"
)

// ExportSummary 一次导出会话的结果汇总
// 部分成功与完全成功通过两个计数区分，会话永远以汇总结束而不是静默失败
type ExportSummary struct {
	SyncedCount int `json:"synced_count"` // 成功导出并确认的记录数
	FailedCount int `json:"failed_count"` // 本次会话中失败的记录数
	ChunkCount  int `json:"chunk_count"`  // 处理的分块数
}

// ExportService 分块导出协调器接口
type ExportService interface {
	// ExportTaxpayers 导出全部待同步的纳税人记录
	// chunkSize小于等于0时使用配置的默认分块大小
	// 已有同步会话在运行时返回ErrExportInProgress，不排队
	ExportTaxpayers(ctx context.Context, chunkSize int) (*ExportSummary, error)

	// ExportParcels 导出全部待同步的宗地记录
	ExportParcels(ctx context.Context, chunkSize int) (*ExportSummary, error)
}

// exportService 分块导出协调器实现
type exportService struct {
	cfg     config.ExportConfig
	gate    *session.Gate
	ledger  ledger.LedgerService
	client  transfer.Client
	cleanup cleanup.CleanupService
}

// NewExportService 创建分块导出协调器实例
// 参数:
//   cfg: 导出配置
//   gate: 同步会话闸门，与参照数据同步共享
//   ledgerService: 同步状态账服务
//   client: 远程传输客户端
//   cleanupService: 导出后清理服务
// 返回:
//   ExportService: 导出协调器接口实例
func NewExportService(
	cfg config.ExportConfig,
	gate *session.Gate,
	ledgerService ledger.LedgerService,
	client transfer.Client,
	cleanupService cleanup.CleanupService,
) ExportService {
	return &exportService{
		cfg:     cfg,
		gate:    gate,
		ledger:  ledgerService,
		client:  client,
		cleanup: cleanupService,
	}
}

// ExportTaxpayers 导出全部待同步的纳税人记录
func (s *exportService) ExportTaxpayers(ctx context.Context, chunkSize int) (*ExportSummary, error) {
	return s.runSession(ctx, chunkSize, taxpayerOps{s})
}

// ExportParcels 导出全部待同步的宗地记录
func (s *exportService) ExportParcels(ctx context.Context, chunkSize int) (*ExportSummary, error) {
	return s.runSession(ctx, chunkSize, parcelOps{s})
}

// chunk 会话内的一个分块
type chunk struct {
	ids    []uint              // 分块内记录的本地ID
	size   int                 // 分块内记录数
	cursor ledger.PendingCursor // 分块末条记录的游标，供下一次选取使用
	upload func(ctx context.Context, token string) error
}

// entityOps 按实体类型差异化的分块操作
// 协调器流程对两类实体完全一致，只有选取、标记和清理的落点不同
type entityOps interface {
	kind() string
	next(limit int, after *ledger.PendingCursor) (*chunk, error)
	markFailed(ids []uint, message string) error
	markSynced(ids []uint) error
	purge(ids []uint) error
}

// runSession 执行一次完整的导出会话
// 不变量: 每个被选中的记录在本次尝试中恰好到达一个终态
// （删除并计入成功，或保留并标记失败），不会停留在中间状态
func (s *exportService) runSession(ctx context.Context, chunkSize int, ops entityOps) (*ExportSummary, error) {
	if !s.gate.TryAcquire() {
		logger.Warnf("[导出协调器] 已有同步会话在运行，拒绝本次%s导出", ops.kind())
		return nil, errors.ErrExportInProgressError
	}
	defer s.gate.Release()

	if chunkSize <= 0 {
		chunkSize = s.cfg.ChunkSize
	}
	if chunkSize <= 0 {
		chunkSize = 20
	}

	sessionID := uuid.New().String()
	logger.Infof("[导出协调器] 会话开始: id=%s, 实体=%s, 分块大小=%d", sessionID, ops.kind(), chunkSize)

	// 没有有效凭证不尝试任何分块，认证失败时零进度中止
	token, err := s.client.Login(ctx)
	if err != nil {
		logger.Errorf("[导出协调器] 会话%s登录失败，中止: %v", sessionID, err)
		return nil, err
	}

	summary := &ExportSummary{}
	var cursor *ledger.PendingCursor

	for {
		if s.cfg.MaxChunks > 0 && summary.ChunkCount >= s.cfg.MaxChunks {
			logger.Infof("[导出协调器] 会话%s达到分块数上限%d，结束", sessionID, s.cfg.MaxChunks)
			break
		}

		current, err := ops.next(chunkSize, cursor)
		if err != nil {
			// 本地存储错误属于会话级失败，带着已有进度上报
			return summary, err
		}
		if current.size == 0 {
			break
		}

		summary.ChunkCount++
		next := current.cursor
		cursor = &next

		logger.Infof("[导出协调器] 会话%s处理第%d个分块, 记录数: %d", sessionID, summary.ChunkCount, current.size)

		if uploadErr := current.upload(ctx, token); uploadErr != nil {
			if err := ops.markFailed(current.ids, uploadErr.Error()); err != nil {
				return summary, err
			}
			summary.FailedCount += current.size

			// 凭证在会话中途失效: 本分块已记入状态账，剩余记录留待下次会话
			if errors.IsAuthenticationError(uploadErr) {
				logger.Errorf("[导出协调器] 会话%s凭证失效，中止: %v", sessionID, uploadErr)
				return summary, uploadErr
			}

			logger.Warnf("[导出协调器] 会话%s第%d个分块失败: %v", sessionID, summary.ChunkCount, uploadErr)
			if s.cfg.StopOnChunkFailure {
				break
			}
			continue
		}

		// 后端已确认接收，按配置删除或保留本地记录
		if s.cfg.RetainAfterExport {
			if err := ops.markSynced(current.ids); err != nil {
				return summary, err
			}
		} else {
			if err := ops.purge(current.ids); err != nil {
				return summary, err
			}
		}
		summary.SyncedCount += current.size

		// 返回记录数不足分块大小说明已经取尽
		if current.size < chunkSize {
			break
		}
	}

	logger.Infof("[导出协调器] 会话%s结束: 成功=%d, 失败=%d, 分块数=%d",
		sessionID, summary.SyncedCount, summary.FailedCount, summary.ChunkCount)
	return summary, nil
}

// taxpayerOps 纳税人实体的分块操作
type taxpayerOps struct {
	s *exportService
}

func (o taxpayerOps) kind() string {
	return "taxpayers"
}

func (o taxpayerOps) next(limit int, after *ledger.PendingCursor) (*chunk, error) {
	records, err := o.s.ledger.SelectPendingTaxpayers(limit, after)
	if err != nil {
		return nil, err
	}

	current := &chunk{size: len(records)}
	if len(records) == 0 {
		return current, nil
	}

	for _, record := range records {
		current.ids = append(current.ids, record.ID)
	}
	last := records[len(records)-1]
	current.cursor = ledger.PendingCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	current.upload = func(ctx context.Context, token string) error {
		return o.s.client.UploadTaxpayerChunk(ctx, token, records)
	}
	return current, nil
}

func (o taxpayerOps) markFailed(ids []uint, message string) error {
	return o.s.ledger.MarkTaxpayersFailed(ids, message)
}

func (o taxpayerOps) markSynced(ids []uint) error {
	return o.s.ledger.MarkTaxpayersSynced(ids)
}

func (o taxpayerOps) purge(ids []uint) error {
	_, err := o.s.cleanup.PurgeTaxpayers(ids)
	return err
}

// parcelOps 宗地实体的分块操作
type parcelOps struct {
	s *exportService
}

func (o parcelOps) kind() string {
	return "parcels"
}

func (o parcelOps) next(limit int, after *ledger.PendingCursor) (*chunk, error) {
	records, err := o.s.ledger.SelectPendingParcels(limit, after)
	if err != nil {
		return nil, err
	}

	current := &chunk{size: len(records)}
	if len(records) == 0 {
		return current, nil
	}

	for _, record := range records {
		current.ids = append(current.ids, record.ID)
	}
	last := records[len(records)-1]
	current.cursor = ledger.PendingCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	current.upload = func(ctx context.Context, token string) error {
		return o.s.client.UploadParcelChunk(ctx, token, records)
	}
	return current, nil
}

func (o parcelOps) markFailed(ids []uint, message string) error {
	return o.s.ledger.MarkParcelsFailed(ids, message)
}

func (o parcelOps) markSynced(ids []uint) error {
	return o.s.ledger.MarkParcelsSynced(ids)
}

func (o parcelOps) purge(ids []uint) error {
	_, err := o.s.cleanup.PurgeParcels(ids)
	return err
}
