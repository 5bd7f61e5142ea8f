package scheduler

import (
	"context"

	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/models"
)

// TaskLedgerAudit 台账巡检任务名
const TaskLedgerAudit = "ledger_audit"

// LedgerAuditor 台账巡检
type LedgerAuditor interface {
	AuditAll(ctx context.Context) (map[int]error, error)
}

// RoomQuarantiner 隔离台账异常的房间
type RoomQuarantiner interface {
	GetRoom(ctx context.Context, number int) (*models.Room, error)
	Quarantine(ctx context.Context, number int, reason string) error
}

// TaskHandler 任务处理器
type TaskHandler struct {
	auditor     LedgerAuditor
	quarantiner RoomQuarantiner
	metrics     *metrics.Metrics
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(auditor LedgerAuditor, quarantiner RoomQuarantiner, m *metrics.Metrics) *TaskHandler {
	return &TaskHandler{
		auditor:     auditor,
		quarantiner: quarantiner,
		metrics:     m,
	}
}

// AuditLedger 巡检全部台账，隔离新发现的异常房间，只检测不修复
func (h *TaskHandler) AuditLedger(ctx context.Context) error {
	violations, err := h.auditor.AuditAll(ctx)
	if err != nil {
		return err
	}

	for room, cause := range violations {
		existing, err := h.quarantiner.GetRoom(ctx, room)
		if err != nil {
			logger.Error("[Task] 查询房间失败", logger.Module(logModule), logger.RoomNumber(room), logger.Err(err))
			continue
		}
		if existing.Quarantined {
			continue
		}

		h.metrics.RecordInvariantViolation()
		logger.Error("[Task] 台账巡检发现异常，隔离房间", logger.Module(logModule), logger.RoomNumber(room), logger.Err(cause))
		if err := h.quarantiner.Quarantine(ctx, room, cause.Error()); err != nil {
			logger.Error("[Task] 隔离房间失败", logger.Module(logModule), logger.RoomNumber(room), logger.Err(err))
		}
	}
	return nil
}

// Register 注册全部定时任务，spec 为空时不注册台账巡检
func (h *TaskHandler) Register(s *Scheduler, auditSpec string) error {
	if auditSpec == "" {
		return nil
	}
	return s.AddTask(TaskLedgerAudit, auditSpec, h.AuditLedger)
}
