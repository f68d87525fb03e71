package pulse

// CalibrationStatus 表示校准进度。
// Complete 为 false 时 RemainingMs 是剩余预热时间。
type CalibrationStatus struct {
	Complete    bool
	RemainingMs int64
}

// Calibrator 管理启动时的预热窗口。
// 预热期间滤波器、质量监视和动态阈值照常吃进实时数据
// （这样阈值在校准结束时已经收敛到真实基线），
// 但心跳检测器被闸住：不喂样本、不发事件、状态机保持全新。
// 计时完全基于样本时间戳，从第一次 Tick 的时刻起算。
type Calibrator struct {
	durationMs int64

	startMs int64
	started bool
	done    bool
}

// NewCalibrator 创建校准控制器
// durationMs: 预热时长，推荐 3000
func NewCalibrator(durationMs int64) *Calibrator {
	return &Calibrator{durationMs: durationMs}
}

// Tick 推进校准状态。完成的转换只发生一次，之后永远返回 Complete。
// 边界规则：elapsed >= duration 即完成。
func (c *Calibrator) Tick(tsMillis int64) CalibrationStatus {
	if c.done {
		return CalibrationStatus{Complete: true}
	}

	if !c.started {
		c.started = true
		c.startMs = tsMillis
	}

	elapsed := tsMillis - c.startMs
	if elapsed >= c.durationMs {
		c.done = true
		return CalibrationStatus{Complete: true}
	}

	return CalibrationStatus{RemainingMs: c.durationMs - elapsed}
}

// Done 返回校准是否已经完成
func (c *Calibrator) Done() bool {
	return c.done
}
