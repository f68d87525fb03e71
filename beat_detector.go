package pulse

// Phase 表示检测器当前所处的信号相位
type Phase int

const (
	PhaseBelow Phase = iota // 信号在阈值下方，已武装，等待上升沿
	PhaseAbove              // 信号在阈值上方，未重新武装前不再触发
)

func (p Phase) String() string {
	if p == PhaseAbove {
		return "ABOVE"
	}
	return "BELOW"
}

// BeatEvent 表示一次确认的心跳，只携带发生时刻
type BeatEvent struct {
	TimestampMs int64
}

/*
BeatDetector 是一个两状态的施密特触发器，把滤波后的样本流 + 动态阈值
变成离散的心跳事件。

两条独立的防抖机制：
  - 迟滞 (Hysteresis)：触发后必须跌破 阈值*margin (margin < 1.0) 才重新武装，
    阈值附近的抖动不会造成连续触发
  - 不应期 (Refractory)：距上一次确认心跳不足 MinBeatIntervalMs 的上升沿
    一律压制，只计数不发事件

边沿触发：信号一直停在阈值上方不会重复发事件。
*/
type BeatDetector struct {
	// 配置参数
	hysteresisMargin float64
	minIntervalMs    int64

	// 状态
	phase      Phase
	lastBeatMs int64
	hasBeat    bool

	// 诊断：不应期内被压制的候选沿计数 (每次越阈狂奔只记一次)
	suppressed      int64
	inSuppressedRun bool
}

// NewBeatDetector 创建检测器，初始相位 PhaseBelow，没有终止状态
func NewBeatDetector(hysteresisMargin float64, minIntervalMs int64) *BeatDetector {
	return &BeatDetector{
		hysteresisMargin: hysteresisMargin,
		minIntervalMs:    minIntervalMs,
		phase:            PhaseBelow,
	}
}

// Update 吃进一个滤波后的样本和当前阈值，发生确认心跳时返回事件，否则返回 nil。
// 边界规则：elapsed >= minInterval 放行（等号通过）。
func (d *BeatDetector) Update(filtered, threshold float64, tsMillis int64) *BeatEvent {
	switch d.phase {
	case PhaseBelow:
		if filtered >= threshold {
			if !d.hasBeat || tsMillis-d.lastBeatMs >= d.minIntervalMs {
				d.phase = PhaseAbove
				d.hasBeat = true
				d.lastBeatMs = tsMillis
				d.inSuppressedRun = false
				return &BeatEvent{TimestampMs: tsMillis}
			}
			// 不应期内的候选沿：压制，不推进状态机。
			// 如果不应期结束时信号还压在阈值上，下一个 tick 会正常触发
			if !d.inSuppressedRun {
				d.suppressed++
				d.inSuppressedRun = true
			}
		} else {
			d.inSuppressedRun = false
		}

	case PhaseAbove:
		// 重新武装必须跌破 阈值*margin，而不是阈值本身
		if filtered < threshold*d.hysteresisMargin {
			d.phase = PhaseBelow
		}
	}

	return nil
}

// CurrentPhase 返回当前相位
func (d *BeatDetector) CurrentPhase() Phase {
	return d.phase
}

// LastBeatMs 返回上一次确认心跳的时间戳；还没有心跳时第二个返回值为 false
func (d *BeatDetector) LastBeatMs() (int64, bool) {
	return d.lastBeatMs, d.hasBeat
}

// Suppressed 返回不应期内被压制的候选沿总数，仅用于诊断
func (d *BeatDetector) Suppressed() int64 {
	return d.suppressed
}
