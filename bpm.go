package pulse

// BpmEstimate 是当前的平滑 BPM 值。
// Valid 为 false 表示数值落在生理可信范围之外——照实上报，
// 绝不悄悄钳位，由消费方决定显示数值还是 "check sensor"。
type BpmEstimate struct {
	Bpm   float64
	Valid bool
}

// BpmEstimator 把心跳间隔流转换成滚动平均的 BPM。
// 内部是一个固定容量的间隔环形缓冲区 (FIFO 淘汰最旧) + 增量累加和，
// BPM = 60000 / mean(间隔 ms)。
type BpmEstimator struct {
	// 间隔环形缓冲区
	intervals []int64
	head      int
	count     int
	sum       int64

	// 配置参数
	minValid float64
	maxValid float64

	// 状态
	lastBeatMs  int64
	hasLast     bool
	current     BpmEstimate
	hasEstimate bool
}

// NewBpmEstimator 创建估计器
// historySize: 参与平均的间隔条数，推荐 5
func NewBpmEstimator(historySize int, minValid, maxValid float64) *BpmEstimator {
	if historySize < 1 {
		historySize = 1
	}
	return &BpmEstimator{
		intervals: make([]int64, historySize),
		minValid:  minValid,
		maxValid:  maxValid,
	}
}

// OnBeat 处理一次心跳事件。
// 第一次心跳只记录时刻，没有前置间隔，不产生估计 (返回 false)。
func (e *BpmEstimator) OnBeat(ev BeatEvent) (BpmEstimate, bool) {
	if !e.hasLast {
		e.hasLast = true
		e.lastBeatMs = ev.TimestampMs
		return BpmEstimate{}, false
	}

	interval := ev.TimestampMs - e.lastBeatMs
	e.lastBeatMs = ev.TimestampMs
	e.push(interval)

	mean := float64(e.sum) / float64(e.count)
	bpm := 60000.0 / mean

	e.current = BpmEstimate{
		Bpm:   bpm,
		Valid: bpm >= e.minValid && bpm <= e.maxValid,
	}
	e.hasEstimate = true

	return e.current, true
}

func (e *BpmEstimator) push(interval int64) {
	if e.count == len(e.intervals) {
		e.sum -= e.intervals[e.head]
	} else {
		e.count++
	}
	e.intervals[e.head] = interval
	e.head = (e.head + 1) % len(e.intervals)
	e.sum += interval
}

// Estimate 返回当前估计；还没有任何间隔时第二个返回值为 false
func (e *BpmEstimator) Estimate() (BpmEstimate, bool) {
	return e.current, e.hasEstimate
}

// Intervals 返回当前保存的间隔，从最旧到最新。主要给诊断和测试用。
func (e *BpmEstimator) Intervals() []int64 {
	out := make([]int64, 0, e.count)
	start := e.head - e.count
	if start < 0 {
		start += len(e.intervals)
	}
	for i := 0; i < e.count; i++ {
		out = append(out, e.intervals[(start+i)%len(e.intervals)])
	}
	return out
}
