package pulse

import (
	"errors"
	"fmt"
	"math"

	"pulse/Filters"
)

// ErrInvalidInput 表示这个 tick 被整体拒绝：非有限的样本值，
// 或者时间戳相对上一个被接受的 tick 没有严格递增。
// 被拒绝的 tick 不会改动管线的任何内部状态。
var ErrInvalidInput = errors.New("invalid input sample")

// TickResult 打包一个 tick 的全部输出，供显示/音频/调度层消费
type TickResult struct {
	Filtered    float64              // 滤波后的样本值
	Threshold   float64              // 当前动态阈值
	Quality     Filters.QualityLevel // 接触质量
	Calibration CalibrationStatus    // 校准进度
	Beat        *BeatEvent           // 本 tick 确认的心跳，没有则为 nil
	Bpm         *BpmEstimate         // 当前 BPM 估计，尚无间隔数据时为 nil
}

/*
Pipeline 是检测管线的唯一入口，把六个组件按依赖顺序串起来：

	raw -> MovingAverage -> QualityMonitor (更新)
	                     -> PeakTracker (更新)
	                     -> BeatDetector (判定)
	                     -> 心跳事件 -> BpmEstimator

单线程协作式执行：一个 tick 完整跑完才接受下一个，
所有状态都由各自的组件独占，不需要任何锁。
如果宿主是多线程环境，把整个 ProcessTick 调用当成一个临界区即可。
*/
type Pipeline struct {
	cfg *Config

	filter    *Filters.MovingAverage
	quality   *Filters.QualityMonitor
	threshold *Filters.PeakTracker
	detector  *BeatDetector
	bpm       *BpmEstimator
	calib     *Calibrator

	// 输入守卫状态
	lastTickMs int64
	hasTick    bool
	rejected   int64
}

// NewPipeline 创建管线实例
func NewPipeline(cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Pipeline{
		cfg:       cfg,
		filter:    Filters.NewMovingAverage(cfg.Filter.WindowSize),
		quality:   Filters.NewQualityMonitor(cfg.Quality.DecayRate, cfg.Quality.NoContactFloor, cfg.Quality.WeakFloor),
		threshold: Filters.NewPeakTracker(cfg.Threshold.DecayRate, cfg.Threshold.Factor),
		detector:  NewBeatDetector(cfg.Detector.HysteresisMargin, cfg.Detector.MinBeatIntervalMs),
		bpm:       NewBpmEstimator(cfg.Bpm.HistorySize, cfg.Bpm.MinValid, cfg.Bpm.MaxValid),
		calib:     NewCalibrator(cfg.Calibration.DurationMs),
	}
}

// ProcessTick 处理一个原始采样。
// raw: 原始幅度值；tsMillis: 单调毫秒时间戳。
// 输入校验在任何状态改动之前完成，坏 tick 原样拒绝，
// 不会让 NaN 或倒流的时间戳污染阈值和间隔历史。
func (p *Pipeline) ProcessTick(raw float64, tsMillis int64) (*TickResult, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		p.rejected++
		return nil, fmt.Errorf("%w: non-finite value %v", ErrInvalidInput, raw)
	}
	if p.hasTick && tsMillis <= p.lastTickMs {
		p.rejected++
		return nil, fmt.Errorf("%w: timestamp %d not after %d", ErrInvalidInput, tsMillis, p.lastTickMs)
	}
	p.hasTick = true
	p.lastTickMs = tsMillis

	// 1. 滤波
	filtered := p.filter.Push(raw)

	// 2. 质量监视 (仅用于标注，绝不拦截检测)
	quality := p.quality.Update(filtered)

	// 3. 动态阈值
	threshold := p.threshold.Update(filtered)

	res := &TickResult{
		Filtered:  filtered,
		Threshold: threshold,
		Quality:   quality,
	}

	// 4. 校准闸门：预热期间所有估计器照常吃数据，
	//    但检测器不被喂，状态机保持全新
	res.Calibration = p.calib.Tick(tsMillis)
	if res.Calibration.Complete {
		// 5. 心跳判定
		if ev := p.detector.Update(filtered, threshold, tsMillis); ev != nil {
			res.Beat = ev
			// 6. BPM 估计 (第一次心跳没有前置间隔，不产生更新)
			p.bpm.OnBeat(*ev)
		}
	}

	if est, ok := p.bpm.Estimate(); ok {
		res.Bpm = &est
	}

	return res, nil
}

// Rejected 返回被输入守卫拒绝的 tick 总数，供上层判断是否该报硬件故障
func (p *Pipeline) Rejected() int64 {
	return p.rejected
}

// Quality 返回质量监视器，供显示层读取 Strength 之类的附加指标
func (p *Pipeline) Quality() *Filters.QualityMonitor {
	return p.quality
}

// Detector 返回心跳检测器，供诊断读取压制计数
func (p *Pipeline) Detector() *BeatDetector {
	return p.detector
}
