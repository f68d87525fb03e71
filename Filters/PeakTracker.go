package Filters

// PeakTracker 维护信号峰值的指数衰减估计，用于生成动态的心跳检测阈值。
// Fast Attack / Slow Decay：
//   - 样本超过当前峰值估计时，立即抬升（捕捉真实的波峰幅度）
//   - 否则峰值按固定比例向样本方向衰减（适应基线漂移：
//     传感器移位、环境光变化等，几百毫秒内即可跟上）
// 阈值 = 峰值估计 × factor。
type PeakTracker struct {
	peak      float64 // 当前峰值估计
	decayRate float64 // 每 tick 向样本衰减的比例 (0.0 ~ 1.0)
	factor    float64 // 阈值系数，标称 0.6
	primed    bool    // 是否已经吃到第一个样本
}

// NewPeakTracker 初始化追踪器
// decayRate: 推荐 0.02 (50Hz 下时间常数约 1s)
// factor: 推荐 0.6，可用范围 0.4 ~ 0.8
func NewPeakTracker(decayRate, factor float64) *PeakTracker {
	return &PeakTracker{
		decayRate: decayRate,
		factor:    factor,
	}
}

// Update 更新峰值估计并返回当前阈值。
// 首个样本直接作为峰值种子，避免从 0 冷启动时阈值长时间贴地。
func (p *PeakTracker) Update(sample float64) float64 {
	if !p.primed {
		p.peak = sample
		p.primed = true
	} else if sample > p.peak {
		p.peak = sample
	} else {
		// 向当前样本方向衰减，而不是向 0 衰减，
		// 这样峰值永远不会掉到信号底下去
		p.peak -= (p.peak - sample) * p.decayRate
	}

	return p.peak * p.factor
}

// Peak 返回当前峰值估计
func (p *PeakTracker) Peak() float64 {
	return p.peak
}

// Threshold 返回当前阈值（不更新状态）
func (p *PeakTracker) Threshold() float64 {
	return p.peak * p.factor
}
