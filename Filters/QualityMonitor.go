package Filters

// QualityLevel 表示传感器接触质量的分级
type QualityLevel int

const (
	QualityNoContact QualityLevel = iota // 没有有效接触 (幅度低于最小接触下限)
	QualityWeak                          // 有信号但偏弱 (手指压力不足或位置不佳)
	QualityGood                          // 信号良好
)

func (q QualityLevel) String() string {
	switch q {
	case QualityNoContact:
		return "NO CONTACT"
	case QualityWeak:
		return "WEAK"
	case QualityGood:
		return "GOOD"
	default:
		return "UNKNOWN"
	}
}

// QualityMonitor 实现双路包络追踪，用滤波后信号的动态范围评估接触质量。
// maxLevel 追踪信号顶部包络 (Fast Attack, Slow Decay)，
// minLevel 追踪信号底部包络 (Fast Attack Down, Slow Recovery Up)，
// 两者之差就是近期的信号摆幅。
// 输出只用于显示/提示，绝不参与心跳判定。
type QualityMonitor struct {
	// 状态变量
	maxLevel float64
	minLevel float64
	primed   bool

	// 配置参数
	decayRate      float64 // 包络保持系数 (0.0 ~ 1.0)，越接近 1 包络回落越慢
	noContactFloor float64 // 摆幅低于此值视为没有接触
	weakFloor      float64 // 摆幅低于此值视为弱信号
}

// NewQualityMonitor 初始化监视器
// decayRate: 推荐 0.98 (50Hz 下时间常数约 1s)
// noContactFloor / weakFloor: 对归一化 (0.0 ~ 1.0) 信号推荐 0.02 / 0.10
func NewQualityMonitor(decayRate, noContactFloor, weakFloor float64) *QualityMonitor {
	return &QualityMonitor{
		decayRate:      decayRate,
		noContactFloor: noContactFloor,
		weakFloor:      weakFloor,
	}
}

// Update 吃进一个滤波后的样本并返回当前接触质量。
func (qm *QualityMonitor) Update(sample float64) QualityLevel {
	if !qm.primed {
		// 用第一个样本同时初始化两条包络，摆幅从 0 开始增长
		qm.maxLevel = sample
		qm.minLevel = sample
		qm.primed = true
	}

	// 顶部包络：立即抬升，缓慢回落
	if sample > qm.maxLevel {
		qm.maxLevel = sample
	} else {
		qm.maxLevel -= (qm.maxLevel - sample) * (1.0 - qm.decayRate)
	}

	// 底部包络：立即压低，缓慢抬升
	if sample < qm.minLevel {
		qm.minLevel = sample
	} else {
		qm.minLevel += (sample - qm.minLevel) * (1.0 - qm.decayRate)
	}

	// 防止浮点漂移导致的异常交叉
	if qm.minLevel > qm.maxLevel {
		qm.minLevel = qm.maxLevel
	}

	return qm.classify()
}

func (qm *QualityMonitor) classify() QualityLevel {
	r := qm.maxLevel - qm.minLevel
	switch {
	case r < qm.noContactFloor:
		return QualityNoContact
	case r < qm.weakFloor:
		return QualityWeak
	default:
		return QualityGood
	}
}

// Range 返回当前追踪到的信号摆幅 (max - min)
func (qm *QualityMonitor) Range() float64 {
	return qm.maxLevel - qm.minLevel
}

// Strength 返回 0-100 的信号强度指示，用于进度条之类的显示。
// 0 对应 noContactFloor，100 对应 weakFloor 的两倍（再强也不加分）。
func (qm *QualityMonitor) Strength() int {
	full := qm.weakFloor*2.0 - qm.noContactFloor
	if full <= 0 {
		return 0
	}
	s := int((qm.Range() - qm.noContactFloor) / full * 100.0)
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s
}
