package pulse

import "math"

// PulseSim 生成一条 PPG 风格的合成脉搏波 (非临床)，按 tick 频率出样本。
// 构成：直流偏置 + 呼吸基线漂移 + 收缩期主峰 (高斯) + 重搏波小峰 + 确定性噪声。
// 没有传感器硬件时用它驱动整条管线，测试也用它造已知心率的输入。
type PulseSim struct {
	tickRate float64
	bpm      float64
	noise    float64

	phase     float64 // 心动周期内的归一化相位 [0..1)
	respPhase float64 // 呼吸相位，独立于心跳
}

// NewPulseSim 创建模拟器
// tickRate: 出样频率 (Hz)，与管线 tick 一致，例如 50
// bpm: 模拟心率，典型 60 ~ 120
// noise: 噪声幅度，0.0 ~ 0.05
func NewPulseSim(tickRate, bpm, noise float64) *PulseSim {
	return &PulseSim{
		tickRate: tickRate,
		bpm:      bpm,
		noise:    noise,
	}
}

// Next 返回下一个样本 (归一化幅度) 并推进时间
func (s *PulseSim) Next() float64 {
	cycleHz := s.bpm / 60.0
	s.phase += cycleHz / s.tickRate
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}

	// 呼吸约 0.25Hz，造成缓慢的基线起伏
	s.respPhase += 0.25 / s.tickRate
	if s.respPhase >= 1.0 {
		s.respPhase -= 1.0
	}

	t := s.phase

	baseline := 0.03 * math.Sin(2*math.Pi*s.respPhase)

	// 收缩期主峰和重搏波，都用高斯近似
	systolic := 0.80 * gauss(t, 0.15, 0.035)
	dicrotic := 0.12 * gauss(t, 0.42, 0.060)

	// 确定性噪声，便宜且可复现
	n := s.noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)

	// 0.1 的直流偏置模拟环境光
	return 0.1 + baseline + systolic + dicrotic + n
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
