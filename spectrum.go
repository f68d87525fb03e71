package pulse

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// SpectrumAnalyzer 对一段 tick 频率的样本做加窗 FFT，提取主频。
// 脉搏信号的有用频段只有 0.5 ~ 3.7Hz (30 ~ 220 BPM)，
// 搜索范围限制在这个窗口内，屏蔽呼吸和高频噪声。
type SpectrumAnalyzer struct {
	SampleRate float64
	FFTSize    int
	Window     []float64
}

// NewSpectrumAnalyzer 创建分析器
// sampleRate: 管线 tick 频率 (Hz)，例如 50
// fftSize: FFT 点数，例如 256 (50Hz 下约 5s 窗口，分辨率约 0.2Hz / 12 BPM，
// 靠抛物线插值补足)
func NewSpectrumAnalyzer(sampleRate float64, fftSize int) *SpectrumAnalyzer {
	// 汉宁窗: 0.5 * (1 - cos(2*PI*n / (N-1)))
	window := make([]float64, fftSize)
	for i := 0; i < fftSize; i++ {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	return &SpectrumAnalyzer{
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		Window:     window,
	}
}

// FindDominantFrequency 在 [minFreq, maxFreq] 内寻找幅度最大的频率分量。
// 返回插值后的主频 (Hz) 和归一化幅度 (正弦幅度 A 的分量约返回 A/2)。
// 输入会先去掉直流分量——脉搏信号骑在很大的直流偏置上，
// 不去直流的话 0 号 bin 会淹没一切。
func (sa *SpectrumAnalyzer) FindDominantFrequency(samples []float64, minFreq, maxFreq float64) (float64, float64) {
	if len(samples) < sa.FFTSize {
		return 0, 0
	}

	// 1. 去直流
	mean := 0.0
	for i := 0; i < sa.FFTSize; i++ {
		mean += samples[i]
	}
	mean /= float64(sa.FFTSize)

	// 2. 应用窗函数
	input := make([]complex128, sa.FFTSize)
	for i := 0; i < sa.FFTSize; i++ {
		input[i] = complex((samples[i]-mean)*sa.Window[i], 0)
	}

	// 3. 执行 FFT
	spectrum := fft.FFT(input)

	// 4. 在限定频段内找峰
	binWidth := sa.SampleRate / float64(sa.FFTSize)

	startIndex := int(minFreq / binWidth)
	endIndex := int(maxFreq/binWidth) + 1
	if startIndex < 1 {
		startIndex = 1 // 跳过直流 bin
	}
	if endIndex > len(spectrum)/2 {
		endIndex = len(spectrum) / 2
	}

	mags := make([]float64, len(spectrum)/2+1)
	maxMag := 0.0
	maxIndex := 0
	for i := startIndex; i < endIndex; i++ {
		mag := cmplx.Abs(spectrum[i])
		mags[i] = mag
		if mag > maxMag {
			maxMag = mag
			maxIndex = i
		}
	}

	if maxIndex == 0 {
		return 0, 0
	}

	// 5. 抛物线插值，用峰值左右相邻点估算真实峰位
	// p = 0.5 * (alpha - gamma) / (alpha - 2*beta + gamma)
	freq := float64(maxIndex) * binWidth
	if maxIndex > 0 && maxIndex < len(mags)-1 {
		alpha := mags[maxIndex-1]
		beta := mags[maxIndex]
		gamma := mags[maxIndex+1]
		denom := alpha - 2*beta + gamma
		if denom != 0 {
			p := 0.5 * (alpha - gamma) / denom
			freq = (float64(maxIndex) + p) * binWidth
		}
	}

	// 汉宁窗相干增益 0.5：归一化后正弦幅度 A 的峰约等于 A/2
	normalizedMag := maxMag * 2.0 / float64(sa.FFTSize)

	return freq, normalizedMag
}

// RateMonitor 用频谱法独立估计心率，作为间隔法 BPM 的交叉校验。
// 维护一个 tick 频率的滤波样本环形缓冲区，周期性做一次 FFT，
// 主频 * 60 就是频谱心率。间隔法被噪声双触发或漏搏时，
// 两个估计会明显分叉，上层可以据此提示用户调整传感器。
type RateMonitor struct {
	analyzer *SpectrumAnalyzer

	// 环形缓冲区
	ring []float64
	pos  int
	full bool

	// 分析节流
	interval int
	counter  int

	// 配置
	minFreq      float64
	maxFreq      float64
	minMagnitude float64

	// 结果
	lastBpm float64
	hasLock bool
}

// NewRateMonitor 创建监视器，参数全部来自 cfg.Monitor
func NewRateMonitor(cfg *Config) *RateMonitor {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &RateMonitor{
		analyzer:     NewSpectrumAnalyzer(cfg.Monitor.TickRateHz, cfg.Monitor.FFTSize),
		ring:         make([]float64, cfg.Monitor.FFTSize),
		interval:     cfg.Monitor.UpdateIntervalTicks,
		minFreq:      cfg.Monitor.MinBpm / 60.0,
		maxFreq:      cfg.Monitor.MaxBpm / 60.0,
		minMagnitude: cfg.Monitor.MinMagnitude,
	}
}

// Push 写入一个滤波后的样本。到达分析周期且缓冲区已满时
// 返回 (频谱 BPM, true)，其余 tick 返回 (0, false)。
func (m *RateMonitor) Push(filtered float64) (float64, bool) {
	m.ring[m.pos] = filtered
	m.pos = (m.pos + 1) % len(m.ring)
	if m.pos == 0 {
		m.full = true
	}

	m.counter++
	if !m.full || m.counter < m.interval {
		return 0, false
	}
	m.counter = 0

	// 按时间顺序展开环形缓冲区
	data := make([]float64, len(m.ring))
	n := copy(data, m.ring[m.pos:])
	copy(data[n:], m.ring[:m.pos])

	freq, mag := m.analyzer.FindDominantFrequency(data, m.minFreq, m.maxFreq)
	if mag < m.minMagnitude {
		// 频段内没有足够强的周期分量 (无接触或全是噪声)
		return 0, false
	}

	m.lastBpm = freq * 60.0
	m.hasLock = true
	return m.lastBpm, true
}

// LastBpm 返回最近一次成功分析出的频谱心率
func (m *RateMonitor) LastBpm() (float64, bool) {
	return m.lastBpm, m.hasLock
}
