package Filters

// MovingAverage 固定窗口的滑动平均滤波器，用于平滑脉搏传感器的原始采样。
// 内部是一个环形缓冲区 + 增量维护的累加和：
// 每次只做 "加新值、减被挤出的旧值"，保证 O(1)，不随窗口大小变慢。
type MovingAverage struct {
	buffer []float64 // 环形缓冲区
	head   int       // 下一个写入位置
	count  int       // 当前有效样本数 (未满窗口时 < len(buffer))
	sum    float64   // 增量维护的累加和
}

// NewMovingAverage 创建滤波器
// size: 窗口宽度 (采样点数)，推荐 10 (50Hz 下约 200ms)
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{
		buffer: make([]float64, size),
	}
}

// Push 写入一个新样本并返回当前窗口的算术平均。
// 窗口未满时只对已有样本取平均（避免 0 填充造成的启动下陷），
// 满了之后按 FIFO 挤掉最旧的样本。
func (m *MovingAverage) Push(v float64) float64 {
	if m.count == len(m.buffer) {
		// 窗口已满：先把即将被覆盖的旧值从累加和中减掉
		m.sum -= m.buffer[m.head]
	} else {
		m.count++
	}

	m.buffer[m.head] = v
	m.head = (m.head + 1) % len(m.buffer)
	m.sum += v

	return m.sum / float64(m.count)
}

// Mean 返回当前窗口的平均值（不写入新样本）
func (m *MovingAverage) Mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Full 返回窗口是否已填满
func (m *MovingAverage) Full() bool {
	return m.count == len(m.buffer)
}

// Size 返回窗口宽度
func (m *MovingAverage) Size() int {
	return len(m.buffer)
}
