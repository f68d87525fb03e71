package Filters

import "math"

// BiquadSection 表示一个二阶 IIR 滤波器节，用于级联实现高阶低通。
type BiquadSection struct {
	// 系数
	a0, a1, a2, b1, b2 float64
	// 状态 (延迟线)
	z1, z2 float64
}

// Process 处理单个采样点
func (f *BiquadSection) Process(in float64) float64 {
	out := in*f.a0 + f.z1
	f.z1 = in*f.a1 - out*f.b1 + f.z2
	f.z2 = in*f.a2 - out*f.b2
	return out
}

// ButterworthLowpass 是由多个二阶节级联组成的巴特沃斯低通滤波器。
// 在这个项目里它主要干一件事：把音频包络降采样到 tick 频率之前，
// 先把高于奈奎斯特频率的成分滤掉（抗混叠），
// 脉搏有用频段只有 0.5 ~ 4Hz 左右，截止频率可以放得很低。
type ButterworthLowpass struct {
	sections []*BiquadSection
}

// NewButterworthLowpass 创建一个 N 阶巴特沃斯低通滤波器
// order: 阶数 (必须是偶数)
// sampleRate: 输入采样率 (Hz)
// cutoffFreq: 截止频率 (Hz)
func NewButterworthLowpass(order int, sampleRate, cutoffFreq float64) *ButterworthLowpass {
	if order%2 != 0 {
		panic("Butterworth filter order must be even")
	}

	// 限制截止频率，防止 math.Tan 在奈奎斯特频率附近数值爆炸
	if cutoffFreq >= sampleRate*0.499 {
		cutoffFreq = sampleRate * 0.499
	}

	sections := make([]*BiquadSection, order/2)

	// 双线性变换：从模拟原型推数字系数
	// 1. 预畸变截止频率
	w := 2.0 * sampleRate * math.Tan(math.Pi*cutoffFreq/sampleRate)

	// 2. 逐节计算系数，级联顺序 Low Q -> High Q，数值上更稳
	for i := 0; i < order/2; i++ {
		poleIdx := (order/2 - 1) - i

		// 极点角度
		theta := math.Pi * (2.0*float64(poleIdx) + 1.0) / (2.0 * float64(order))

		// 模拟原型极点
		pRe := -w * math.Sin(theta)
		pIm := w * math.Cos(theta)

		// 分母 z^0 系数: K^2 - 2*K*p_re + |p|^2 (p_re 为负，所以整体为正)
		alpha := 4.0*sampleRate*sampleRate - 4.0*sampleRate*pRe + pRe*pRe + pIm*pIm

		b1 := (-8.0*sampleRate*sampleRate + 2.0*(pRe*pRe+pIm*pIm)) / alpha
		b2 := (4.0*sampleRate*sampleRate + 4.0*sampleRate*pRe + pRe*pRe + pIm*pIm) / alpha

		a0 := (w * w) / alpha
		a1 := (2.0 * w * w) / alpha
		a2 := (w * w) / alpha

		sections[i] = &BiquadSection{
			a0: a0, a1: a1, a2: a2,
			b1: b1, b2: b2,
		}
	}

	return &ButterworthLowpass{sections: sections}
}

// Process 处理单个采样点，依次通过所有级联节
func (f *ButterworthLowpass) Process(in float64) float64 {
	out := in
	for _, s := range f.sections {
		out = s.Process(out)
	}
	return out
}
