package Filters

import (
	"math"
	"testing"
)

func TestPeakTracker_FastAttack(t *testing.T) {
	p := NewPeakTracker(0.02, 0.6)

	// 第一个样本直接做峰值种子
	if got := p.Update(1.0); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Expected threshold 0.6 after seed, got %v", got)
	}

	// 更大的样本立即抬升峰值
	if got := p.Update(2.0); math.Abs(got-1.2) > 1e-9 {
		t.Errorf("Expected threshold 1.2 after attack, got %v", got)
	}
	if math.Abs(p.Peak()-2.0) > 1e-9 {
		t.Errorf("Expected peak 2.0, got %v", p.Peak())
	}
}

func TestPeakTracker_SlowDecayTowardSample(t *testing.T) {
	p := NewPeakTracker(0.02, 0.6)
	p.Update(1.0)

	// 低于峰值的样本让峰值每 tick 衰减 2% 的差距
	got := p.Update(0.5)
	wantPeak := 1.0 - (1.0-0.5)*0.02 // 0.99
	if math.Abs(p.Peak()-wantPeak) > 1e-9 {
		t.Errorf("Expected peak %v after one decay tick, got %v", wantPeak, p.Peak())
	}
	if math.Abs(got-wantPeak*0.6) > 1e-9 {
		t.Errorf("Expected threshold %v, got %v", wantPeak*0.6, got)
	}
}

func TestPeakTracker_TracksBaselineDrift(t *testing.T) {
	// 峰值向样本衰减而不是向 0 衰减：
	// 长时间喂恒定信号后，峰值必须收敛到该信号而不是掉穿它
	p := NewPeakTracker(0.02, 0.6)
	p.Update(1.0)

	for i := 0; i < 500; i++ {
		p.Update(0.3)
	}

	if math.Abs(p.Peak()-0.3) > 1e-3 {
		t.Errorf("Peak should converge to the sample level 0.3, got %v", p.Peak())
	}
	if p.Peak() < 0.3 {
		t.Errorf("Peak must never drop below the signal, got %v", p.Peak())
	}
}
