package pulse

import (
	"math"
	"testing"
)

// generatePulseWave 生成骑在直流偏置上的正弦波，按 tick 频率采样
func generatePulseWave(freqHz, amplitude, dc float64, tickRate float64, n int) []float64 {
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / tickRate
		data[i] = dc + amplitude*math.Sin(2*math.Pi*freqHz*t)
	}
	return data
}

func TestSpectrumAnalyzer_FindsDominantFrequency(t *testing.T) {
	sa := NewSpectrumAnalyzer(50.0, 256)

	// 1.0Hz (60 BPM) 不落在 bin 整数倍上 (分辨率 0.195Hz)，考插值
	input := generatePulseWave(1.0, 0.5, 0.3, 50.0, 256)
	freq, mag := sa.FindDominantFrequency(input, 0.5, 3.7)

	if math.Abs(freq-1.0) > 0.05 {
		t.Errorf("Expected dominant frequency near 1.0Hz, got %v", freq)
	}
	// 汉宁窗归一化后正弦幅度 A 的峰约为 A/2
	if mag < 0.15 {
		t.Errorf("Expected normalized magnitude near 0.25, got %v", mag)
	}
	t.Logf("Detected %.3fHz (%.1f BPM), mag %.3f", freq, freq*60, mag)
}

func TestSpectrumAnalyzer_DCRejection(t *testing.T) {
	sa := NewSpectrumAnalyzer(50.0, 256)

	// 巨大直流偏置 + 小信号：去直流失败的话 0 号 bin 会淹没一切
	input := generatePulseWave(1.5, 0.05, 100.0, 50.0, 256)
	freq, _ := sa.FindDominantFrequency(input, 0.5, 3.7)

	if math.Abs(freq-1.5) > 0.1 {
		t.Errorf("Expected 1.5Hz despite large DC offset, got %v", freq)
	}
}

func TestRateMonitor_LocksOntoRate(t *testing.T) {
	cfg := DefaultConfig()
	m := NewRateMonitor(cfg)

	// 1.2Hz = 72 BPM
	var bpm float64
	var locked bool
	for i := 0; i < 600; i++ {
		tt := float64(i) / cfg.Monitor.TickRateHz
		v := 0.3 + 0.2*math.Sin(2*math.Pi*1.2*tt)
		if b, ok := m.Push(v); ok {
			bpm = b
			locked = true
		}
	}

	if !locked {
		t.Fatal("Monitor should lock within 600 ticks (buffer 256 + throttle)")
	}
	if math.Abs(bpm-72.0) > 5.0 {
		t.Errorf("Expected spectral rate near 72 BPM, got %v", bpm)
	}
}

func TestRateMonitor_SilenceBelowFloor(t *testing.T) {
	m := NewRateMonitor(DefaultConfig())

	// 幅度远低于 MinMagnitude 的噪声：不准报心率
	for i := 0; i < 600; i++ {
		v := 0.3 + 0.001*math.Sin(2*math.Pi*1.2*float64(i)/50.0)
		if _, ok := m.Push(v); ok {
			t.Fatal("Monitor must not lock onto a sub-floor signal")
		}
	}
	if _, ok := m.LastBpm(); ok {
		t.Error("LastBpm should report no lock")
	}
}
