package pulse

import (
	"math"
	"testing"
)

// feedBeats 按给定间隔序列依次触发心跳，返回最后一次估计
func feedBeats(e *BpmEstimator, intervals []int64) (BpmEstimate, bool) {
	var ts int64
	est, ok := e.OnBeat(BeatEvent{TimestampMs: ts})
	for _, iv := range intervals {
		ts += iv
		est, ok = e.OnBeat(BeatEvent{TimestampMs: ts})
	}
	return est, ok
}

func TestBpmEstimator_FirstBeatNoEstimate(t *testing.T) {
	e := NewBpmEstimator(5, 30, 220)

	// 第一次心跳没有前置间隔
	if _, ok := e.OnBeat(BeatEvent{TimestampMs: 1000}); ok {
		t.Error("First beat must not produce an estimate")
	}
	if _, ok := e.Estimate(); ok {
		t.Error("Estimate must stay empty until a second beat arrives")
	}

	// 第二次开始有
	if est, ok := e.OnBeat(BeatEvent{TimestampMs: 2000}); !ok {
		t.Error("Second beat should produce an estimate")
	} else if math.Abs(est.Bpm-60.0) > 1e-9 {
		t.Errorf("1000ms interval should give 60 bpm, got %v", est.Bpm)
	}
}

func TestBpmEstimator_FIFOCapacity(t *testing.T) {
	// 塞 7 个已知间隔进容量 5 的历史，剩下的必须是最新的 5 个
	e := NewBpmEstimator(5, 30, 220)
	feedBeats(e, []int64{500, 600, 700, 800, 900, 1000, 1100})

	got := e.Intervals()
	want := []int64{700, 800, 900, 1000, 1100}
	if len(got) != len(want) {
		t.Fatalf("Expected %d intervals, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Interval %d: expected %d, got %d", i, want[i], got[i])
		}
	}

	// mean = 900ms -> 66.67 bpm
	est, _ := e.Estimate()
	if math.Abs(est.Bpm-60000.0/900.0) > 1e-9 {
		t.Errorf("Expected bpm %v, got %v", 60000.0/900.0, est.Bpm)
	}
	if !est.Valid {
		t.Error("66.7 bpm should be flagged valid")
	}
}

func TestBpmEstimator_ImplausibleValueFlagged(t *testing.T) {
	// 240ms 间隔意味着 250 bpm，超出 [30, 220]：
	// 照实上报数值，但 Valid 必须是 false，绝不钳位
	e := NewBpmEstimator(5, 30, 220)
	est, ok := feedBeats(e, []int64{240, 240, 240})

	if !ok {
		t.Fatal("Expected an estimate")
	}
	if math.Abs(est.Bpm-250.0) > 1e-9 {
		t.Errorf("Expected reported bpm 250 (not clamped), got %v", est.Bpm)
	}
	if est.Valid {
		t.Error("250 bpm must be flagged invalid")
	}

	// 过慢同样无效 (3000ms -> 20 bpm)
	e2 := NewBpmEstimator(5, 30, 220)
	est2, _ := feedBeats(e2, []int64{3000, 3000})
	if est2.Valid {
		t.Errorf("20 bpm must be flagged invalid, got Valid=true (bpm %v)", est2.Bpm)
	}
}
