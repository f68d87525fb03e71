package pulse

import "testing"

func TestBeatDetector_HysteresisReArm(t *testing.T) {
	// 阈值 100、迟滞 0.9：触发后跌到 95 不算重新武装，
	// 必须跌破 90 再冲上 100 才能出第二次心跳
	d := NewBeatDetector(0.9, 300)

	if ev := d.Update(150, 100, 1000); ev == nil {
		t.Fatal("Rising edge through threshold should fire a beat")
	}

	if ev := d.Update(95, 100, 1400); ev != nil {
		t.Error("95 is above threshold*0.9, detector must stay armed-off")
	}
	if d.CurrentPhase() != PhaseAbove {
		t.Errorf("Expected phase ABOVE at 95, got %v", d.CurrentPhase())
	}

	if ev := d.Update(150, 100, 1500); ev != nil {
		t.Error("Re-crossing without re-arming must not fire")
	}

	// 跌破 90 才重新武装
	d.Update(89, 100, 1600)
	if d.CurrentPhase() != PhaseBelow {
		t.Errorf("Expected phase BELOW after dropping under 90, got %v", d.CurrentPhase())
	}

	if ev := d.Update(101, 100, 1700); ev == nil {
		t.Error("Re-armed rising edge outside refractory should fire")
	}
}

func TestBeatDetector_EdgeTriggered(t *testing.T) {
	// 信号停在阈值上方只出一次事件，不管停多久
	d := NewBeatDetector(0.9, 300)

	if ev := d.Update(150, 100, 0); ev == nil {
		t.Fatal("First crossing should fire")
	}
	for ts := int64(20); ts <= 2000; ts += 20 {
		if ev := d.Update(150, 100, ts); ev != nil {
			t.Fatalf("Level-hold fired a second beat at ts=%d", ts)
		}
	}
}

func TestBeatDetector_RefractoryEnforced(t *testing.T) {
	// 每 100ms 一个干净的越阈脉冲，但心跳间隔必须 >= 300ms
	d := NewBeatDetector(0.9, 300)

	var beats []int64
	for ts := int64(0); ts < 3000; ts += 50 {
		var v float64
		if ts%100 == 0 {
			v = 150 // 脉冲
		} else {
			v = 0 // 间隙，足够重新武装
		}
		if ev := d.Update(v, 100, ts); ev != nil {
			beats = append(beats, ev.TimestampMs)
		}
	}

	if len(beats) < 5 {
		t.Fatalf("Expected a steady beat train, got %d beats", len(beats))
	}
	for i := 1; i < len(beats); i++ {
		if diff := beats[i] - beats[i-1]; diff < 300 {
			t.Errorf("Beats %d and %d only %dms apart, refractory violated", i-1, i, diff)
		}
	}
	if d.Suppressed() == 0 {
		t.Error("Suppressed candidate counter should be non-zero for a 100ms pulse train")
	}
}

func TestBeatDetector_RefractoryBoundaryPasses(t *testing.T) {
	// 边界规则：elapsed == minInterval 放行 (greater-or-equal)
	d := NewBeatDetector(0.9, 300)

	if ev := d.Update(150, 100, 0); ev == nil {
		t.Fatal("First crossing should fire")
	}
	d.Update(0, 100, 100) // 重新武装

	// 不应期内的候选沿被压制
	if ev := d.Update(150, 100, 200); ev != nil {
		t.Error("Candidate at 200ms must be suppressed")
	}
	// 信号还压在阈值上，不应期一到立即触发
	if ev := d.Update(150, 100, 300); ev == nil {
		t.Error("Candidate at exactly minInterval must fire")
	}
}
