package pulse

import "testing"

func TestCalibrator_Countdown(t *testing.T) {
	c := NewCalibrator(3000)

	// 计时从第一次 Tick 的时间戳起算
	st := c.Tick(1000)
	if st.Complete || st.RemainingMs != 3000 {
		t.Errorf("Expected InProgress remaining=3000 at start, got %+v", st)
	}

	st = c.Tick(2500)
	if st.Complete || st.RemainingMs != 1500 {
		t.Errorf("Expected remaining=1500, got %+v", st)
	}

	st = c.Tick(3999)
	if st.Complete || st.RemainingMs != 1 {
		t.Errorf("Expected remaining=1, got %+v", st)
	}

	// 边界：elapsed == duration 即完成
	st = c.Tick(4000)
	if !st.Complete {
		t.Error("Expected Complete at exactly the configured duration")
	}

	// 之后永远 Complete
	st = c.Tick(4020)
	if !st.Complete {
		t.Error("Calibrator must stay Complete forever")
	}
	if !c.Done() {
		t.Error("Done() should report true after completion")
	}
}

func TestPipeline_CalibrationGatesBeats(t *testing.T) {
	// 校准窗口内不管输入幅度多大都不准出心跳；
	// 完成转换只发生一次，完成后立刻能用收敛好的阈值检测
	p := NewPipeline(nil)

	transitions := 0
	prevComplete := false

	var firstBeatTs int64 = -1
	for ts := int64(20); ts <= 8000; ts += 20 {
		// 2Hz 大幅方波，校准完成后是很容易检出的节拍
		var v float64
		if (ts/250)%2 == 0 {
			v = 1.0
		}
		res, err := p.ProcessTick(v, ts)
		if err != nil {
			t.Fatalf("Unexpected error at ts=%d: %v", ts, err)
		}

		if res.Calibration.Complete && !prevComplete {
			transitions++
		}
		prevComplete = res.Calibration.Complete

		if res.Beat != nil {
			if firstBeatTs < 0 {
				firstBeatTs = res.Beat.TimestampMs
			}
			// 校准从第一个 tick (ts=20) 起算 3000ms，3020 之前闸死
			if res.Beat.TimestampMs < 20+3000 {
				t.Errorf("Beat emitted during calibration window at ts=%d", res.Beat.TimestampMs)
			}
		}
	}

	if transitions != 1 {
		t.Errorf("Calibration must transition to Complete exactly once, got %d transitions", transitions)
	}
	if firstBeatTs < 0 {
		t.Error("Expected beats after calibration completed")
	}
}
