package Filters

import (
	"math"
	"testing"
)

func TestMovingAverage_SteadyState(t *testing.T) {
	// 恒定输入下，窗口填满后输出必须严格等于输入值
	m := NewMovingAverage(10)

	for i := 0; i < 10; i++ {
		got := m.Push(42.0)
		if math.Abs(got-42.0) > 1e-9 {
			t.Fatalf("Constant input must yield constant mean, got %v at sample %d", got, i)
		}
	}
	if !m.Full() {
		t.Error("Window should be full after 10 samples")
	}
}

func TestMovingAverage_PartialFill(t *testing.T) {
	// 窗口未满时对已有样本取平均，不做 0 填充
	m := NewMovingAverage(3)

	cases := []struct {
		in   float64
		want float64
	}{
		{1.0, 1.0},
		{2.0, 1.5},
		{3.0, 2.0},
	}
	for i, c := range cases {
		got := m.Push(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Sample %d: expected mean %v, got %v", i, c.want, got)
		}
	}
}

func TestMovingAverage_FIFOEviction(t *testing.T) {
	// 窗口满了之后挤掉最旧的样本 (FIFO)
	m := NewMovingAverage(3)
	m.Push(1.0)
	m.Push(2.0)
	m.Push(3.0)

	// 1 被挤出，窗口变成 [2 3 4]
	if got := m.Push(4.0); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("Expected mean 3.0 after evicting oldest, got %v", got)
	}
	// 2 被挤出，窗口变成 [3 4 5]
	if got := m.Push(5.0); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("Expected mean 4.0 after evicting oldest, got %v", got)
	}
}

func TestMovingAverage_MeanDoesNotMutate(t *testing.T) {
	m := NewMovingAverage(4)
	m.Push(10.0)
	m.Push(20.0)

	if got := m.Mean(); math.Abs(got-15.0) > 1e-9 {
		t.Errorf("Mean() expected 15, got %v", got)
	}
	// 再读一次必须一样，Mean 不写状态
	if got := m.Mean(); math.Abs(got-15.0) > 1e-9 {
		t.Errorf("Mean() second read expected 15, got %v", got)
	}
}
