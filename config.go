package pulse

import "github.com/BurntSushi/toml"

// Config 结构体集中管理检测管线和外围组件的所有可调参数。
// 时间量一律用毫秒整数表示：管线内部没有任何挂钟等待，
// 所有计时都从每个样本携带的单调时间戳推导。
type Config struct {
	// --- 滑动平均滤波 (Filters.MovingAverage) ---
	Filter struct {
		WindowSize int // 窗口宽度 (采样点数)，默认 10。50Hz 下约 200ms
	}

	// --- 接触质量监视 (Filters.QualityMonitor) ---
	Quality struct {
		DecayRate      float64 // 包络保持系数，默认 0.98 (50Hz 下时间常数约 1s)
		NoContactFloor float64 // 摆幅低于此值视为无接触，默认 0.02 (归一化信号)
		WeakFloor      float64 // 摆幅低于此值视为弱信号，默认 0.10
	}

	// --- 动态阈值 (Filters.PeakTracker) ---
	Threshold struct {
		DecayRate float64 // 峰值每 tick 向样本衰减的比例，默认 0.02
		Factor    float64 // 阈值 = 峰值 * 此系数。默认 0.6，可用范围 0.4 ~ 0.8
	}

	// --- 心跳判定 (BeatDetector) ---
	Detector struct {
		HysteresisMargin  float64 // 迟滞系数 (严格小于 1.0)。低于 阈值*此系数 才重新武装，默认 0.9
		MinBeatIntervalMs int64   // 最小心跳间隔 (毫秒)，即不应期，默认 300 (对应 200 BPM)
	}

	// --- BPM 估计 (BpmEstimator) ---
	Bpm struct {
		HistorySize int     // 参与平均的心跳间隔条数，默认 5
		MinValid    float64 // 生理可信下限 (BPM)，默认 30
		MaxValid    float64 // 生理可信上限 (BPM)，默认 220
	}

	// --- 校准 (Calibrator) ---
	Calibration struct {
		DurationMs int64 // 预热时长 (毫秒)，默认 3000。期间阈值收敛但不输出心跳
	}

	// --- 频谱交叉校验 (RateMonitor) ---
	Monitor struct {
		Enabled             bool    // 是否启用 FFT 心率交叉校验
		TickRateHz          float64 // 管线的 tick 频率，默认 50
		FFTSize             int     // FFT 点数，默认 256 (50Hz 下约 5s 窗口)
		MinBpm              float64 // 频谱搜索下限 (BPM)，默认 30
		MaxBpm              float64 // 频谱搜索上限 (BPM)，默认 220
		MinMagnitude        float64 // 归一化幅度低于此值视为没有周期信号，默认 0.02
		UpdateIntervalTicks int     // 每多少个 tick 做一次分析，默认 50 (每秒一次)
	}

	// --- NATS 发布 (Publisher) ---
	Stream struct {
		BeatSubject string // 心跳事件主题，默认 pulse.beat
		BpmSubject  string // BPM 估计主题，默认 pulse.bpm
	}

	// --- 麦克风信号源 (AudioSource) ---
	Audio struct {
		SampleRate int     // 采集采样率，默认 48000
		DeviceName string  // 设备名模糊匹配，空串用系统默认
		CutoffHz   float64 // 包络抗混叠低通截止频率 (Hz)，默认 10
	}
}

// DefaultConfig 返回一套当前最佳实践的默认参数
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Filter.WindowSize = 10

	cfg.Quality.DecayRate = 0.98
	cfg.Quality.NoContactFloor = 0.02
	cfg.Quality.WeakFloor = 0.10

	cfg.Threshold.DecayRate = 0.02
	cfg.Threshold.Factor = 0.6

	cfg.Detector.HysteresisMargin = 0.9
	cfg.Detector.MinBeatIntervalMs = 300

	cfg.Bpm.HistorySize = 5
	cfg.Bpm.MinValid = 30.0
	cfg.Bpm.MaxValid = 220.0

	cfg.Calibration.DurationMs = 3000

	cfg.Monitor.Enabled = true
	cfg.Monitor.TickRateHz = 50.0
	cfg.Monitor.FFTSize = 256
	cfg.Monitor.MinBpm = 30.0
	cfg.Monitor.MaxBpm = 220.0
	cfg.Monitor.MinMagnitude = 0.02
	cfg.Monitor.UpdateIntervalTicks = 50

	cfg.Stream.BeatSubject = "pulse.beat"
	cfg.Stream.BpmSubject = "pulse.bpm"

	cfg.Audio.SampleRate = 48000
	cfg.Audio.DeviceName = ""
	cfg.Audio.CutoffHz = 10.0

	return cfg
}

// LoadConfig 在默认参数的基础上叠加一个 TOML 文件。
// 文件里只需要写想覆盖的字段，没写到的保持默认值。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
