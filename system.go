package pulse

import (
	"fmt"
	"log"
	"math"
	"time"
)

// PulseSystem 管理整个心率监测系统的生命周期：
// 选择信号源 (串口 / 回放 / 模拟器 / 麦克风)，把采样喂进检测管线，
// 再把结果分发给记录器、NATS 发布器和上层回调。
// 显示和音乐播放不在这里——它们订阅回调或 NATS 主题。
type PulseSystem struct {
	// 配置
	cfg        *Config
	SerialPort string
	BaudRate   int

	// 组件
	pipeline  *Pipeline
	monitor   *RateMonitor
	recorder  SignalRecorder
	publisher *Publisher

	serialSource *SerialSource
	audioSource  *AudioSource
	replaySource *ReplaySource

	// 模式
	replayFile  string
	replaySpeed float64
	useSim      bool
	simBpm      float64
	useMic      bool
	recordFile  string
	natsURL     string

	// 回调
	OnBeat func(ev BeatEvent, est *BpmEstimate) // 每次确认心跳
	OnTick func(res *TickResult)                // 每个被接受的 tick

	// 状态
	beatCount int64
	stopCh    chan struct{}
}

// NewPulseSystem 创建系统实例，默认从串口读传感器
func NewPulseSystem(cfg *Config) *PulseSystem {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &PulseSystem{
		cfg:         cfg,
		SerialPort:  "/dev/ttyACM0",
		BaudRate:    115200,
		pipeline:    NewPipeline(cfg),
		recorder:    &NoOpRecorder{},
		replaySpeed: 1.0,
		simBpm:      72,
		stopCh:      make(chan struct{}),
	}
}

// EnableRecording 开启 CSV 记录
func (s *PulseSystem) EnableRecording(filename string) {
	s.recordFile = filename
}

// SetReplayFile 设置回放文件 (设置后进入回放模式)
func (s *PulseSystem) SetReplayFile(filename string, speed float64) {
	s.replayFile = filename
	if speed != 0 {
		s.replaySpeed = speed
	}
}

// UseSimulator 使用内置波形模拟器当信号源
func (s *PulseSystem) UseSimulator(bpm float64) {
	s.useSim = true
	if bpm > 0 {
		s.simBpm = bpm
	}
}

// UseMicrophone 使用麦克风包络当信号源
func (s *PulseSystem) UseMicrophone() {
	s.useMic = true
}

// SetNatsURL 设置 NATS 地址，设置后心跳和 BPM 会被发布出去
func (s *PulseSystem) SetNatsURL(url string) {
	s.natsURL = url
}

// Pipeline 返回内部管线，供诊断
func (s *PulseSystem) Pipeline() *Pipeline {
	return s.pipeline
}

// Start 启动系统
func (s *PulseSystem) Start() error {
	// 1. 外围组件
	if s.cfg.Monitor.Enabled {
		s.monitor = NewRateMonitor(s.cfg)
	}

	if s.recordFile != "" {
		rec, err := NewCsvRecorder(s.recordFile)
		if err != nil {
			return fmt.Errorf("failed to create record file: %v", err)
		}
		s.recorder = rec
		fmt.Printf("Recording signal to %s\n", s.recordFile)
	}

	if s.natsURL != "" {
		pub, err := NewPublisher(s.natsURL, s.cfg)
		if err != nil {
			// 发布是锦上添花，连不上不挡本地检测
			log.Printf("Warning: could not connect to NATS: %v", err)
		} else {
			s.publisher = pub
			fmt.Printf("Publishing to NATS at %s\n", s.natsURL)
		}
	}

	// 2. 信号源
	switch {
	case s.replayFile != "":
		src, err := NewReplaySource(s.replayFile, s.handleSample)
		if err != nil {
			return fmt.Errorf("failed to open replay file: %v", err)
		}
		s.replaySource = src
		fmt.Printf("Mode: REPLAY (%s, %d samples, x%.1f)\n", s.replayFile, src.Len(), s.replaySpeed)
		go func() {
			src.Run(s.replaySpeed)
			fmt.Println("\nEnd of replay.")
		}()

	case s.useSim:
		fmt.Printf("Mode: SIMULATOR (%.0f bpm)\n", s.simBpm)
		go s.runSimLoop()

	case s.useMic:
		src, err := NewAudioSource(s.cfg, s.cfg.Monitor.TickRateHz, s.handleSample)
		if err != nil {
			return fmt.Errorf("failed to init audio source: %v", err)
		}
		s.audioSource = src
		fmt.Println("Mode: MICROPHONE")
		if err := src.Start(); err != nil {
			return err
		}

	default:
		s.serialSource = NewSerialSource(s.SerialPort, s.BaudRate, s.handleSample)
		fmt.Printf("Mode: SERIAL (%s @ %d)\n", s.SerialPort, s.BaudRate)
		if err := s.serialSource.Open(); err != nil {
			return fmt.Errorf("could not open serial port: %v", err)
		}
		go func() {
			if err := s.serialSource.Run(); err != nil {
				log.Printf("serial read stopped: %v", err)
			}
		}()
	}

	return nil
}

// Stop 停止系统并释放资源
func (s *PulseSystem) Stop() {
	close(s.stopCh)
	if s.audioSource != nil {
		s.audioSource.Stop()
	}
	if s.serialSource != nil {
		s.serialSource.Close()
	}
	s.recorder.Close()
	if s.publisher != nil {
		s.publisher.Close()
	}
}

// 内部：模拟器循环，时间戳是合成的，不依赖挂钟
func (s *PulseSystem) runSimLoop() {
	tickMs := int64(1000.0 / s.cfg.Monitor.TickRateHz)
	sim := NewPulseSim(s.cfg.Monitor.TickRateHz, s.simBpm, 0.01)

	ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	defer ticker.Stop()

	var ts int64
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ts += tickMs
			s.handleSample(sim.Next(), ts)
		}
	}
}

// 内部：处理一个采样——整个系统的心跳就在这条路径上
func (s *PulseSystem) handleSample(raw float64, tsMillis int64) {
	res, err := s.pipeline.ProcessTick(raw, tsMillis)
	if err != nil {
		// 偶发坏行正常，持续出现说明硬件有问题
		if s.pipeline.Rejected()%50 == 1 {
			log.Printf("Warning: rejected tick (%d total): %v", s.pipeline.Rejected(), err)
		}
		return
	}

	s.recorder.Record(tsMillis, raw, res.Filtered, res.Threshold, res.Quality, res.Beat != nil)

	// 频谱交叉校验：两种心率估计分叉太大时提示检查传感器
	if s.monitor != nil {
		if spectralBpm, ok := s.monitor.Push(res.Filtered); ok && res.Bpm != nil && res.Bpm.Valid {
			if math.Abs(spectralBpm-res.Bpm.Bpm) > 15.0 {
				fmt.Printf("\n[MONITOR] spectral HR %.0f vs interval HR %.0f, check sensor contact\n",
					spectralBpm, res.Bpm.Bpm)
			}
		}
	}

	if !res.Calibration.Complete {
		fmt.Printf("\rCalibrating... %.1fs (keep finger steady)  ", float64(res.Calibration.RemainingMs)/1000.0)
	}

	if res.Beat != nil {
		s.beatCount++
		bpmStr := "--"
		if res.Bpm != nil {
			bpmStr = fmt.Sprintf("%.0f", res.Bpm.Bpm)
			if !res.Bpm.Valid {
				bpmStr += " (!)"
			}
		}
		fmt.Printf("\r♥ Beat #%d  BPM: %s  Signal: %s [%d%%]      ",
			s.beatCount, bpmStr, res.Quality.String(), s.pipeline.Quality().Strength())

		if s.publisher != nil {
			if err := s.publisher.PublishBeat(*res.Beat); err == nil && res.Bpm != nil {
				_ = s.publisher.PublishBpm(tsMillis, *res.Bpm, res.Quality)
			}
		}

		if s.OnBeat != nil {
			s.OnBeat(*res.Beat, res.Bpm)
		}
	}

	if s.OnTick != nil {
		s.OnTick(res)
	}
}
