package pulse

import (
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"

	"pulse/Filters"
)

// AudioSource 用麦克风包络当信号源，无需任何传感器硬件即可演示整条管线。
// 处理链：|x| 整流 -> 巴特沃斯低通 (抗混叠) -> 降采样到 tick 频率。
// 时间戳从累计采样数推导 (samples * 1000 / rate)，严格单调，和挂钟无关。
type AudioSource struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	SampleRate int
	handler    SampleHandler

	// 包络提取
	lpf     *Filters.ButterworthLowpass
	decim   int // 每多少个音频采样出一个 tick
	counter int
	total   int64
}

// NewAudioSource 创建麦克风信号源
// tickRateHz: 管线 tick 频率，决定降采样倍率
func NewAudioSource(cfg *Config, tickRateHz float64, handler SampleHandler) (*AudioSource, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init malgo context: %v", err)
	}

	decim := int(float64(cfg.Audio.SampleRate) / tickRateHz)
	if decim < 1 {
		decim = 1
	}

	as := &AudioSource{
		ctx:        ctx,
		SampleRate: cfg.Audio.SampleRate,
		handler:    handler,
		lpf:        Filters.NewButterworthLowpass(4, float64(cfg.Audio.SampleRate), cfg.Audio.CutoffHz),
		decim:      decim,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.Audio.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.Audio.DeviceName != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(cfg.Audio.DeviceName)) {
					deviceConfig.Capture.DeviceID = info.ID.Pointer()
					fmt.Printf("Selected Audio Device: %s\n", info.Name())
					break
				}
			}
		}
	}

	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		if len(pInputSamples) == 0 {
			return
		}
		samples := unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), int(framecount))
		as.processChunk(samples)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to init device: %v", err)
	}
	as.device = device

	fmt.Printf("Audio Device Initialized. Rate: %d Hz, decimation x%d\n", device.SampleRate(), decim)

	return as, nil
}

// processChunk 整流 + 低通 + 降采样，每 decim 个采样向管线交付一个 tick
func (as *AudioSource) processChunk(samples []float32) {
	for _, s := range samples {
		env := as.lpf.Process(math.Abs(float64(s)))
		as.total++

		as.counter++
		if as.counter < as.decim {
			continue
		}
		as.counter = 0

		tsMillis := as.total * 1000 / int64(as.SampleRate)
		as.handler(env, tsMillis)
	}
}

// Start 启动音频捕获
func (as *AudioSource) Start() error {
	if as.device == nil {
		return fmt.Errorf("device not initialized")
	}
	return as.device.Start()
}

// Stop 停止捕获并释放资源
func (as *AudioSource) Stop() {
	if as.device != nil {
		as.device.Uninit()
		as.device = nil
	}
	if as.ctx != nil {
		_ = as.ctx.Uninit()
		as.ctx.Free()
		as.ctx = nil
	}
}
