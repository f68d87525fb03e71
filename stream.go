package pulse

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"pulse/Filters"
)

// ConnectStream 建立 NATS 连接，断线无限重连
func ConnectStream(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("pulse-monitor"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// BeatMsg 是发布到心跳主题的 JSON 消息
type BeatMsg struct {
	Ts int64 `json:"ts"` // 心跳时间戳 (样本时钟, ms)
}

// BpmMsg 是发布到 BPM 主题的 JSON 消息
type BpmMsg struct {
	Ts      int64   `json:"ts"`
	Bpm     float64 `json:"bpm"`
	Valid   bool    `json:"valid"`
	Quality string  `json:"quality"`
}

// Publisher 把心跳事件和 BPM 估计推到 NATS，
// 给下游的渲染层 / 音频层订阅。发布失败不影响本地检测。
type Publisher struct {
	nc          *nats.Conn
	beatSubject string
	bpmSubject  string
}

// NewPublisher 创建发布器
func NewPublisher(url string, cfg *Config) (*Publisher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	nc, err := ConnectStream(url)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		nc:          nc,
		beatSubject: cfg.Stream.BeatSubject,
		bpmSubject:  cfg.Stream.BpmSubject,
	}, nil
}

// PublishBeat 发布一次心跳事件
func (p *Publisher) PublishBeat(ev BeatEvent) error {
	b, err := json.Marshal(BeatMsg{Ts: ev.TimestampMs})
	if err != nil {
		return err
	}
	return p.nc.Publish(p.beatSubject, b)
}

// PublishBpm 发布当前 BPM 估计和接触质量
func (p *Publisher) PublishBpm(tsMillis int64, est BpmEstimate, quality Filters.QualityLevel) error {
	b, err := json.Marshal(BpmMsg{
		Ts:      tsMillis,
		Bpm:     est.Bpm,
		Valid:   est.Valid,
		Quality: quality.String(),
	})
	if err != nil {
		return err
	}
	return p.nc.Publish(p.bpmSubject, b)
}

// Close 排空并关闭连接
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
