package pulse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// replayTick 是回放文件里的一行：原始样本 + 时间戳
type replayTick struct {
	raw      float64
	tsMillis int64
}

// ReplaySource 从文件回放采样，支持两种格式：
//   - 串口日志风格的两列 "ts_ms,adc"，数值按 ADC 满量程归一化
//   - CsvRecorder 录制的六列文件，Raw 列已经是归一化值，原样取用
//
// 按列数区分格式。解析不了的行 (表头、半行) 直接跳过。
type ReplaySource struct {
	ticks   []replayTick
	handler SampleHandler
}

// NewReplaySource 读入整个回放文件。
// 脉搏录音很小 (50Hz * 几分钟)，一次读完比流式省事得多。
func NewReplaySource(filename string, handler SampleHandler) (*ReplaySource, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ticks []replayTick
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw, ts, err := parseReplayLine(scanner.Text())
		if err != nil {
			continue
		}
		ticks = append(ticks, replayTick{raw: raw, tsMillis: ts})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("no samples in replay file %s", filename)
	}

	return &ReplaySource{
		ticks:   ticks,
		handler: handler,
	}, nil
}

// Len 返回回放样本总数
func (r *ReplaySource) Len() int {
	return len(r.ticks)
}

// parseReplayLine 按列数分派：两列走串口格式 (归一化)，
// 六列走 CsvRecorder 格式 (Raw 列原样取用)。
func parseReplayLine(line string) (raw float64, tsMillis int64, err error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	switch len(parts) {
	case 2:
		return parseSampleLine(line)
	case 6:
		tsMillis, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad timestamp in %q: %v", line, err)
		}
		raw, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad value in %q: %v", line, err)
		}
		return raw, tsMillis, nil
	default:
		return 0, 0, fmt.Errorf("malformed replay line: %q", line)
	}
}

// Run 按文件里的时间戳间隔回放全部采样。
// speed <= 0 表示不限速（测试和批处理用），speed = 1.0 是实时，
// 2.0 是两倍速。阻塞到放完为止。
func (r *ReplaySource) Run(speed float64) {
	var prevTs int64
	for i, tk := range r.ticks {
		if speed > 0 && i > 0 {
			dt := tk.tsMillis - prevTs
			if dt > 0 {
				time.Sleep(time.Duration(float64(dt)/speed) * time.Millisecond)
			}
		}
		prevTs = tk.tsMillis
		r.handler(tk.raw, tk.tsMillis)
	}
}
