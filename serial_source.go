package pulse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// adcFullScale 是微控制器 16 位 ADC 的满量程，串口读数按它归一化到 0.0 ~ 1.0
const adcFullScale = 65535.0

// SamplePort 定义串口操作接口，方便测试 Mock
type SamplePort interface {
	io.ReadWriteCloser
}

// SampleHandler 是各信号源统一的回调：一个原始样本 + 单调毫秒时间戳
type SampleHandler func(raw float64, tsMillis int64)

// SerialSource 从串口读取微控制器推送的 ADC 采样。
// 帧格式是一行一个样本的文本："<timestamp_ms>,<adc_value>\n"，
// 时间戳来自微控制器自己的单调时钟，数值是 0 ~ 65535 的原始 ADC 读数。
// 解析不了的行直接跳过并计数——串口开机时常有半行垃圾。
type SerialSource struct {
	Port     string
	BaudRate int

	conn     SamplePort
	handler  SampleHandler
	badLines int64
}

// NewSerialSource 创建串口信号源
func NewSerialSource(port string, baudRate int, handler SampleHandler) *SerialSource {
	return &SerialSource{
		Port:     port,
		BaudRate: baudRate,
		handler:  handler,
	}
}

// Open 打开串口连接
func (s *SerialSource) Open() error {
	config := &serial.Config{
		Name:        s.Port,
		Baud:        s.BaudRate,
		ReadTimeout: time.Millisecond * 500,
	}
	conn, err := serial.OpenPort(config)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// Close 关闭串口连接
func (s *SerialSource) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Run 阻塞读取串口直到 EOF 或读错误，每解析出一个样本就调用 handler。
// 通常在独立的 goroutine 里跑。
func (s *SerialSource) Run() error {
	if s.conn == nil {
		return fmt.Errorf("serial port not open")
	}

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		raw, ts, err := parseSampleLine(scanner.Text())
		if err != nil {
			s.badLines++
			continue
		}
		s.handler(raw, ts)
	}
	return scanner.Err()
}

// BadLines 返回被丢弃的坏行数
func (s *SerialSource) BadLines() int64 {
	return s.badLines
}

// parseSampleLine 解析一行 "ts_ms,adc"。返回归一化后的幅度和时间戳。
func parseSampleLine(line string) (raw float64, tsMillis int64, err error) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed sample line: %q", line)
	}

	tsMillis, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad timestamp in %q: %v", line, err)
	}

	adc, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad value in %q: %v", line, err)
	}

	return adc / adcFullScale, tsMillis, nil
}
