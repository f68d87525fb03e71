package pulse

import (
	"bufio"
	"fmt"
	"os"

	"pulse/Filters"
)

// SignalRecorder 定义信号记录器接口。
// 系统层只依赖这个接口，不关心落到哪里。
type SignalRecorder interface {
	Record(tsMillis int64, raw, filtered, threshold float64, quality Filters.QualityLevel, beat bool)
	Close()
}

// CsvRecorder 把每个 tick 的管线内部量写成 CSV，
// 既是调试工具 (拿 gnuplot 画波形和阈值)，也是回放素材：
// 录下来的文件可以直接喂给 ReplaySource。
type CsvRecorder struct {
	file   *os.File
	writer *bufio.Writer
}

// NewCsvRecorder 创建记录器并写入表头
func NewCsvRecorder(filename string) (*CsvRecorder, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("TimestampMs,Raw,Filtered,Threshold,Quality,Beat\n"); err != nil {
		f.Close()
		return nil, err
	}

	return &CsvRecorder{
		file:   f,
		writer: w,
	}, nil
}

// Record 记录单个 tick
func (r *CsvRecorder) Record(tsMillis int64, raw, filtered, threshold float64, quality Filters.QualityLevel, beat bool) {
	beatVal := 0
	if beat {
		beatVal = 1
	}
	fmt.Fprintf(r.writer, "%d,%f,%f,%f,%d,%d\n", tsMillis, raw, filtered, threshold, int(quality), beatVal)
}

// Close 刷新缓冲区并关闭文件
func (r *CsvRecorder) Close() {
	if r.writer != nil {
		r.writer.Flush()
	}
	if r.file != nil {
		r.file.Close()
	}
}

// NoOpRecorder 是空实现，不记录时使用，
// 省掉核心路径上满地的 nil 检查。
type NoOpRecorder struct{}

func (r *NoOpRecorder) Record(tsMillis int64, raw, filtered, threshold float64, quality Filters.QualityLevel, beat bool) {
}
func (r *NoOpRecorder) Close() {}
