package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pulse"
)

func main() {
	// 1. 解析命令行参数
	serialPort := flag.String("serial", "/dev/ttyACM0", "Serial port streaming sensor samples")
	baudRate := flag.Int("baud", 115200, "Serial baud rate")
	inputFile := flag.String("file", "", "Replay samples from a recorded csv file")
	replaySpeed := flag.Float64("speed", 1.0, "Replay speed (0 = as fast as possible)")
	useSim := flag.Bool("sim", false, "Use the built-in waveform simulator")
	simBpm := flag.Float64("sim-bpm", 72, "Simulated heart rate")
	useMic := flag.Bool("mic", false, "Use the microphone envelope as signal source")
	recordFile := flag.String("record", "", "Record signal to a csv file")
	natsURL := flag.String("nats", "", "Publish beats/bpm to this NATS url")
	configFile := flag.String("config", "", "Optional toml config overriding defaults")
	flag.Parse()

	// 2. 加载配置
	cfg := pulse.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = pulse.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// 3. 初始化系统
	system := pulse.NewPulseSystem(cfg)
	system.SerialPort = *serialPort
	system.BaudRate = *baudRate

	if *inputFile != "" {
		system.SetReplayFile(*inputFile, *replaySpeed)
	}
	if *useSim {
		system.UseSimulator(*simBpm)
	}
	if *useMic {
		system.UseMicrophone()
	}
	if *recordFile != "" {
		system.EnableRecording(*recordFile)
	}
	if *natsURL != "" {
		system.SetNatsURL(*natsURL)
	}

	// 4. 启动
	if err := system.Start(); err != nil {
		log.Fatalf("System start failed: %v", err)
	}
	defer system.Stop()

	// 5. 阻塞等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Pulse monitor running. Ctrl-C to quit.")
	<-sigChan
	fmt.Println("\nShutting down...")
}
