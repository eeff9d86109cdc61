// Command cylon-meter drives a ten-LED scanning eye that doubles as a bar
// meter for an analog input, and reports its state over HTTP and MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/cylon-meter/internal/adc"
	"github.com/sweeney/cylon-meter/internal/config"
	"github.com/sweeney/cylon-meter/internal/display"
	"github.com/sweeney/cylon-meter/internal/gpio"
	"github.com/sweeney/cylon-meter/internal/ledserial"
	"github.com/sweeney/cylon-meter/internal/logic"
	"github.com/sweeney/cylon-meter/internal/mqtt"
	"github.com/sweeney/cylon-meter/internal/sched"
	"github.com/sweeney/cylon-meter/internal/status"
	"github.com/sweeney/cylon-meter/internal/web"
)

func main() {
	var (
		configPath = "/etc/cylon-meter.toml"
		verbose    bool
		printState bool
		broker     string
		httpAddr   string
		heartbeat  time.Duration
	)

	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.BoolVar(&printState, "print-state", false, "print the current input state and exit")
	pflag.StringVar(&broker, "broker", "", "MQTT broker address, overrides the config file (empty disables)")
	pflag.StringVar(&httpAddr, "http", "", "HTTP status address, overrides the config file (empty disables)")
	pflag.DurationVar(&heartbeat, "heartbeat", 0, "heartbeat interval, overrides the config file (0 disables)")
	pflag.Parse()

	zapLogger, err := newLogger(verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot create logger:", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalw("cannot load config", "path", configPath, "error", err)
	}
	if pflag.CommandLine.Changed("broker") {
		cfg.MQTT.Broker = broker
	}
	if pflag.CommandLine.Changed("http") {
		cfg.HTTP.Addr = httpAddr
	}
	if pflag.CommandLine.Changed("heartbeat") {
		cfg.MQTT.Heartbeat = config.Duration(heartbeat)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid config", "path", configPath, "error", err)
	}

	if printState {
		err = runPrintState(cfg, os.Stdout)
	} else {
		err = run(cfg, log)
	}
	if err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// surface is an LED surface that owns hardware.
type surface interface {
	display.Surface
	io.Closer
}

func openSurface(cfg config.OutputConfig) (surface, error) {
	switch cfg.Backend {
	case config.OutputSerial:
		return ledserial.Open(cfg.Device, cfg.Baud)
	default:
		return gpio.NewRealSurface(cfg.Chip, cfg.Pins)
	}
}

// runPrintState reads the analog input and the button once and prints what
// the meter would show.
func runPrintState(cfg *config.Config, w io.Writer) error {
	reader, err := adc.NewIIOReader(cfg.ADC.Device, cfg.ADC.Channel, cfg.ADC.Bits)
	if err != nil {
		return errors.Wrap(err, "init adc")
	}
	defer reader.Close()

	button, err := gpio.NewRealButton(cfg.Button.Chip, cfg.Button.Pin)
	if err != nil {
		return errors.Wrap(err, "init button")
	}
	defer button.Close()

	return printInputs(reader, button, w)
}

func printInputs(reader adc.Reader, button display.Button, w io.Writer) error {
	v, err := reader.Read()
	if err != nil {
		return errors.Wrap(err, "read adc")
	}
	pressed, err := button.Pressed()
	if err != nil {
		return errors.Wrap(err, "read button")
	}

	c := logic.Classify(v)
	btn := "released"
	if pressed {
		btn = "pressed"
	}
	_, err = fmt.Fprintf(w, "reading: %d, level: %d, speed: %s, button: %s, bar: %s\n",
		c.Reading, c.Level, c.Preset, btn, logic.Thermometer(c.Level))
	return err
}

// publishQueueSize bounds the MQTT messages waiting for the broker.
const publishQueueSize = 64

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	surf, err := openSurface(cfg.Output)
	if err != nil {
		return errors.Wrap(err, "init led surface")
	}
	defer surf.Close()

	button, err := gpio.NewRealButton(cfg.Button.Chip, cfg.Button.Pin)
	if err != nil {
		return errors.Wrap(err, "init button")
	}
	defer button.Close()

	reader, err := adc.NewIIOReader(cfg.ADC.Device, cfg.ADC.Channel, cfg.ADC.Bits)
	if err != nil {
		return errors.Wrap(err, "init adc")
	}
	defer reader.Close()

	// Initialize MQTT
	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.Discard{}
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, log)
		if err != nil {
			return errors.Wrap(err, "init mqtt")
		}
		publisher = p
	}
	// Broker I/O runs on the queue's goroutine, never on the dispatcher.
	queue := mqtt.NewQueue(publisher, publishQueueSize, log)
	defer queue.Close()

	engine := display.NewEngine(surf, button, logic.DefaultStart)
	if err := engine.Start(); err != nil {
		return errors.Wrap(err, "paint first frame")
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Output:      cfg.Output.Backend,
		HeartbeatMs: cfg.MQTT.Heartbeat.Std().Milliseconds(),
		IntervalMs:  cfg.ADC.Interval.Std().Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	tracker.Update(engine.State())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := queue.PublishSystem(startupEvent); err != nil {
		log.Warnw("failed to publish startup event", "error", err)
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	log.Infow("started",
		"output", cfg.Output.Backend,
		"interval", cfg.ADC.Interval.Std(),
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.MQTT.Heartbeat.Std())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	frame := make(chan time.Time)
	samples := make(chan uint16)

	g.Go(func() error {
		return queue.Run(ctx)
	})

	timer := sched.NewFrameTimer(engine.Period())
	g.Go(func() error {
		return timer.Run(ctx, frame)
	})
	logged := loggedReader{Reader: reader, errs: newErrorLog(log, "adc read")}
	g.Go(func() error {
		return sched.RunSampler(ctx, logged, cfg.ADC.Interval.Std(), cfg.ADC.Retry.Std(), samples, nil)
	})

	modeTicker := time.NewTicker(logic.ModePeriod)
	defer modeTicker.Stop()

	var heartbeatC <-chan time.Time
	if hb := cfg.MQTT.Heartbeat.Std(); hb > 0 {
		t := time.NewTicker(hb)
		defer t.Stop()
		heartbeatC = t.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		defer cancel()
		return runLoop(ctx, engine, queue, queue, tracker, log, time.Now, sources{
			frame:     frame,
			mode:      modeTicker.C,
			samples:   samples,
			heartbeat: heartbeatC,
			sig:       sigCh,
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sources are the event channels the dispatcher selects on. A nil channel
// never fires.
type sources struct {
	frame     <-chan time.Time
	mode      <-chan time.Time
	samples   <-chan uint16
	heartbeat <-chan time.Time
	sig       <-chan os.Signal
}

// runLoop is the dispatcher. Each event runs its handler to completion
// before the next is taken, so a thermometer overlay can never interleave
// with a sweep repaint.
func runLoop(ctx context.Context, engine *display.Engine, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, log *zap.SugaredLogger, now func() time.Time, src sources) error {
	surfaceErrors := newErrorLog(log, "led surface")
	buttonErrors := newErrorLog(log, "button read")

	publish := func(events []logic.Event) {
		for _, event := range events {
			log.Infow("event", "type", event.Type, "mode", event.Mode, "speed", event.Preset, "reading", event.Reading)
			if err := publisher.Publish(event); err != nil {
				// Don't crash on publish failure
				log.Warnw("publish error", "error", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s := <-src.sig:
			log.Infow("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnw("failed to publish shutdown event", "error", err)
			}
			return nil

		case <-src.frame:
			surfaceErrors.report(engine.SweepTick())

		case <-src.mode:
			publish(engine.ModeTick(now()))

		case v := <-src.samples:
			events, err := engine.Sample(v, now())
			publish(events)
			if errors.Is(err, display.ErrButton) {
				buttonErrors.report(err)
			} else {
				buttonErrors.report(nil)
				surfaceErrors.report(err)
			}
			if tracker != nil {
				tracker.AddReading(v)
			}

		case <-src.heartbeat:
			hb := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				tracker.Update(engine.State())
				snap := tracker.Snapshot()
				log.Infow("heartbeat", "uptime", snap.Uptime(), "sweep_ticks", snap.Display.Counts.SweepTicks, "samples", snap.Display.Counts.Samples)
				hb.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hb); err != nil {
				log.Warnw("heartbeat publish error", "error", err)
			}
		}

		// Update status tracker for HTTP consumers
		if tracker != nil {
			tracker.Update(engine.State())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}
	}
}

// errorLog logs the first error of a run of failures and the recovery that
// ends it, instead of every failure of a high-rate operation.
type errorLog struct {
	log     *zap.SugaredLogger
	what    string
	failing int
}

func newErrorLog(log *zap.SugaredLogger, what string) *errorLog {
	return &errorLog{log: log, what: what}
}

func (e *errorLog) report(err error) {
	if err == nil {
		if e.failing > 0 {
			e.log.Infow(e.what+" recovered", "failures", e.failing)
			e.failing = 0
		}
		return
	}
	if e.failing == 0 {
		e.log.Warnw(e.what+" failing", "error", err)
	}
	e.failing++
}

// loggedReader reports conversion failures and recoveries to an errorLog.
// It is only used from the sampler goroutine.
type loggedReader struct {
	adc.Reader
	errs *errorLog
}

func (r loggedReader) Read() (uint16, error) {
	v, err := r.Reader.Read()
	r.errs.report(err)
	return v, err
}
