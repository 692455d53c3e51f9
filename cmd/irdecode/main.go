package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/irdecode/internal/api"
	"github.com/banshee-data/irdecode/internal/config"
	"github.com/banshee-data/irdecode/internal/db"
	"github.com/banshee-data/irdecode/internal/feeder"
	"github.com/banshee-data/irdecode/internal/ir"
	"github.com/banshee-data/irdecode/internal/monitoring"
	"github.com/banshee-data/irdecode/internal/report"
	"github.com/banshee-data/irdecode/internal/rpc"
	"github.com/banshee-data/irdecode/internal/serialport"
	"github.com/banshee-data/irdecode/internal/stats"
	"github.com/banshee-data/irdecode/internal/version"
)

var (
	input       = flag.String("input", "-", "Capture input: - for stdin, a serial device, or a capture file")
	forceSerial = flag.Bool("serial", false, "Open -input as a serial port even if the path does not look like one")
	baudRate    = flag.Int("baud", serialport.DefaultBaudRate, "Serial baud rate")
	parity      = flag.String("parity", "N", "Serial parity: N, E or O")
	dataBits    = flag.Int("data-bits", 8, "Serial data bits")
	stopBits    = flag.Int("stop-bits", 1, "Serial stop bits")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	profilePath = flag.String("profile", "", "JSON timing profile (default: built-in profile)")
	poll        = flag.Duration("poll", 0, "Read timeout after which a pending pulse is decoded alone (0 uses the profile's poll_interval)")
	flushEOF    = flag.Bool("flush-on-eof", false, "Decode a trailing pulse still pending at end of input")
	dbPath      = flag.String("db", "", "SQLite database for sessions and decoded messages (empty disables)")
	listen      = flag.String("listen", "", "HTTP listen address for the API, charts and debug pages (empty disables)")
	grpcListen  = flag.String("grpc-listen", "", "gRPC health service listen address (empty disables)")
	logLevel    = flag.String("log-level", "info", "Log level with optional per-component overrides, e.g. warn,bitdecoder=debug")
	showStats   = flag.Bool("stats", false, "Print pulse/space timing statistics to stderr at exit")
	plotPath    = flag.String("plot", "", "Write a PNG histogram of pulse/space widths at exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Component logger names.
const (
	readerLogger      = "reader"
	classifierLogger  = "PulseDecoder"
	accumulatorLogger = "bitdecoder"
	httpLogger        = "http"
	storeLogger       = "store"
	rpcLogger         = "rpc"
)

// options carries the parsed flags into run.
type options struct {
	Input       string
	ForceSerial bool
	Port        serialport.PortOptions
	ProfilePath string
	Poll        time.Duration
	FlushOnEOF  bool
	DBPath      string
	Listen      string
	GRPCListen  string
	Stats       bool
	PlotPath    string

	// ready receives the HTTP address once bound. Tests only.
	ready chan<- net.Addr
}

func optionsFromFlags() options {
	return options{
		Input:       *input,
		ForceSerial: *forceSerial,
		Port: serialport.PortOptions{
			BaudRate: *baudRate,
			DataBits: *dataBits,
			StopBits: *stopBits,
			Parity:   *parity,
		},
		ProfilePath: *profilePath,
		Poll:        *poll,
		FlushOnEOF:  *flushEOF,
		DBPath:      *dbPath,
		Listen:      *listen,
		GRPCListen:  *grpcListen,
		Stats:       *showStats,
		PlotPath:    *plotPath,
	}
}

// printer writes each decoded message as a line of lowercase hex. An empty
// message prints an empty line.
type printer struct {
	w io.Writer
}

func (p printer) HandleEvent(e ir.Event) {
	if e.Type == ir.EventMessage {
		fmt.Fprintln(p.w, e.Message.String())
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listPorts {
		ports, err := serialport.Ports()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	registry := monitoring.NewRegistry(monitoring.LevelInfo)
	if err := registry.Apply(*logLevel); err != nil {
		log.Fatalf("invalid -log-level: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, optionsFromFlags(), registry, os.Stdin, os.Stdout, os.Stderr); err != nil {
		stop()
		log.Fatalf("irdecode: %v", err)
	}
}

func loadProfile(path string) (*config.ProfileConfig, error) {
	if path == "" {
		return config.DefaultProfileConfig(), nil
	}
	return config.LoadProfileConfig(path)
}

// run decodes o.Input until it ends or ctx is cancelled. Decoded messages
// go to stdout, the -stats table to stderr.
func run(ctx context.Context, o options, registry *monitoring.Registry, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadProfile(o.ProfilePath)
	if err != nil {
		return err
	}
	profile := cfg.ToProfile()
	classifier, err := ir.NewClassifier(profile)
	if err != nil {
		return err
	}
	pollInterval := o.Poll
	if pollInterval <= 0 {
		pollInterval = cfg.GetPollInterval()
	}

	src := serialport.DefaultSource()
	src.Stdin = stdin
	in, kind, err := src.OpenInput(o.Input, o.ForceSerial, o.Port)
	if err != nil {
		return err
	}
	defer in.Close()

	readerLog := registry.Logger(readerLogger)
	readerLog.Infof("reading %s input %q with profile %s, poll %s", kind, o.Input, cfg.GetName(), pollInterval)

	dec := ir.NewDecoder(classifier, nil,
		ir.NewLogListener(registry.Logger(classifierLogger), registry.Logger(accumulatorLogger)),
		printer{w: stdout},
	)

	var timing *stats.Recorder
	if o.Stats || o.PlotPath != "" || o.Listen != "" {
		timing = stats.NewRecorder()
		dec.AddListener(timing)
	}

	var (
		store   *db.DB
		session *db.Session
	)
	if o.DBPath != "" {
		store, err = db.NewDB(o.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		session, err = store.StartSession(o.Input, profile, time.Now())
		if err != nil {
			return err
		}
		storeLog := registry.Logger(storeLogger)
		storeLog.Infof("recording session %s to %s", session.ID, o.DBPath)
		dec.AddListener(db.NewRecorder(store, session.ID, storeLog))
		defer func() {
			if err := store.EndSession(session.ID, time.Now()); err != nil {
				storeLog.Errorf("failed to end session %s: %v", session.ID, err)
			}
		}()
	}

	// The HTTP server runs until run returns.
	serveCtx, cancelServe := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancelServe()

	if o.Listen != "" {
		var apiStore api.Store
		if store != nil {
			apiStore = store
		}
		server := api.NewServer(apiStore, timing, profile)
		mux := server.ServeMux()
		if store != nil {
			server.SetSession(session.ID)
			if err := store.AttachAdminRoutes(mux); err != nil {
				return err
			}
		}
		httpLog := registry.Logger(httpLogger)
		handler := api.LoggingMiddleware(httpLog, mux)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.Serve(serveCtx, o.Listen, handler, o.ready); err != nil {
				httpLog.Errorf("HTTP server: %v", err)
			}
		}()
	}

	var health *rpc.HealthServer
	if o.GRPCListen != "" {
		health = rpc.NewHealthServer(o.GRPCListen, registry.Logger(rpcLogger))
		if err := health.Start(); err != nil {
			return err
		}
		defer health.Stop()
		health.SetServing(true)
	}

	f := feeder.New(in, feeder.Options{
		PollInterval: pollInterval,
		Logger:       readerLog,
		FlushOnEOF:   o.FlushOnEOF,
	})
	runErr := f.Run(ctx, dec)
	if health != nil {
		health.SetServing(false)
	}

	st, counts := f.Stats(), dec.Counts()
	readerLog.Infof("read %d lines: %d pairs, %d malformed, %d timeouts", st.Lines, st.Pairs, st.Malformed, st.Timeouts)
	registry.Logger(classifierLogger).Infof("decoded %d messages (%d bytes), %d unknown pairs, %d bits discarded",
		counts.Messages, counts.Bytes, counts.Unknown, counts.Discarded)

	if o.Stats {
		for _, s := range timing.Summary() {
			fmt.Fprintln(stderr, s)
		}
	}
	if o.PlotPath != "" {
		err := report.WriteHistogramPNG(o.PlotPath, timing, report.HistogramOptions{})
		switch {
		case errors.Is(err, report.ErrNoSamples):
			readerLog.Warnf("no timing samples to plot")
		case err != nil:
			readerLog.Errorf("failed to write plot: %v", err)
		default:
			readerLog.Infof("wrote timing histogram to %s", o.PlotPath)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	if runErr != nil {
		return fmt.Errorf("reading input: %w", runErr)
	}

	if o.Listen != "" {
		readerLog.Infof("input finished; serving on %s until interrupted", o.Listen)
		<-ctx.Done()
	}
	return nil
}
