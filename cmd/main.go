package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/boxscan/featureflag"
	boxscanhttp "github.com/aukilabs/boxscan/http"
	"github.com/aukilabs/boxscan/models"
	"github.com/aukilabs/boxscan/modules"
	"github.com/aukilabs/boxscan/modules/boxscan"
	"github.com/aukilabs/boxscan/modules/testrun"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/boxscan/smoketest"
	bwebsocket "github.com/aukilabs/boxscan/websocket"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "boxscan_info",
		Help:        "Box scan server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"BOXSCAN_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"BOXSCAN_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"BOXSCAN_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	ServerID           string        `cli:""        env:"BOXSCAN_SERVER_ID"            help:"The server identifier prefixed to session ids."`
	MaxSessions        int           `cli:""        env:"BOXSCAN_MAX_SESSIONS"         help:"The number of sessions above which the server reports not ready. 0 means no limit."`
	LogLevel           string        `cli:""        env:"BOXSCAN_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"BOXSCAN_LOG_INDENT"           help:"Indent logs."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"BOXSCAN_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"BOXSCAN_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	FrameDuration      time.Duration `cli:",hidden" env:"BOXSCAN_FRAME_DURATION"       help:"The duration between two scan snapshots sent to session participants."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"BOXSCAN_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	NoDetectionTimeout time.Duration `cli:",hidden" env:"BOXSCAN_NO_DETECTION_TIMEOUT" help:"Time without detection before a test run reports it."`
	Scan               scanConfig    `cli:",hidden" env:"-"                            help:"Scan engine configuration."`
	Events             eventsConfig  `cli:",hidden" env:"-"                            help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"BOXSCAN_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

type scanConfig struct {
	InitialSize              float64 `cli:",hidden" env:"BOXSCAN_SCAN_INITIAL_SIZE"               help:"The size of a newly placed bounding box, in meters."`
	MinSize                  float64 `cli:",hidden" env:"BOXSCAN_SCAN_MIN_SIZE"                   help:"The minimum size of the bounding box on each axis, in meters."`
	TilesPerSide             int     `cli:",hidden" env:"BOXSCAN_SCAN_TILES_PER_SIDE"             help:"The number of tile rows and columns on each box side."`
	FocusRadius              float64 `cli:",hidden" env:"BOXSCAN_SCAN_FOCUS_RADIUS"               help:"The radius around the focus point used to fit the box over the point cloud."`
	OutlierRadius            float64 `cli:",hidden" env:"BOXSCAN_SCAN_OUTLIER_RADIUS"             help:"The neighborhood radius used to filter point cloud outliers."`
	OutlierNeighbors         int     `cli:",hidden" env:"BOXSCAN_SCAN_OUTLIER_NEIGHBORS"          help:"The number of neighbors a point needs to not be an outlier."`
	SampleInterval           int     `cli:",hidden" env:"BOXSCAN_SCAN_SAMPLE_INTERVAL"            help:"The number of frames between two camera ray samples."`
	RecomputeInterval        int     `cli:",hidden" env:"BOXSCAN_SCAN_RECOMPUTE_INTERVAL"         help:"The number of frames between two captured tiles recomputations."`
	HitDeduplicationDistance float64 `cli:",hidden" env:"BOXSCAN_SCAN_HIT_DEDUPLICATION_DISTANCE" help:"The distance under which a sampled hit is a duplicate."`
	RayLength                float64 `cli:",hidden" env:"BOXSCAN_SCAN_RAY_LENGTH"                 help:"The length of the camera rays, in meters."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"BOXSCAN_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"BOXSCAN_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"BOXSCAN_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"BOXSCAN_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	d := scan.DefaultConfig()

	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		ServerID:           models.DefaultServerID,
		LogLevel:           logs.InfoLevel.String(),
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		FrameDuration:      time.Millisecond * 100,
		LogSummaryInterval: time.Minute,
		NoDetectionTimeout: scan.DefaultNoDetectionTimeout,
		Scan: scanConfig{
			InitialSize:              d.InitialExtent.X(),
			MinSize:                  d.MinSize,
			TilesPerSide:             d.TilesPerSide,
			FocusRadius:              d.FocusRadius,
			OutlierRadius:            d.OutlierRadius,
			OutlierNeighbors:         d.OutlierNeighbors,
			SampleInterval:           d.SampleInterval,
			RecomputeInterval:        d.RecomputeInterval,
			HitDeduplicationDistance: d.HitDeduplicationDistance,
			RayLength:                d.RayLength,
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the box scan server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "boxscan",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)
	scanConf := conf.Scan.engineConfig()

	sessions := models.SessionStore{
		ServerID: conf.ServerID,
	}

	readinessCheck := func() bool {
		return conf.MaxSessions <= 0 || sessions.Count() < conf.MaxSessions
	}

	var service http.ServeMux
	service.Handle("/health", boxscanhttp.HandleWithCORS(http.HandlerFunc(boxscanhttp.HandleHealthCheck)))
	service.Handle("/version", boxscanhttp.HandleWithCORS(http.HandlerFunc(boxscanhttp.HandleVersion(version))))
	service.Handle("/ready", boxscanhttp.HandleWithCORS(http.HandlerFunc(boxscanhttp.HandleReadyCheck(readinessCheck))))
	service.Handle("/smoke-test", boxscanhttp.HandleWithCORS(smoketest.HandleSmokeTest(ctx, smoketest.Options{
		ScanConfig: featureFlags.ScanConfig(scanConf),
	})))

	service.Handle("/", boxscanhttp.HandleWithCORS(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var rh bwebsocket.Handler = &bwebsocket.RealtimeHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				FrameDuration:           conf.FrameDuration,
				Sessions:                &sessions,
				Modules:                 newModules(scanConf, featureFlags, conf.NoDetectionTimeout),
				FeatureFlags:            featureFlags,
			}
			h := bwebsocket.HandlerWithLogs(rh, conf.LogSummaryInterval)
			h = bwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			bwebsocket.Handle(ctx, conn, h)
		},
	}))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", boxscanhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", boxscanhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("server_id", conf.ServerID).
		WithTag("feature_flags", featureFlags.Flags()).
		Info("starting box scan server")

	boxscanhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			boxscanhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// newModules returns the modules of a client connection.
func newModules(c scan.Config, flags featureflag.FeatureFlag, noDetectionTimeout time.Duration) []modules.Module {
	return []modules.Module{
		&boxscan.Module{
			ScanConfig:   c,
			FeatureFlags: flags,
		},
		&testrun.Module{
			NoDetectionTimeout: noDetectionTimeout,
		},
	}
}

func (c scanConfig) engineConfig() scan.Config {
	conf := scan.DefaultConfig()
	conf.InitialExtent = mgl64.Vec3{c.InitialSize, c.InitialSize, c.InitialSize}
	conf.MinSize = c.MinSize
	conf.TilesPerSide = c.TilesPerSide
	conf.FocusRadius = c.FocusRadius
	conf.OutlierRadius = c.OutlierRadius
	conf.OutlierNeighbors = c.OutlierNeighbors
	conf.SampleInterval = c.SampleInterval
	conf.RecomputeInterval = c.RecomputeInterval
	conf.HitDeduplicationDistance = c.HitDeduplicationDistance
	conf.RayLength = c.RayLength
	return conf
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.ServerID == "" {
		return errors.New("server id is empty")
	}

	if conf.Scan.InitialSize < conf.Scan.MinSize {
		return errors.New("initial bounding box size is smaller than the minimum size").
			WithTag("initial_size", conf.Scan.InitialSize).
			WithTag("min_size", conf.Scan.MinSize)
	}

	return nil
}
