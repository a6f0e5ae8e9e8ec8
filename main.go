package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/lightnode/cmd"
	"github.com/smazurov/lightnode/internal/api"
	"github.com/smazurov/lightnode/internal/broker"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/metrics/exporters"
	"github.com/smazurov/lightnode/internal/netcheck"
	"github.com/smazurov/lightnode/internal/pixels"
	"github.com/smazurov/lightnode/internal/rig"
	"github.com/smazurov/lightnode/internal/sensor"
	"github.com/smazurov/lightnode/internal/systemd"
	"github.com/smazurov/lightnode/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"lightnode.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Rig settings
	RigFile string `help:"Rig settings file (tree or star)" short:"r" default:"rig.toml" toml:"rig.file" env:"RIG_FILE"`

	// Broker settings
	MQTTServer         string `help:"MQTT broker host, empty runs offline" toml:"mqtt.server" env:"MQTT_SERVER"`
	MQTTPort           int    `help:"MQTT broker port" default:"1883" toml:"mqtt.port" env:"MQTT_PORT"`
	MQTTUsername       string `help:"MQTT username" toml:"mqtt.username" env:"MQTT_USERNAME"`
	MQTTKey            string `help:"MQTT password or key" toml:"mqtt.key" env:"MQTT_KEY"`
	MQTTClientID       string `help:"MQTT client ID" default:"lightnode" toml:"mqtt.client_id" env:"MQTT_CLIENT_ID"`
	MQTTTreeLightsFeed string `help:"Topic carrying remote rig setting changes" toml:"mqtt.tree_lights_feed" env:"MQTT_TREE_LIGHTS_FEED"`
	MQTTDatetimeFeed   string `help:"Topic carrying the local date and time" toml:"mqtt.datetime_feed" env:"MQTT_DATETIME_FEED"`
	MQTTSunsetFeed     string `help:"Topic carrying today's sunset time" toml:"mqtt.sunset_feed" env:"MQTT_SUNSET_FEED"`

	// Network check
	WANCheckAddress string `help:"host:port dialled to decide whether the internet is reachable" default:"1.1.1.1:53" toml:"wan.check_address" env:"WAN_CHECK_ADDRESS"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool   `help:"Mirror the rig state on the board LED" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
	FeaturesLEDType    string `help:"Board LED to drive, empty picks one" toml:"features.led_type" env:"FEATURES_LED_TYPE"`
	FeaturesMetrics    bool   `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"features.metrics_enabled" env:"FEATURES_METRICS"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingRig    string `help:"Tree and star logging level" default:"info" toml:"logging.rig" env:"LOGGING_RIG"`
	LoggingBroker string `help:"MQTT broker logging level" default:"info" toml:"logging.broker" env:"LOGGING_BROKER"`
	LoggingSensor string `help:"Light sensor logging level" default:"info" toml:"logging.sensor" env:"LOGGING_SENSOR"`
	LoggingPixels string `help:"Pixel strip logging level" default:"info" toml:"logging.pixels" env:"LOGGING_PIXELS"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

// hardware is everything a runner drives, closed on shutdown.
type hardware struct {
	strip  pixels.Strip
	sensor sensor.LightSensor
}

func (h hardware) Close(logger *slog.Logger) {
	if h.strip != nil {
		if err := h.strip.Close(); err != nil {
			logger.Warn("Failed to close strip", "error", err)
		}
	}
	if h.sensor != nil {
		if err := h.sensor.Close(); err != nil {
			logger.Warn("Failed to close light sensor", "error", err)
		}
	}
}

// newRunner builds the runner for the rig file's kind.
func newRunner(opts *Options, rigCfg config.RigConfig, eventBus *events.Bus, store *config.Store) (rig.Runner, hardware, error) {
	var hw hardware
	strip, err := pixels.New(rigCfg.Pixels, logging.GetLogger("pixels"))
	if err != nil {
		return nil, hw, err
	}
	hw.strip = strip

	switch rigCfg.Kind {
	case config.KindStar:
		light, err := sensor.New(rigCfg.Sensor, logging.GetLogger("sensor"))
		if err != nil {
			return nil, hw, err
		}
		hw.sensor = light
		star, err := rig.NewStar(rig.StarOptions{
			Config: rigCfg,
			Strip:  strip,
			Sensor: light,
			Bus:    eventBus,
			Store:  store,
			Logger: logging.GetLogger("star"),
		})
		return star, hw, err

	default:
		var wan rig.WANChecker
		if opts.MQTTServer != "" {
			wan = netcheck.New(opts.WANCheckAddress, 0, 0)
		}
		tree, err := rig.NewTree(rig.TreeOptions{
			Config: rigCfg,
			Strip:  strip,
			Bus:    eventBus,
			Store:  store,
			WAN:    wan,
			Logger: logging.GetLogger("tree"),
		})
		return tree, hw, err
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"tree":   opts.LoggingRig,
				"star":   opts.LoggingRig,
				"broker": opts.LoggingBroker,
				"sensor": opts.LoggingSensor,
				"pixels": opts.LoggingPixels,
				"api":    opts.LoggingAPI,
				"http":   opts.LoggingAPI,
				"config": opts.LoggingConfig,
			},
		})
		logger := logging.GetLogger("main")
		logger.Info("Starting", "version", version.String())

		eventBus := events.New()
		logging.SetLogCallback(api.LogPublisher(eventBus))

		store := config.NewStore(opts.RigFile)
		rigCfg, err := store.Load()
		if errors.Is(err, fs.ErrNotExist) {
			rigCfg = config.DefaultRig()
			logger.Info("No rig file, writing defaults", "path", store.Path())
			err = store.Save(rigCfg)
		}
		if err != nil {
			logger.Error("Failed to load rig file", "path", store.Path(), "error", err)
			os.Exit(1)
		}
		logger.Info("Rig loaded", "path", store.Path(), "kind", rigCfg.Kind, "pixels", rigCfg.Pixels.Count)

		runner, hw, err := newRunner(opts, rigCfg, eventBus, store)
		if err != nil {
			logger.Error("Failed to set up rig", "kind", rigCfg.Kind, "error", err)
			hw.Close(logger)
			os.Exit(1)
		}

		configLogger := logging.GetLogger("config")
		watcher := config.NewConfigWatcher(store.Path(), config.LoadRig, configLogger,
			config.WithErrorHandler[config.RigConfig](func(err error) {
				configLogger.Error("Ignoring invalid rig file", "error", err)
			}),
		)
		watcher.OnReload(func(cfg config.RigConfig) {
			if cfg.Kind != runner.Name() {
				configLogger.Warn("Rig kind changed, restart to apply", "running", runner.Name(), "file", cfg.Kind)
			}
			runner.Reload(cfg)
		})

		var client *broker.Client
		if opts.MQTTServer != "" {
			brokerLogger := logging.GetLogger("broker")
			feeds := broker.Feeds{
				Control: opts.MQTTTreeLightsFeed,
				Clock:   opts.MQTTDatetimeFeed,
				Sunset:  opts.MQTTSunsetFeed,
			}
			bridge := broker.NewBridge(feeds, eventBus, brokerLogger)
			client = broker.NewClient(broker.Options{
				Server:   opts.MQTTServer,
				Port:     opts.MQTTPort,
				Username: opts.MQTTUsername,
				Password: opts.MQTTKey,
				ClientID: opts.MQTTClientID,
				Feeds:    feeds,
			}, bridge.Handle, brokerLogger)
		} else {
			logger.Info("No MQTT server configured, running offline")
		}

		var ledManager *led.Manager
		var ledController led.Controller
		if opts.FeaturesLEDControl {
			ledLogger := logging.GetLogger("led")
			ledController = led.New(ledLogger)
			ledManager = led.NewManager(ledController, eventBus, opts.FeaturesLEDType, ledLogger)
		}

		apiOpts := &api.Options{
			AuthUsername:  opts.AuthUsername,
			AuthPassword:  opts.AuthPassword,
			Rig:           runner,
			Store:         store,
			EventBus:      eventBus,
			LEDController: ledController,
		}
		if opts.FeaturesMetrics {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}
		server := api.NewServer(apiOpts)

		notifier := systemd.NewNotifier(logger)
		ctx, cancel := context.WithCancel(context.Background())
		runnerDone := make(chan struct{})

		hooks.OnStart(func() {
			if ledManager != nil {
				ledManager.Start()
			}

			go func() {
				defer close(runnerDone)
				if runErr := runner.Run(ctx); runErr != nil {
					logger.Error("Rig stopped", "kind", runner.Name(), "error", runErr)
					os.Exit(1)
				}
			}()

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Rig file hot reload disabled", "error", startErr)
			}
			if client != nil {
				go client.Start()
			}
			go notifier.Watchdog(ctx)
			notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if stopErr := server.Stop(shutdownCtx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if client != nil {
				client.Close()
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping rig file watcher", "error", stopErr)
			}

			// The runner blanks the strip on its way out.
			cancel()
			select {
			case <-runnerDone:
			case <-shutdownCtx.Done():
				logger.Warn("Rig did not stop in time")
			}

			if ledManager != nil {
				ledManager.Stop()
			}
			hw.Close(logger)
			if closeErr := eventBus.Close(); closeErr != nil {
				logger.Warn("Error closing event bus", "error", closeErr)
			}
		})
	})

	cli.Root().Use = version.Name
	cli.Root().Version = version.Get().Version
	cli.Root().AddCommand(cmd.CreateValidateCmd())
	cli.Root().AddCommand(cmd.CreateShowCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
