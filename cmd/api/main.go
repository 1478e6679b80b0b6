package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/thinq2mqtt/internal/adapter/actor"
	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/actor"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/core/service"
	"github.com/berfenger/thinq2mqtt/internal/server"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"
	"github.com/berfenger/thinq2mqtt/pkg/thinqapi"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	slog.Info("Using", "config", cfg.Redacted(), "version", versioninfo.Short())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	defer logger.Sync()

	transport, err := thinqapi.NewClient(thinqapi.Config{
		BaseURL:     cfg.ThinQ.BaseURL,
		Country:     cfg.ThinQ.Country,
		ClientID:    cfg.ThinQ.ClientID,
		APIKey:      cfg.ThinQ.APIKey,
		AccessToken: cfg.ThinQ.AccessToken,
		Timeout:     cfg.ThinQ.Timeout(),
	})
	if err != nil {
		logger.Error("cannot create ThinQ client", zap.Error(err))
		return
	}

	if cfg.Push.Enable && cfg.Push.Host == "" {
		if err := resolvePushBroker(cfg, transport); err != nil {
			logger.Error("cannot resolve push broker", zap.Error(err))
			return
		}
		logger.Info("push broker resolved from route", zap.String("host", cfg.Push.Host), zap.Int("port", cfg.Push.Port))
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, transport, pushActorProvider(cfg, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	manager := actor.NewActorDeviceManager(ctx, pid, service.NewControlService(transport, logger), cfg.Control.Timeout())

	server := server.NewServer(*cfg, ctx, pid, manager)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => THINQ2MQTT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("THINQ2MQTT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("thinq2mqtt")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func resolvePushBroker(cfg *config.Config, client *thinqapi.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ThinQ.Timeout())
	defer cancel()
	route, err := client.FetchRoute(ctx)
	if err != nil {
		return err
	}
	host, port, err := route.MQTTBroker()
	if err != nil {
		return err
	}
	cfg.Push.Host = host
	cfg.Push.Port = port
	return nil
}

func pushActorProvider(cfg *config.Config, logger *zap.Logger) actor.PushActorProvider {
	if !cfg.Push.Enable {
		return nil
	}
	return func() *adactor.PushActor {
		return adactor.NewPushActor(cfg, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	if !cfg.MQTT.Enable {
		return nil
	}
	return func(eventStream *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, eventStream, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	// secrets and endpoints are env-only unless a config file sets them
	for _, key := range []string{
		"thinq.access_token", "thinq.country", "thinq.client_id", "thinq.api_key", "thinq.base_url",
		"push.host", "push.topic", "push.client_id", "push.ca_file", "push.cert_file", "push.key_file",
		"mqtt.host", "mqtt.username", "mqtt.password",
	} {
		viper.SetDefault(key, "")
	}
	viper.SetDefault("thinq.timeout_millis", 15000)
	viper.SetDefault("thinq.bootstrap", true)
	viper.SetDefault("push.enable", false)
	viper.SetDefault("push.port", 8883)
	viper.SetDefault("mqtt.enable", true)
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "thinq")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("dispatcher.pending_capacity", 64)
	viper.SetDefault("dispatcher.pending_window_millis", 30000)
	viper.SetDefault("dispatcher.stale_after_seconds", 900)
	viper.SetDefault("control.timeout_millis", 10000)
	viper.SetDefault("port", 8080)
}
