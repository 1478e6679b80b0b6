package actorutil

import (
	"log/slog"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/mqtt"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToWrite turns a text command into a typed write. Unknown
// resources and properties pass through untouched so the command builder
// reports them. The location is matched by the command builder.
func ParsedMQTTCommandToWrite(p *profile.DeviceProfile, cmd mqtt.ParsedMQTTCommand) (profile.Write, error) {
	w := profile.Write{
		Resource: cmd.Resource,
		Property: cmd.Property,
		Location: cmd.Location,
		Value:    cmd.Payload,
	}
	res, _, ok := p.Resource(cmd.Resource)
	if !ok {
		return w, nil
	}
	prop, ok := res.Property(cmd.Property)
	if !ok {
		return w, nil
	}
	v, err := profile.CoerceText(prop, cmd.Payload)
	if err != nil {
		return w, err
	}
	w.Value = v
	return w, nil
}
