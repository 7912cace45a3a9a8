// Command todo-events tails the to-do lifecycle topic and logs each event.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"

	"todoapp/internal/events"
	"todoapp/internal/logging"
)

func main() {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	viper.SetDefault("KAFKA_GROUP_ID", "todo-events")

	broker := viper.GetString("KAFKA_BROKER")
	topic := viper.GetString("KAFKA_TOPIC")
	if broker == "" || topic == "" {
		log.Fatal("KAFKA_BROKER and KAFKA_TOPIC are required")
	}

	logger := logging.New(os.Stdout, viper.GetString("LOG_LEVEL"), viper.GetString("LOG_FORMAT"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: viper.GetString("KAFKA_GROUP_ID"),
	})
	defer r.Close()

	logger.Info("consuming", "broker", broker, "topic", topic)
	for {
		m, err := r.ReadMessage(ctx)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			logger.Error("read message", "err", err)
			continue
		}

		var event events.Event
		if err := json.Unmarshal(m.Value, &event); err != nil {
			logger.Warn("malformed event", "offset", m.Offset, "err", err)
			continue
		}

		fields := []any{"action", event.Action, "at", event.At, "offset", m.Offset}
		if event.ID != nil {
			fields = append(fields, "id", event.ID.String())
		}
		if event.Count > 0 {
			fields = append(fields, "count", event.Count)
		}
		logger.Info("event", fields...)
	}
}
