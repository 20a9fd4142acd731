// Package kafkaconsumer runs the sarama consumer group that feeds
// reference-data reload events to the store reloader.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/MTES-MCT/envergo/internal/invalidation"
	mylog "github.com/MTES-MCT/envergo/internal/logger"
	"github.com/MTES-MCT/envergo/internal/observability"
)

// Reloader swaps the reference-data snapshot after a change event.
type Reloader interface {
	Reload(ctx context.Context, ev invalidation.Event) error
}

type Consumer struct {
	cfg      Config
	logger   *slog.Logger
	reloader Reloader
	zlog     *zerolog.Logger
}

func New(cfg Config, logger *slog.Logger, reloader Reloader) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:      cfg,
		logger:   logger,
		reloader: reloader,
	}
}

// Start consumes reference-data events until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.reloader == nil {
		return errors.New("kafkaconsumer: missing reloader")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	base := mylog.WithComponent(context.Background(), "refdata_consumer")
	zl := mylog.Build(mylog.Config{Level: "info", Component: "refdata_consumer"}, nil)
	c.zlog = mylog.FromContext(base, &zl)

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("refdata invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("refdata invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				c.zlog.Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("kafka consumer error")
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single change-event message.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()

	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.ObserveReload("decode", time.Since(start), err)
		mylog.FromContext(ctx, c.zlog).Error().
			Str("kind", "decode").
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("refdata event error")
		return fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		observability.ObserveReload(ev.Op, time.Since(start), err)
		c.logger.Warn("invalid refdata event (skipping)", "err", err)
		return nil
	}

	err := c.reloader.Reload(ctx, ev)
	observability.ObserveReload(ev.Op, time.Since(start), err)
	if err != nil {
		mylog.FromContext(ctx, c.zlog).Error().
			Str("kind", "reload").
			Str("map_type", ev.MapType).
			Str("op", ev.Op).
			Msg("refdata event error")
		return fmt.Errorf("reload snapshot: %w", err)
	}

	mylog.FromContext(ctx, c.zlog).Info().
		Str("event", "refdata_reload").
		Str("op", ev.Op).Str("map_type", ev.MapType).
		Str("department", ev.Department).
		Msg("reference data reloaded")

	c.logger.Debug("reference data reloaded",
		"map_type", ev.MapType, "op", ev.Op, "took", time.Since(start))
	return nil
}
