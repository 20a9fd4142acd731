package kafkaconsumer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/MTES-MCT/envergo/internal/logger"
)

type messageProcessor func(context.Context, *sarama.ConsumerMessage) error

// groupHandler drives one claim. A message is committed only after its
// reload completed, so a crash mid-reload replays the event instead of
// losing it; reloads are idempotent snapshot swaps.
type groupHandler struct {
	process messageProcessor
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := logger.WithComponent(sess.Context(), "refdata_consumer")
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("refdata claim closed: %w", ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("refdata event at %s/%d@%d: %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}
