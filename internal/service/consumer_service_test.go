package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"amanai-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderRecorder struct {
	IReportService

	mu    sync.Mutex
	ids   []uuid.UUID
	err   error
	calls chan struct{}
}

func (r *renderRecorder) RenderAndStore(ctx context.Context, id uuid.UUID) (string, error) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	err := r.err
	r.mu.Unlock()
	r.calls <- struct{}{}
	return "/tmp/report.pdf", err
}

func TestConsumerRendersPublishedReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	recorder := &renderRecorder{calls: make(chan struct{}, 4)}
	consumer := NewConsumerService(pubSub, "RENDER_REPORT_PDF", recorder)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("RENDER_REPORT_PDF", pubSub)
	id := uuid.New()
	require.NoError(t, publisher.SendRenderReportMessage(ctx, id))

	select {
	case <-recorder.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("report was not rendered")
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []uuid.UUID{id}, recorder.ids)
}

func TestConsumerAcksPermanentFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	recorder := &renderRecorder{
		calls: make(chan struct{}, 4),
		err:   apperror.NotConfigured("Report font is not available"),
	}
	require.NoError(t, NewConsumerService(pubSub, "RENDER_REPORT_PDF", recorder).Consume(ctx))

	publisher := NewPublisherService("RENDER_REPORT_PDF", pubSub)
	require.NoError(t, publisher.SendRenderReportMessage(ctx, uuid.New()))
	require.NoError(t, publisher.SendRenderReportMessage(ctx, uuid.New()))

	// a nacked message would be redelivered before the second one arrives
	for i := 0; i < 2; i++ {
		select {
		case <-recorder.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("message was not processed")
		}
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.ids, 2)
	assert.NotEqual(t, recorder.ids[0], recorder.ids[1])
}
