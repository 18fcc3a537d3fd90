package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocraft/internal/service/configurator/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaEventPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaEventPublisher(w)

	cfg := sampleConfiguration("bike", time.Now().UTC())
	require.NoError(t, p.PublishConfigurationCreated(context.Background(), domain.NewConfigurationCreated(cfg, "trace-1")))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, cfg.ID, string(w.msgs[0].Key))

	var evt domain.ConfigurationCreated
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &evt))
	assert.Equal(t, "1073.00", evt.TotalPrice)
	assert.Equal(t, 2, evt.SelectionCount)
	assert.Equal(t, "trace-1", evt.TraceID)

	w.err = errors.New("broker down")
	assert.Error(t, p.PublishConfigurationCreated(context.Background(), domain.NewConfigurationCreated(cfg, "")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNopEventPublisher(t *testing.T) {
	cfg := sampleConfiguration("bike", time.Now().UTC())
	assert.NoError(t, NopEventPublisher{}.PublishConfigurationCreated(context.Background(), domain.NewConfigurationCreated(cfg, "")))
}
