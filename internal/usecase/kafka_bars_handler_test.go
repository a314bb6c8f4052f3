package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaBarsHandlerDecodesTimestamps(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    time.Time
	}{
		{"date", `{"symbol":"QQQ","date":"2024-05-07","c":440.5}`, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)},
		{"seconds", `{"symbol":"QQQ","t":1715040000,"c":440.5}`, time.Unix(1715040000, 0)},
		{"millis", `{"symbol":"QQQ","t":1715040000000,"c":440.5}`, time.UnixMilli(1715040000000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{}
			h := NewKafkaBarsHandler("inout.bars", sink, newFakeMetrics())
			assert.Equal(t, "inout.bars", h.Topic())

			require.NoError(t, h.Handle(context.Background(), []byte(tc.payload)))
			require.Len(t, sink.bars, 1)
			assert.Equal(t, "QQQ", sink.bars[0].Symbol)
			assert.Equal(t, 440.5, sink.bars[0].Close)
			assert.True(t, tc.want.Equal(sink.bars[0].Time))
		})
	}
}

func TestKafkaBarsHandlerRejectsBadPayload(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaBarsHandler("inout.bars", &recordingSink{}, m)

	assert.Error(t, h.Handle(context.Background(), []byte(`{not json`)))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"symbol":"QQQ","date":"07/05/2024","c":1}`)))
	assert.Equal(t, 2, m.errorCount("consumer_unmarshal"))
}
