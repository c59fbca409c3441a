package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discipline-service/internal/model"
	"discipline-service/internal/service"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	done      chan struct{}
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	close(r.done)
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	inputs   []service.CreateViolationInput
	failures int // negative fails forever
	attempts int
}

func (f *fakeRecorder) Ingest(_ context.Context, input service.CreateViolationInput) (*model.ViolationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return nil, errors.New("connection reset")
	}
	if input.EmployeeName == "" {
		return nil, service.ErrInvalidInput
	}
	for _, existing := range f.inputs {
		if existing.ID == input.ID {
			return &model.ViolationRecord{ID: input.ID, EmployeeID: input.EmployeeID, Type: input.Type}, nil
		}
	}
	f.inputs = append(f.inputs, input)
	return &model.ViolationRecord{ID: input.ID, EmployeeID: input.EmployeeID, Type: input.Type}, nil
}

func (f *fakeRecorder) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func runConsumer(t *testing.T, reader *fakeReader, recorder *fakeRecorder) {
	t.Helper()
	consumer := newConsumer(reader, recorder, zerolog.Nop())
	consumer.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(ctx) }()

	select {
	case <-reader.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain messages")
	}
	cancel()
	require.NoError(t, <-errCh)
	assert.True(t, reader.closed)
}

func TestConsumerStoresAndCommits(t *testing.T) {
	reader := &fakeReader{done: make(chan struct{}), messages: []kafka.Message{
		{Offset: 1, Value: []byte(`{"employee_id":"E001","employee_name":"张三","type":"late","occurred_at":"2024-01-02T09:00:00+08:00"}`)},
		{Offset: 2, Value: []byte(`not json`)},
		{Offset: 3, Value: []byte(`{"employee_id":"E002","type":"late","occurred_at":"2024-01-02T09:00:00Z"}`)},
		{Offset: 4, Value: []byte(`{"employee_id":"E003","employee_name":"王五","type":"absent","occurred_at":"2024-01-03T09:00:00Z"}`)},
	}}
	recorder := &fakeRecorder{failures: 1}

	runConsumer(t, reader, recorder)

	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)
	require.Len(t, recorder.inputs, 2)
	assert.Equal(t, "E001", recorder.inputs[0].EmployeeID)
	assert.Equal(t, "E003", recorder.inputs[1].EmployeeID)
}

const validMessage = `{"employee_id":"E001","employee_name":"张三","type":"late","occurred_at":"2024-01-02T09:00:00Z"}`

func TestConsumerRetriesUntilStored(t *testing.T) {
	reader := &fakeReader{done: make(chan struct{}), messages: []kafka.Message{
		{Topic: "employee-violations", Offset: 7, Value: []byte(validMessage)},
	}}
	recorder := &fakeRecorder{failures: 5}

	runConsumer(t, reader, recorder)

	assert.Equal(t, 6, recorder.attempts)
	require.Len(t, recorder.inputs, 1)
	assert.Equal(t, []int64{7}, reader.committed)
}

func TestConsumerKeepsOffsetWhileStoreFails(t *testing.T) {
	reader := &fakeReader{done: make(chan struct{}), messages: []kafka.Message{
		{Topic: "employee-violations", Offset: 7, Value: []byte(validMessage)},
	}}
	recorder := &fakeRecorder{failures: -1}
	consumer := newConsumer(reader, recorder, zerolog.Nop())
	consumer.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool { return recorder.attemptCount() > 5 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	assert.Empty(t, recorder.inputs)
	assert.Empty(t, reader.committed)
	assert.True(t, reader.closed)
}

func TestConsumerStoresRedeliveryOnce(t *testing.T) {
	msg := kafka.Message{Topic: "employee-violations", Partition: 2, Offset: 5, Value: []byte(validMessage)}
	reader := &fakeReader{done: make(chan struct{}), messages: []kafka.Message{msg, msg}}
	recorder := &fakeRecorder{}

	runConsumer(t, reader, recorder)

	require.Len(t, recorder.inputs, 1)
	assert.Equal(t, RecordID(msg), recorder.inputs[0].ID)
	assert.Equal(t, []int64{5, 5}, reader.committed)
}

func TestRecordIDIsStablePerOffset(t *testing.T) {
	a := kafka.Message{Topic: "employee-violations", Partition: 0, Offset: 1}
	b := kafka.Message{Topic: "employee-violations", Partition: 0, Offset: 2}
	c := kafka.Message{Topic: "employee-violations", Partition: 1, Offset: 1}

	assert.Equal(t, RecordID(a), RecordID(a))
	assert.NotEqual(t, RecordID(a), RecordID(b))
	assert.NotEqual(t, RecordID(a), RecordID(c))
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	consumer := newConsumer(&fakeReader{}, &fakeRecorder{}, zerolog.Nop())

	assert.Equal(t, retryBackoff, consumer.retryDelay(1))
	assert.Equal(t, 2*retryBackoff, consumer.retryDelay(2))
	assert.Equal(t, maxRetryBackoff, consumer.retryDelay(50))
}

func TestDecode(t *testing.T) {
	input, err := Decode([]byte(`{"employee_id":"E001","employee_name":"张三","department_id":"5b7a8f2e-8a63-4f6b-9d38-0a3c2f9c1a01","type":"late","reason":"迟到","occurred_at":"2024-01-02T09:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "E001", input.EmployeeID)
	require.NotNil(t, input.DepartmentID)
	require.NotNil(t, input.OccurredAt)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), input.OccurredAt.UTC())

	for _, bad := range []string{
		`{}`,
		`{"employee_id":"E001","occurred_at":"yesterday"}`,
		`{"employee_id":"E001","occurred_at":"2024-01-02T09:00:00Z","department_id":"x"}`,
		`[`,
	} {
		_, err := Decode([]byte(bad))
		assert.ErrorIs(t, err, ErrMalformedMessage, bad)
	}
}
