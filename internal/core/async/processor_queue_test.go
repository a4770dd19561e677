package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

type fakeExtractor struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeExtractor) ExtractMetadata(ctx context.Context, doc entity.InvoiceDocument) (entity.ExtractionResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if doc.Content == "" {
		return entity.ExtractionResult{}, common.NewInvalidInputError("document content is empty")
	}
	return entity.ExtractionResult{
		DocumentID:       doc.SourceID,
		Metadata:         entity.NewExtractedMetadata(),
		ExtractionMethod: constants.MethodFallback,
	}, nil
}

type collectingSink struct {
	mu      sync.Mutex
	results map[string]entity.ExtractionResult
	errs    []error
	traces  []string
}

func (s *collectingSink) Handle(ctx context.Context, job Job, res entity.ExtractionResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		s.results = map[string]entity.ExtractionResult{}
	}
	s.traces = append(s.traces, common.RequestIDFromContext(ctx))
	if err != nil {
		s.errs = append(s.errs, err)
		return
	}
	s.results[res.DocumentID] = res
}

func TestProcessorQueueProcessesAllJobs(t *testing.T) {
	ext := &fakeExtractor{delay: time.Millisecond}
	sink := &collectingSink{}
	q := NewProcessorQueue(ext, sink, nil, WithWorkers(3), WithQueueSize(2))

	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), Job{
			Document: entity.InvoiceDocument{Content: "Rechnung " + id, SourceID: id},
			TraceID:  "trace-" + id,
		}))
	}
	require.NoError(t, q.Enqueue(context.Background(), Job{Document: entity.InvoiceDocument{SourceID: "empty"}}))
	q.Shutdown(context.Background())

	assert.EqualValues(t, len(ids)+1, ext.calls.Load())
	assert.Len(t, sink.results, len(ids))
	require.Len(t, sink.errs, 1)
	assert.True(t, errors.Is(sink.errs[0], common.ErrInvalidInput))
	assert.Contains(t, sink.traces, "trace-c")
}

func TestProcessorQueueRejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeExtractor{}, nil, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Document: entity.InvoiceDocument{Content: "x"}})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessorQueueEnqueueHonorsContext(t *testing.T) {
	block := make(chan struct{})
	slow := &blockingExtractor{release: block, started: make(chan struct{})}
	var handled atomic.Int32
	sink := SinkFunc(func(context.Context, Job, entity.ExtractionResult, error) { handled.Add(1) })
	q := NewProcessorQueue(slow, sink, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(block)
		q.Shutdown(context.Background())
		assert.EqualValues(t, 2, handled.Load())
	}()

	doc := entity.InvoiceDocument{Content: "x"}
	require.NoError(t, q.Enqueue(context.Background(), Job{Document: doc}))
	<-slow.started // worker holds the first job
	require.NoError(t, q.Enqueue(context.Background(), Job{Document: doc}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Document: doc})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingExtractor struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingExtractor) ExtractMetadata(ctx context.Context, doc entity.InvoiceDocument) (entity.ExtractionResult, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return entity.ExtractionResult{}, nil
}
