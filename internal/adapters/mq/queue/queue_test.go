package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/skinlens/internal/domain/model"
)

func job(id string) Job {
	return Job{ID: id, Photo: model.Photo{Filename: id + ".jpg", Data: []byte(id)}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job("job1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "job1" {
		t.Errorf("expected job1, got %v", got.ID)
	}
	if got.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
	if got.Photo.Filename != "job1.jpg" {
		t.Errorf("expected photo to travel with the job, got %q", got.Photo.Filename)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("job1")) || !q.Enqueue(ctx, job("job2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job("job3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_PushWaitsForRoom(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1), WithRetryDelay(time.Millisecond))
	ctx := context.Background()

	if err := q.Push(ctx, job("job1")); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Push(ctx, job("job2")) }()

	select {
	case err := <-done:
		t.Fatalf("push returned before room was made: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	jobs := q.Dequeue(ctx)
	if first := <-jobs; first.ID != "job1" {
		t.Errorf("expected job1 first, got %s", first.ID)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected push error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("push did not complete after room was made")
	}
	if second := <-jobs; second.ID != "job2" {
		t.Errorf("expected job2 second, got %s", second.ID)
	}
}

func TestInMemoryQueue_PushStops(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1), WithRetryDelay(time.Millisecond))
	_ = q.Enqueue(context.Background(), job("job1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Push(ctx, job("job2")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}

	_ = q.Close()
	if err := q.Push(context.Background(), job("job3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16), WithRetryDelay(time.Millisecond))
	ctx := context.Background()
	producers, perProducer := 8, 25

	var consumed sync.Map
	var wg sync.WaitGroup
	jobs := q.Dequeue(ctx)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for j := range jobs {
			consumed.Store(j.ID, true)
		}
	}()

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Push(ctx, job(fmt.Sprintf("job%d_%d", p, i))); err != nil {
					t.Errorf("push failed: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()
	<-consumerDone

	count := 0
	consumed.Range(func(_, _ any) bool { count++; return true })
	if count != producers*perProducer {
		t.Errorf("expected %d consumed jobs, got %d", producers*perProducer, count)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	_ = q.Enqueue(ctx, job("job1"))
	_ = q.Enqueue(ctx, job("job2"))

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job("job3")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Queued jobs drain before the channel closes.
	var drained []string
	timeout := time.After(time.Second)
	jobs := q.Dequeue(ctx)
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				if len(drained) != 2 {
					t.Errorf("expected 2 drained jobs, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, j.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
