package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubmitAndWaitSucceeds(t *testing.T) {
	q := New(2, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	var ran int32
	id, err := q.Submit(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, Normal)
	require.NoError(t, err)

	status, err := q.Wait(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, status)
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestSubmitBeforeStartFails(t *testing.T) {
	q := New(1, 10, 0)
	_, err := q.Submit(func(ctx context.Context) error { return nil }, Normal)
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestFailedTaskReportsStatusFailed(t *testing.T) {
	q := New(1, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	id, err := q.Submit(func(ctx context.Context) error {
		return errBoom
	}, Normal)
	require.NoError(t, err)

	status, err := q.Wait(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, status)
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	q := New(1, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	panicID, err := q.Submit(func(ctx context.Context) error {
		panic("boom")
	}, Normal)
	require.NoError(t, err)

	status, err := q.Wait(context.Background(), panicID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, status)

	var ran int32
	okID, err := q.Submit(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, Normal)
	require.NoError(t, err)

	status, err = q.Wait(context.Background(), okID)
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, status, "the worker must keep processing tasks after a panic")
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestHighPriorityPreferredOverNormal(t *testing.T) {
	q := New(1, 10, 0)
	// Single worker, so no task runs until Start; submit both before
	// giving the worker a chance to drain, then verify High finishes first.
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	var order []string
	done := make(chan struct{})
	block := make(chan struct{})

	// Occupy the single worker so both submissions queue up first.
	_, err := q.Submit(func(ctx context.Context) error {
		<-block
		return nil
	}, Normal)
	require.NoError(t, err)

	normalID, err := q.Submit(func(ctx context.Context) error {
		order = append(order, "normal")
		return nil
	}, Normal)
	require.NoError(t, err)

	highID, err := q.Submit(func(ctx context.Context) error {
		order = append(order, "high")
		return nil
	}, High)
	require.NoError(t, err)

	close(block)
	go func() {
		q.Wait(context.Background(), normalID)
		q.Wait(context.Background(), highID)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not complete in time")
	}

	require.Equal(t, []string{"high", "normal"}, order)
}

func TestSubmitDropsOldestNormalWhenFull(t *testing.T) {
	q := New(1, 2, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	block := make(chan struct{})
	_, err := q.Submit(func(ctx context.Context) error { <-block; return nil }, Normal)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return q.QueueLength() == 0 }, time.Second, time.Millisecond,
		"the worker must pick up the blocking task before the capacity check below is meaningful")

	firstID, err := q.Submit(func(ctx context.Context) error { return nil }, Normal)
	require.NoError(t, err)
	_, err = q.Submit(func(ctx context.Context) error { return nil }, Normal)
	require.NoError(t, err)

	// Queue (excluding the running task) is now at capacity 2; one more
	// submission should drop the oldest queued normal task.
	_, err = q.Submit(func(ctx context.Context) error { return nil }, Normal)
	require.NoError(t, err)

	close(block)

	status, err := q.Wait(context.Background(), firstID)
	require.NoError(t, err)
	require.Equal(t, StatusDropped, status)
}

func TestDrainWaitsForQueueToEmpty(t *testing.T) {
	q := New(2, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	for i := 0; i < 5; i++ {
		_, err := q.Submit(func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		}, Normal)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
	require.Equal(t, 0, q.QueueLength())
}

func TestStatusUnknownTaskErrors(t *testing.T) {
	q := New(1, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	_, err := q.Status(TaskID("does-not-exist"))
	require.ErrorIs(t, err, ErrUnknownTask)
}

func TestCancelSkipsInvocation(t *testing.T) {
	q := New(1, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	block := make(chan struct{})
	_, err := q.Submit(func(ctx context.Context) error { <-block; return nil }, Normal)
	require.NoError(t, err)

	var ran int32
	id, err := q.Submit(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, Normal)
	require.NoError(t, err)

	require.NoError(t, q.Cancel(id))

	close(block)
	status, err := q.Wait(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, status)
	require.Equal(t, int32(0), atomic.LoadInt32(&ran), "a cancelled task must never run")
}

func TestCancelUnknownTaskErrors(t *testing.T) {
	q := New(1, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	require.ErrorIs(t, q.Cancel(TaskID("does-not-exist")), ErrUnknownTask)
}

func TestCancelAfterCompletionIsRejected(t *testing.T) {
	q := New(1, 10, 0)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	id, err := q.Submit(func(ctx context.Context) error { return nil }, Normal)
	require.NoError(t, err)
	_, err = q.Wait(context.Background(), id)
	require.NoError(t, err)

	require.ErrorIs(t, q.Cancel(id), ErrNotCancelable)
}

func TestQueuedTaskExpiresPastTTL(t *testing.T) {
	q := New(1, 10, 5*time.Millisecond)
	require.NoError(t, q.Start(context.Background()))
	defer q.Shutdown(context.Background())

	block := make(chan struct{})
	_, err := q.Submit(func(ctx context.Context) error { <-block; return nil }, Normal)
	require.NoError(t, err)

	var ran int32
	id, err := q.Submit(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, Normal)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	close(block)

	status, err := q.Wait(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, status)
	require.Equal(t, int32(0), atomic.LoadInt32(&ran), "an expired task must never run")
}

var errBoom = &boomError{}

type boomError struct{}

func (e *boomError) Error() string { return "boom" }
