package engine

import (
	"testing"
	"time"
)

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	results := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() { results <- i })
	}

	for i := 0; i < 3; i++ {
		select {
		case got := <-results:
			if got != i {
				t.Errorf("task %d ran out of order, got %d", i, got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for posted task")
		}
	}
}

func TestLoopScheduleFiresAfterDelay(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	fired := make(chan struct{})
	l.Schedule(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never fired")
	}
}

func TestLoopScheduleCancel(t *testing.T) {
	l := NewLoop()
	go l.Run()
	defer l.Stop()

	fired := make(chan struct{})
	cancel := l.Schedule(20*time.Millisecond, func() { close(fired) })
	cancel()

	select {
	case <-fired:
		t.Fatal("cancelled task fired anyway")
	case <-time.After(50 * time.Millisecond):
	}
}
