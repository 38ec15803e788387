package tasks

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize   = 100
	taskTimeout = 5 * time.Minute
)

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	queues []chan TaskInterface
}

func NewScheduler(workerCount int) *Scheduler {
	if workerCount < 1 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	queues := make([]chan TaskInterface, workerCount)
	for i := range queues {
		queues[i] = make(chan TaskInterface, queueSize)
	}

	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		queues: queues,
	}
}

func (s *Scheduler) Start() {
	for i := range s.queues {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop cancels running tasks and waits for the workers to exit. Queued
// tasks are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	queue := s.queues[s.shard(task.GetProject())]

	select {
	case queue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) shard(project string) int {
	h := fnv.New32a()
	h.Write([]byte(project))
	return int(h.Sum32() % uint32(len(s.queues)))
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.queues[id]:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "project", task.GetProject(), "error", err)
	}
}
