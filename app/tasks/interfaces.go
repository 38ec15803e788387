package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Tasks for the same project always run on the same worker, one at a time,
// so publish runs for a project never overlap.
//
//	scheduler := NewScheduler(4)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewPublishTask(projectConfig, buildRepo))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
