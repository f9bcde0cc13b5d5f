package benchmarks

import (
	"sync"
	"testing"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"

	jobsystem "github.com/takoengine/jobsystem"
)

const sleepDuration = time.Duration(BenchParam) * time.Millisecond

// BenchmarkGammaZeroWorkerPool is the teacher's second comparison
// baseline: gammazero/workerpool submitting the same fixed-duration
// workload.
func BenchmarkGammaZeroWorkerPool(b *testing.B) {
	var wg sync.WaitGroup
	p := workerpool.New(PoolSize)
	defer p.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wg.Add(RunTimes)
		for j := 0; j < RunTimes; j++ {
			p.Submit(func() {
				time.Sleep(sleepDuration)
				wg.Done()
			})
		}
		wg.Wait()
	}
	b.StopTimer()
}

// BenchmarkAntsPoolWithFunc exercises ants' invoke-with-argument API,
// mirroring the teacher's PoolWithFunc comparison.
func BenchmarkAntsPoolWithFunc(b *testing.B) {
	var wg sync.WaitGroup
	p, _ := ants.NewPoolWithFunc(PoolSize, func(args any) {
		time.Sleep(args.(time.Duration))
		wg.Done()
	}, ants.WithExpiryDuration(DefaultExpiredTime))
	defer p.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wg.Add(RunTimes)
		for j := 0; j < RunTimes; j++ {
			_ = p.Invoke(sleepDuration)
		}
		wg.Wait()
	}
	b.StopTimer()
}

// BenchmarkJobSystemScheduleValue exercises ScheduleValue's typed-capture
// path, where the value is bound to the Job instead of being captured by
// the submitted function.
func BenchmarkJobSystemScheduleValue(b *testing.B) {
	sched := jobsystem.New(jobsystem.WithWorkers(4), jobsystem.WithPoolCapacity(2*PoolSize))
	sched.Init()
	defer sched.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sched.RunJob(func(ctx *jobsystem.JobContext) {
			for j := 0; j < RunTimes; j++ {
				jobsystem.ScheduleValue(ctx, sleepDuration, func(d time.Duration, ctx *jobsystem.JobContext) {
					time.Sleep(d)
				})
			}
		})
	}
	b.StopTimer()
}
