// Copyright 2018 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package periodic runs tasks at a fixed period.
package periodic

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hsrprp/hsrprp/pkg/log"
)

// Runner events.
const (
	EventStop    = "stop"
	EventKill    = "kill"
	EventTrigger = "trigger"
)

// Task is a function that is executed periodically.
type Task interface {
	// Run executes the task once. It should return once ctx is done.
	Run(ctx context.Context)
	// Name returns the task name, used for logging and metrics.
	Name() string
}

// Func wraps a function with a name into a Task.
type Func struct {
	Task     func(context.Context)
	TaskName string
}

func (f Func) Run(ctx context.Context) {
	f.Task(ctx)
}

func (f Func) Name() string {
	return f.TaskName
}

// Metrics of a runner. All fields are optional.
type Metrics struct {
	Events    func(string) prometheus.Counter
	Period    prometheus.Gauge
	Runtime   prometheus.Gauge
	StartTime prometheus.Gauge
}

func (m *Metrics) event(e string) {
	if m == nil || m.Events == nil {
		return
	}
	m.Events(e).Inc()
}

func (m *Metrics) setPeriod(p time.Duration) {
	if m == nil || m.Period == nil {
		return
	}
	m.Period.Set(p.Seconds())
}

func (m *Metrics) setRun(start time.Time) {
	if m == nil {
		return
	}
	if m.StartTime != nil {
		m.StartTime.Set(float64(start.UnixNano()) / 1e9)
	}
	if m.Runtime != nil {
		m.Runtime.Set(time.Since(start).Seconds())
	}
}

// NewMetrics creates runner metrics for the named task, registered with reg.
func NewMetrics(reg prometheus.Registerer, task string) *Metrics {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "lre_periodic_events_total",
			Help:        "Total number of events of periodic tasks.",
			ConstLabels: prometheus.Labels{"task": task},
		},
		[]string{"event_type"},
	)
	period := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "lre_periodic_period_seconds",
		Help:        "The period of the periodic task.",
		ConstLabels: prometheus.Labels{"task": task},
	})
	runtime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "lre_periodic_runtime_seconds",
		Help:        "The duration of the last run of the periodic task.",
		ConstLabels: prometheus.Labels{"task": task},
	})
	start := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "lre_periodic_start_timestamp_seconds",
		Help:        "The start time of the last run of the periodic task.",
		ConstLabels: prometheus.Labels{"task": task},
	})
	reg.MustRegister(events, period, runtime, start)
	return &Metrics{
		Events: func(e string) prometheus.Counter {
			return events.WithLabelValues(e)
		},
		Period:    period,
		Runtime:   runtime,
		StartTime: start,
	}
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	metrics      *Metrics
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context passed to the task. The first run
// happens immediately.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, nil, period, timeout)
}

// StartWithMetrics is like Start and additionally records the runner events
// and timings in m.
func StartWithMetrics(task Task, m *Metrics, period, timeout time.Duration) *Runner {
	logger := log.New("debug_id", task.Name())
	ctx, cancelF := context.WithCancel(log.CtxWith(context.Background(), logger))
	r := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metrics:      m,
	}
	logger.Debug("Starting periodic task", "task", task.Name(), "period", period)
	r.metrics.setPeriod(period)
	go func() {
		defer log.HandlePanic()
		r.runLoop()
	}()
	return r
}

// Stop stops the runner and waits for the current run to finish.
func (r *Runner) Stop() {
	close(r.stop)
	<-r.loopFinished
	r.cancelF()
	r.metrics.event(EventStop)
}

// Kill is like Stop but also cancels the context of the current run.
func (r *Runner) Kill() {
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
	r.metrics.event(EventKill)
}

// TriggerRun triggers a run as soon as the current run, if any, finishes. It
// blocks until the run starts or the runner is stopped.
func (r *Runner) TriggerRun() {
	select {
	case <-r.stop:
	case r.trigger <- struct{}{}:
		r.metrics.event(EventTrigger)
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.ticker.Stop()
	r.onTick()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	select {
	case <-r.stop:
		return
	default:
	}
	ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
	defer cancelF()
	start := time.Now()
	r.task.Run(ctx)
	r.metrics.setRun(start)
}
