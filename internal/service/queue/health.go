package queue

import (
	"sort"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

// Health 永远返回快照，不返回错误
func (q *Queue) Health() domain.QueueHealth {
	q.mu.Lock()
	res := domain.QueueHealth{
		Lanes: make([]domain.LaneHealth, 0, len(domain.Lanes)+1),
	}
	anyPaused := false
	for _, name := range domain.Lanes {
		ln := q.lanes[name]
		res.Lanes = append(res.Lanes, domain.LaneHealth{
			Lane:     name,
			Depth:    ln.depth(),
			InFlight: ln.inFlight,
			Paused:   ln.paused,
		})
		res.Backlog += ln.depth()
		res.InFlight += ln.inFlight
		anyPaused = anyPaused || ln.paused
	}
	res.Lanes = append(res.Lanes, domain.LaneHealth{
		Lane:  domain.LaneDeadLetter,
		Depth: len(q.dead),
	})
	q.mu.Unlock()

	if q.failure != nil {
		res.FailureRate = q.failure.FailureRate(q.cfg.FailureRateWindow)
	}
	res.Status = q.cfg.evaluate(anyPaused, res.FailureRate, res.Backlog)
	return res
}

func (c Config) evaluate(anyPaused bool, failureRate float64, backlog int) domain.HealthStatus {
	switch {
	case anyPaused, failureRate > c.UnhealthyFailureRate, backlog > c.UnhealthyBacklog:
		return domain.HealthStatusUnhealthy
	case failureRate > c.DegradedFailureRate, backlog > c.DegradedBacklog:
		return domain.HealthStatusDegraded
	default:
		return domain.HealthStatusHealthy
	}
}

func sortJobs(jobs []domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].ID < jobs[j].ID
	})
}
