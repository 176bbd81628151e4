package relay

import (
	"sync"
	"time"

	"musicquiz/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Sweeper 周期性回收没有收到断开通知的残留连接。
// 这是保底手段，常规清理由传输层的断开回调完成。
type Sweeper struct {
	coord     *Coordinator
	interval  time.Duration
	idleAfter time.Duration
	stop      chan struct{}
	wg        sync.WaitGroup
	now       func() time.Time
}

func NewSweeper(coord *Coordinator, interval, idleAfter time.Duration) *Sweeper {
	return &Sweeper{
		coord:     coord,
		interval:  interval,
		idleAfter: idleAfter,
		stop:      make(chan struct{}),
		now:       time.Now,
	}
}

func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop 停止清扫 goroutine，用于优雅停服。
func (s *Sweeper) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

// sweepOnce 驱逐加入时间超过闲置阈值的连接，复用与显式 leave
// 相同的移除路径，对并发中已消失的连接保持容忍。
func (s *Sweeper) sweepOnce() int {
	now := s.now()
	evicted := 0
	for _, conn := range s.coord.reg.Snapshot() {
		if now.Sub(conn.JoinedAt) < s.idleAfter {
			continue
		}
		if s.coord.evict(conn.ID, "sweep") {
			s.coord.tr.Close(conn.ID)
			evicted++
			metrics.SweepEvictions.Inc()
		}
	}
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Msg("sweeper reclaimed stale connections")
	}
	return evicted
}
