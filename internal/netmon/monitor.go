// File: internal/netmon/monitor.go
package netmon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

// State is the monitor's view of remote-store connectivity.
type State int

const (
	StateUnknown State = iota
	StateOnline
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Prober performs a real read against the remote tier. Passive
// connectivity signals both false-positive and false-negative in this
// domain, so state transitions are driven by active probes only.
type Prober interface {
	Probe(ctx context.Context) error
}

// CredentialRefresher is invoked on an Offline -> Online transition, where
// cached provider tokens may have expired during the outage.
type CredentialRefresher interface {
	RefreshCredentials(ctx context.Context) error
}

// Monitor owns the Unknown -> Online <-> Offline state machine. Probes run
// on a fixed cron schedule; ProbeNow lets callers hint that a probe should
// happen sooner, without being treated as ground truth.
type Monitor struct {
	prober    Prober
	refresher CredentialRefresher
	logger    *zap.Logger
	cfg       *config.Config
	scheduler *cron.Cron

	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// NewMonitor creates the monitor. The refresher may be nil.
func NewMonitor(
	cfg *config.Config,
	prober Prober,
	refresher CredentialRefresher,
	logger *zap.Logger,
) *Monitor {
	named := logger.Named("NetworkMonitor")
	scheduler := cron.New(cron.WithLogger(NewCronLogger(named.Named("cron"))))
	return &Monitor{
		prober:    prober,
		refresher: refresher,
		logger:    named,
		cfg:       cfg,
		scheduler: scheduler,
		state:     StateUnknown,
		subs:      make(map[int]chan State),
	}
}

// SetupAndStart schedules the interval probe and starts the scheduler.
func (m *Monitor) SetupAndStart() error {
	spec := m.cfg.NetworkProbeSchedule
	if spec == "" {
		m.logger.Warn("Network probe schedule not defined (NETWORK_PROBE_SCHEDULE). Monitor will only probe on demand.")
		return nil
	}

	entryID, err := m.scheduler.AddFunc(spec, m.runProbeJob)
	if err != nil {
		m.logger.Error("Failed to schedule network probe", zap.String("spec", spec), zap.Error(err))
		return err
	}

	m.logger.Info("Network probe scheduled", zap.String("spec", spec), zap.Any("entryID", entryID))
	m.scheduler.Start()
	return nil
}

func (m *Monitor) runProbeJob() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.NetworkProbeTimeout)
	defer cancel()
	m.ProbeNow(ctx)
}

// ProbeNow runs one probe and returns the resulting state. Also serves the
// explicit "online hint" endpoint: the hint makes us probe sooner, the
// probe result is what moves the state machine.
func (m *Monitor) ProbeNow(ctx context.Context) State {
	err := m.prober.Probe(ctx)

	newState := StateOnline
	if err != nil {
		newState = StateOffline
	}

	m.mu.Lock()
	old := m.state
	m.state = newState
	var notify []chan State
	if old != newState {
		for _, ch := range m.subs {
			notify = append(notify, ch)
		}
	}
	m.mu.Unlock()

	if old != newState {
		if err != nil {
			m.logger.Warn("Network state transition",
				zap.String("from", old.String()), zap.String("to", newState.String()), zap.Error(err))
		} else {
			m.logger.Info("Network state transition",
				zap.String("from", old.String()), zap.String("to", newState.String()))
		}

		if old == StateOffline && newState == StateOnline && m.refresher != nil {
			if rerr := m.refresher.RefreshCredentials(ctx); rerr != nil {
				m.logger.Warn("Credential refresh after reconnect failed", zap.Error(rerr))
			}
		}

		for _, ch := range notify {
			select {
			case ch <- newState:
			default:
				// Subscriber is behind; the next transition will reach it.
			}
		}
	}

	return newState
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel receiving state transitions and a cancel
// function that must be called on teardown.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
	return ch, cancel
}

// Stop tears the scheduler down so no probes leak past shutdown.
func (m *Monitor) Stop() {
	if m.scheduler == nil {
		return
	}
	m.logger.Info("Stopping network monitor scheduler...")
	stopCtx := m.scheduler.Stop()
	select {
	case <-stopCtx.Done():
		m.logger.Info("Network monitor scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		m.logger.Warn("Network monitor scheduler stop timed out.")
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
