// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"
	"time"

	"bass/internal/analysis"
	applog "bass/internal/log"
)

// DefaultInterval is used when a non-positive interval is configured (~30Hz).
const DefaultInterval = 33 * time.Millisecond

// PublisherConfig wires a Publisher to its sources. Spectrum is optional;
// without it frames carry no bands or magnitudes.
type PublisherConfig struct {
	Interval time.Duration
	Meter    MeterSource
	Params   ParamSource
	Spectrum analysis.FFTResultProvider
}

// Publisher periodically samples the meters, builds a Frame and sends it to
// every transport. Gate direction changes are sent as events after the
// frame. It runs in its own goroutine managed by Start and Stop.
type Publisher struct {
	cfg        PublisherConfig
	transports []Transport

	bands   *analysis.BandEnergyProcessor
	watcher analysis.GateWatcher

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	// Pre-allocated buffers for the spectrum copy.
	magBuffer []float64
	f32Buffer []float32

	now func() time.Time
}

// NewPublisher validates cfg and preallocates the spectrum buffers.
func NewPublisher(cfg PublisherConfig, transports ...Transport) (*Publisher, error) {
	if cfg.Meter == nil {
		return nil, errors.New("publisher: meter source cannot be nil")
	}
	if cfg.Params == nil {
		return nil, errors.New("publisher: param source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, errors.New("publisher: at least one transport is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", cfg.Interval)
	}

	p := &Publisher{
		cfg:        cfg,
		transports: transports,
		now:        time.Now,
	}

	if cfg.Spectrum != nil {
		bands, err := analysis.NewBandEnergyProcessor(cfg.Spectrum, nil)
		if err != nil {
			return nil, err
		}
		p.bands = bands
		p.magBuffer = make([]float64, cfg.Spectrum.Bins())
		p.f32Buffer = make([]float32, cfg.Spectrum.Bins())
	}

	applog.Infof("Publisher: Initializing (Interval: %s, Transports: %d, Spectrum bins: %d)",
		cfg.Interval, len(transports), len(p.magBuffer))
	return p, nil
}

// Start launches the ticker goroutine. Calling Start on a running publisher is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.cfg.Interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Local copies so the goroutine never reads p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("Publisher: Goroutine started (Interval: %s)", p.cfg.Interval)
		for {
			select {
			case <-ticker.C:
				p.Publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("Publisher: Goroutine finished after %d frames.", p.sequenceNum)
	return nil
}

// Close stops the publisher and closes every transport, returning the
// joined close errors.
func (p *Publisher) Close() error {
	_ = p.Stop()

	var errs []error
	for _, t := range p.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish builds and sends one frame, followed by a gate event when the
// gate changed direction since the previous frame. The ticker goroutine
// calls it; tests may call it directly while the publisher is stopped.
func (p *Publisher) Publish() {
	p.sequenceNum++
	frame := Frame{
		Type:         FrameType,
		Seq:          p.sequenceNum,
		Timestamp:    p.now().UnixNano(),
		MeterReading: p.cfg.Meter.Read(),
		Params:       p.cfg.Params.Snapshot(),
	}

	if p.bands != nil {
		if err := p.cfg.Spectrum.GetMagnitudesInto(p.magBuffer); err != nil {
			applog.Errorf("Publisher: Error getting magnitudes: %v", err)
		} else {
			for i, v := range p.magBuffer {
				p.f32Buffer[i] = float32(v)
			}
			frame.Magnitudes = p.f32Buffer
		}
		if levels, err := p.bands.Process(); err == nil {
			frame.Bands = analysis.LevelMap(levels)
		}
	}

	p.send(frame)

	if event, ok := p.watcher.Observe(frame.Open); ok {
		p.send(event)
	}
}

func (p *Publisher) send(data any) {
	for _, t := range p.transports {
		if err := t.Send(data); err != nil {
			applog.Debugf("Publisher: Send to %T failed: %v", t, err)
		}
	}
}

var _ interface{ Close() error } = (*Publisher)(nil)
