package api

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/safe"
)

const beaconTimeout = 10 * time.Second

type beaconItem struct {
	url     string
	payload []byte
}

// beaconWorker 即发即弃的后台投递
// 不附加鉴权与会话头，入队即视为接受
type beaconWorker struct {
	rc     *resty.Client
	queue  chan beaconItem
	logger corelog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func newBeaconWorker(hc *http.Client, size int, logger corelog.Logger) *beaconWorker {
	rc := resty.New()
	if hc != nil {
		rc = resty.NewWithClient(hc)
	}
	rc.SetTimeout(beaconTimeout)

	w := &beaconWorker{
		rc:     rc,
		queue:  make(chan beaconItem, size),
		logger: logger,
		done:   make(chan struct{}),
	}
	safe.Go("beacon", w.loop)
	return w
}

// SendBeacon 投递 JSON 载荷，队列已满或已关闭时返回 false
func (c *Client) SendBeacon(url string, payload []byte) bool {
	return c.beacon.enqueue(url, payload)
}

func (w *beaconWorker) enqueue(url string, payload []byte) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	item := beaconItem{url: url, payload: bytes.Clone(payload)}
	select {
	case w.queue <- item:
		return true
	default:
		return false
	}
}

func (w *beaconWorker) loop() {
	defer close(w.done)
	for item := range w.queue {
		w.post(item)
	}
}

func (w *beaconWorker) post(item beaconItem) {
	ctx, cancel := context.WithTimeout(context.Background(), beaconTimeout)
	defer cancel()

	resp, err := w.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(item.payload).
		Post(item.url)
	if err != nil {
		w.logger.Debugf("beacon: post %s failed: %v", item.url, err)
		return
	}
	if resp.IsError() {
		w.logger.Debugf("beacon: post %s returned %d", item.url, resp.StatusCode())
	}
}

// close 停止接收并等待队列中的投递完成
func (w *beaconWorker) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	<-w.done
}
