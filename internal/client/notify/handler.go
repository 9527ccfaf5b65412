// Package notify 用户可见提示的分发
// 对应页面上的消息提示（成功、警告、错误），由宿主决定如何呈现
package notify

import (
	"reflect"
	"sync"
	"time"

	corelog "werss-client/internal/core/log"
)

// Level 提示级别
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification 一条提示
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Source  string    `json:"source,omitempty"` // 产生提示的模块，如 qrlogin、router
	Time    time.Time `json:"time"`
}

// Handler 提示处理回调接口
type Handler interface {
	OnNotification(n Notification)
}

// HandlerFunc 函数适配器
type HandlerFunc func(n Notification)

func (f HandlerFunc) OnNotification(n Notification) { f(n) }

// DefaultHandler 默认处理器（仅记录日志）
type DefaultHandler struct {
	Logger corelog.Logger
}

func (h *DefaultHandler) OnNotification(n Notification) {
	logger := corelog.OrDefault(h.Logger).WithField("source", n.Source)
	switch n.Level {
	case LevelError:
		logger.Errorf("Client: [NOTIFY] %s", n.Message)
	case LevelWarning:
		logger.Warnf("Client: [NOTIFY] %s", n.Message)
	default:
		logger.Infof("Client: [NOTIFY] %s (%s)", n.Message, n.Level)
	}
}

// Dispatcher 提示分发器
type Dispatcher struct {
	handlers []Handler
	mu       sync.RWMutex
	now      func() time.Time
}

// NewDispatcher 创建提示分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make([]Handler, 0),
		now:      time.Now,
	}
}

// AddHandler 添加处理器
func (d *Dispatcher) AddHandler(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// RemoveHandler 移除处理器，仅支持可比较的处理器（如指针）
func (d *Dispatcher) RemoveHandler(handler Handler) {
	if handler == nil || !reflect.TypeOf(handler).Comparable() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, h := range d.handlers {
		if h == handler {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			return
		}
	}
}

// getHandlers 获取处理器列表的副本
func (d *Dispatcher) getHandlers() []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	result := make([]Handler, len(d.handlers))
	copy(result, d.handlers)
	return result
}

// Dispatch 分发提示，nil 分发器安全
func (d *Dispatcher) Dispatch(n Notification) {
	if d == nil {
		return
	}
	if n.Time.IsZero() {
		n.Time = d.now()
	}
	handlers := d.getHandlers()
	if len(handlers) == 0 {
		corelog.Debugf("Client: no notification handlers registered, dropping %q", n.Message)
		return
	}
	for _, h := range handlers {
		h.OnNotification(n)
	}
}

func (d *Dispatcher) Success(source, message string) {
	d.Dispatch(Notification{Level: LevelSuccess, Source: source, Message: message})
}

func (d *Dispatcher) Warning(source, message string) {
	d.Dispatch(Notification{Level: LevelWarning, Source: source, Message: message})
}

func (d *Dispatcher) Error(source, message string) {
	d.Dispatch(Notification{Level: LevelError, Source: source, Message: message})
}
