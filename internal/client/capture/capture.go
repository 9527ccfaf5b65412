// Package capture 把宿主上报的点击、输入与导航转换为埋点事件
package capture

import (
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	lru "github.com/hashicorp/golang-lru/v2"

	"werss-client/internal/client/api"
	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
)

const (
	DefaultButtonClass     = "arco-btn"
	DefaultInputThrottle   = 12 * time.Second
	DefaultThrottleEntries = 1024

	maxLabelLen     = 60
	maxClassLen     = 120
	maxInputNameLen = 120
)

// Sink 事件接收方
type Sink interface {
	Track(ev api.Event)
}

// Options 采集选项
type Options struct {
	ButtonClass     string
	InputThrottle   time.Duration
	ThrottleEntries int

	// Path 返回当前路径（不含查询串），用于输入节流键
	Path     func() string
	Title    func() string
	Referrer func() string
	Now      func() time.Time
	Logger   corelog.Logger
}

// Capture 页面交互采集
type Capture struct {
	sink   Sink
	opts   Options
	logger corelog.Logger

	mu       sync.Mutex
	lastSeen *lru.Cache[string, time.Time]
}

// New 创建采集器
func New(sink Sink, opts Options) (*Capture, error) {
	if sink == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "capture: nil sink")
	}
	if opts.ButtonClass == "" {
		opts.ButtonClass = DefaultButtonClass
	}
	if opts.InputThrottle <= 0 {
		opts.InputThrottle = DefaultInputThrottle
	}
	if opts.ThrottleEntries <= 0 {
		opts.ThrottleEntries = DefaultThrottleEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cache, err := lru.New[string, time.Time](opts.ThrottleEntries)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "capture: create throttle cache")
	}
	return &Capture{
		sink:     sink,
		opts:     opts,
		logger:   corelog.OrDefault(opts.Logger),
		lastSeen: cache,
	}, nil
}

// isInteractive button、a、role=button 或样式按钮
func (c *Capture) isInteractive(el *Element) bool {
	switch strings.ToLower(el.Tag) {
	case "button", "a":
		return true
	}
	return el.Attr("role") == "button" || el.HasClass(c.opts.ButtonClass)
}

// Click 处理点击，目标不在可交互元素内时忽略
func (c *Capture) Click(target *Element) {
	if target == nil {
		return
	}
	clickable := target.Closest(c.isInteractive)
	if clickable == nil {
		return
	}

	feature := strings.TrimSpace(clickable.Attr("data-track-feature"))
	if feature == "" {
		feature = "ui"
	}
	action := strings.TrimSpace(clickable.Attr("data-track-action"))
	if action == "" {
		action = "click"
	}

	c.sink.Track(api.Event{
		EventType: "click",
		Feature:   feature,
		Action:    action,
		Value:     elementLabel(clickable),
		Metadata: map[string]interface{}{
			"tag":   strings.ToUpper(clickable.Tag),
			"class": truncate(clickable.ClassName, maxClassLen),
		},
	})
}

// elementLabel data-track-label / aria-label，否则取折叠空白后的文本
func elementLabel(el *Element) string {
	direct := el.Attr("data-track-label")
	if direct == "" {
		direct = el.Attr("aria-label")
	}
	if direct = strings.TrimSpace(direct); direct != "" {
		return truncate(direct, maxLabelLen)
	}
	return truncate(strings.Join(strings.Fields(el.Text), " "), maxLabelLen)
}

// Input 处理输入，仅 input/textarea，忽略密码框，按字段节流
// 事件只包含字段名和长度，不包含输入内容
func (c *Capture) Input(target *Element) {
	if target == nil {
		return
	}
	tag := strings.ToLower(target.Tag)
	if tag != "input" && tag != "textarea" {
		return
	}
	if strings.EqualFold(target.Type, "password") {
		return
	}

	field := target.fieldID()
	path := ""
	if c.opts.Path != nil {
		path = c.opts.Path()
	}
	if !c.allow(path+"|"+field, c.opts.Now()) {
		return
	}

	// 按 UTF-16 码元计数，与浏览器 value.length 一致
	length := len(utf16.Encode([]rune(target.Value)))
	c.sink.Track(api.Event{
		EventType:   "input",
		Feature:     "form",
		Action:      "typing",
		InputName:   truncate(field, maxInputNameLen),
		InputLength: &length,
		Metadata: map[string]interface{}{
			"tag":  tag,
			"type": target.Type,
		},
	})
}

// allow 节流窗口内同一键只放行一次
func (c *Capture) allow(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.lastSeen.Get(key); ok && now.Sub(last) < c.opts.InputThrottle {
		return false
	}
	c.lastSeen.Add(key, now)
	return true
}

// PageView 记录一次页面访问，fullPath 包含查询串
func (c *Capture) PageView(fullPath string) {
	var title, referrer string
	if c.opts.Title != nil {
		title = c.opts.Title()
	}
	if c.opts.Referrer != nil {
		referrer = c.opts.Referrer()
	}
	c.sink.Track(api.Event{
		EventType: "page_view",
		Page:      fullPath,
		Path:      fullPath,
		Feature:   "navigation",
		Action:    "visit",
		Metadata: map[string]interface{}{
			"title":    title,
			"referrer": referrer,
		},
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
