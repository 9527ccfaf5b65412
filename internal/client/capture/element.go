package capture

import "strings"

// Element 宿主提供的页面元素快照
type Element struct {
	Tag         string            `json:"tag"`
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name,omitempty"`
	Type        string            `json:"type,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Value       string            `json:"value,omitempty"`
	ClassName   string            `json:"class,omitempty"`
	Text        string            `json:"text,omitempty"` // 含子孙节点的文本内容
	Attrs       map[string]string `json:"attrs,omitempty"`
	Parent      *Element          `json:"parent,omitempty"`
}

// Attr 返回属性值，不存在时返回空串
func (e *Element) Attr(name string) string {
	if e == nil || e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// HasClass 是否包含指定 class
func (e *Element) HasClass(class string) bool {
	if e == nil || class == "" {
		return false
	}
	for _, c := range strings.Fields(e.ClassName) {
		if c == class {
			return true
		}
	}
	return false
}

// Closest 从自身开始向上查找第一个满足条件的元素
func (e *Element) Closest(match func(*Element) bool) *Element {
	for el := e; el != nil; el = el.Parent {
		if match(el) {
			return el
		}
	}
	return nil
}

// fieldID 输入框标识：name、id、placeholder，均为空时为 "field"
func (e *Element) fieldID() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.ID != "":
		return e.ID
	case e.Placeholder != "":
		return e.Placeholder
	default:
		return "field"
	}
}
