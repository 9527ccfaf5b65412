package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// envelope 后端统一响应包络
type envelope struct {
	code    *int
	data    json.RawMessage
	detail  json.RawMessage
	msg     string
	message string
}

// parseEnvelope 解析响应体，非 JSON 对象返回 ok=false
func parseEnvelope(body []byte) (envelope, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return envelope{}, false
	}

	var env envelope
	if raw, ok := fields["code"]; ok {
		var code int
		if err := json.Unmarshal(raw, &code); err == nil {
			env.code = &code
		}
	}
	env.data = fields["data"]
	env.detail = fields["detail"]
	_ = json.Unmarshal(fields["msg"], &env.msg)
	_ = json.Unmarshal(fields["message"], &env.message)
	return env, true
}

// errorMessage 错误消息：detail.message 优先，其次 message、msg
func (e envelope) errorMessage() string {
	if truthy(e.detail) {
		var d struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(e.detail, &d) == nil && d.Message != "" {
			return d.Message
		}
	}
	if e.message != "" {
		return e.message
	}
	return e.msg
}

// payloadOf 成功响应的有效载荷：data，其次 detail，最后整个响应体
func payloadOf(body []byte) json.RawMessage {
	env, ok := parseEnvelope(body)
	if !ok || env.code == nil || *env.code != 0 {
		return json.RawMessage(body)
	}
	if truthy(env.data) {
		return env.data
	}
	if truthy(env.detail) {
		return env.detail
	}
	return json.RawMessage(body)
}

// truthy 判断 JSON 值是否为真值（null/false/0/"" 为假）
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", "0", `""`:
		return false
	}
	if v[0] == '-' || (v[0] >= '0' && v[0] <= '9') {
		var f float64
		if json.Unmarshal(v, &f) == nil {
			return f != 0
		}
	}
	return true
}

// messageFrom 从错误响应体中提取消息
func messageFrom(body []byte) string {
	env, ok := parseEnvelope(body)
	if !ok {
		return ""
	}
	if msg := env.errorMessage(); msg != "" {
		return msg
	}
	var s string
	if json.Unmarshal(env.detail, &s) == nil {
		return s
	}
	return ""
}

// validationMessage 422 校验错误：detail 列表中的 msg 以 "; " 连接
func validationMessage(body []byte) string {
	env, ok := parseEnvelope(body)
	if ok {
		var items []struct {
			Msg  string `json:"msg"`
			Type string `json:"type"`
		}
		if json.Unmarshal(env.detail, &items) == nil && len(items) > 0 {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					parts = append(parts, it.Msg)
				} else {
					parts = append(parts, it.Type)
				}
			}
			return strings.Join(parts, "; ")
		}
	}
	return "request validation failed"
}
