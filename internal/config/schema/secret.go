package schema

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Secret 敏感配置值（token、密码），日志与序列化时自动脱敏
type Secret string

// String 返回脱敏后的值
func (s Secret) String() string {
	switch n := len(s); {
	case n == 0:
		return ""
	case n <= 8:
		return "****"
	default:
		return string(s[:3]) + "****" + string(s[n-3:])
	}
}

// Value 返回原始值，仅在真正需要时使用
func (s Secret) Value() string {
	return string(s)
}

// IsEmpty 是否为空
func (s Secret) IsEmpty() bool {
	return len(s) == 0
}

// MarshalJSON 序列化为脱敏值
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON 读取原始值
func (s *Secret) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Secret(str)
	return nil
}

// MarshalYAML 序列化为脱敏值
func (s Secret) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML 读取原始值
func (s *Secret) UnmarshalYAML(node *yaml.Node) error {
	*s = Secret(node.Value)
	return nil
}
