// Package enums 定义状态、菜单类型等封闭编码集合
// 编码表作为数据维护，持久化与序列化共用同一份映射
package enums

import "fmt"

// CommonStatus 通用启用/停用状态
type CommonStatus string

// 通用状态编码
const (
	StatusEnable  CommonStatus = "0"
	StatusDisable CommonStatus = "1"
)

// commonStatusNames 编码到名称的映射表
var commonStatusNames = map[CommonStatus]string{
	StatusEnable:  "enable",
	StatusDisable: "disable",
}

// String 状态名称
func (s CommonStatus) String() string {
	if name, ok := commonStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%s)", string(s))
}

// Valid 是否为合法编码
func (s CommonStatus) Valid() bool {
	_, ok := commonStatusNames[s]
	return ok
}

// IsEnable 是否启用
func (s CommonStatus) IsEnable() bool {
	return s == StatusEnable
}

// ParseCommonStatus 从编码解析状态
func ParseCommonStatus(code string) (CommonStatus, error) {
	s := CommonStatus(code)
	if !s.Valid() {
		return "", fmt.Errorf("invalid common status code: %q", code)
	}
	return s, nil
}

// MenuType 菜单类型
type MenuType string

// 菜单类型编码
const (
	MenuTypeDirectory MenuType = "directory"
	MenuTypeMenu      MenuType = "menu"
	MenuTypeButton    MenuType = "button"
)

// menuTypeNames 编码到名称的映射表
var menuTypeNames = map[MenuType]string{
	MenuTypeDirectory: "directory",
	MenuTypeMenu:      "menu",
	MenuTypeButton:    "button",
}

// String 类型名称
func (t MenuType) String() string {
	if name, ok := menuTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%s)", string(t))
}

// Valid 是否为合法编码
func (t MenuType) Valid() bool {
	_, ok := menuTypeNames[t]
	return ok
}

// ParseMenuType 从编码解析菜单类型
func ParseMenuType(code string) (MenuType, error) {
	t := MenuType(code)
	if !t.Valid() {
		return "", fmt.Errorf("invalid menu type code: %q", code)
	}
	return t, nil
}
