package model

import "fmt"

// SchemaError 输入表缺少必需列（或连接键为空）时返回。
// 属于调用方数据问题，不做局部恢复，直接上抛。
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input table is missing required column %q", e.Column)
}

// InvalidArgumentError 参数非法：阈值为负/非有限数，或枚举值不受支持
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Reason)
}
