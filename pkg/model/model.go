package model

import (
	"fmt"
	"math"
)

// RIType 保留指数类型（参考数据库的查询维度之一）
type RIType string

const (
	RITypeKovats RIType = "kovats" // Kovats 保留指数（默认）
	RITypeLinear RIType = "linear" // 线性保留指数
	RITypeAlkane RIType = "alkane" // 正构烷烃标度
	RITypeLee    RIType = "lee"    // Lee 保留指数
)

// Polarity 色谱柱极性
type Polarity string

const (
	PolarityNonPolar Polarity = "non-polar" // 非极性柱（默认）
	PolarityPolar    Polarity = "polar"     // 极性柱
)

// TempProgram 温度程序模式。参考数据库按模式分别存储文献值，
// 因此一次完整检索需要对每种模式各查询一次。
type TempProgram string

const (
	ProgramRamp       TempProgram = "ramp"
	ProgramIsothermal TempProgram = "isothermal"
	ProgramCustom     TempProgram = "custom"
)

// TempPrograms 返回全部温度程序模式，顺序固定
func TempPrograms() []TempProgram {
	return []TempProgram{ProgramRamp, ProgramIsothermal, ProgramCustom}
}

// ParseRIType 解析保留指数类型，空字符串回退到默认值
func ParseRIType(s string) (RIType, error) {
	switch RIType(s) {
	case "":
		return RITypeKovats, nil
	case RITypeKovats, RITypeLinear, RITypeAlkane, RITypeLee:
		return RIType(s), nil
	}
	return "", &InvalidArgumentError{Name: "ri_type", Reason: fmt.Sprintf("unsupported value %q", s)}
}

// ParsePolarity 解析色谱柱极性，空字符串回退到默认值
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(s) {
	case "":
		return PolarityNonPolar, nil
	case PolarityNonPolar, PolarityPolar:
		return Polarity(s), nil
	}
	return "", &InvalidArgumentError{Name: "polarity", Reason: fmt.Sprintf("unsupported value %q", s)}
}

// ParseTempProgram 解析温度程序模式
func ParseTempProgram(s string) (TempProgram, error) {
	switch TempProgram(s) {
	case ProgramRamp, ProgramIsothermal, ProgramCustom:
		return TempProgram(s), nil
	}
	return "", &InvalidArgumentError{Name: "temp_program", Reason: fmt.Sprintf("unsupported value %q", s)}
}

// RawRIRecord 参考数据库中的一条文献记录。
// 同一 CAS 号通常对应多条记录（每篇文献一条）。
type RawRIRecord struct {
	CAS      string      // CAS 登记号，连接键
	RI       float64     // 文献报告的保留指数
	Type     RIType      // 查询时使用的保留指数类型
	Polarity Polarity    // 查询时使用的柱极性
	Program  TempProgram // 该记录所属的温度程序模式
}

// RISummary 单个化合物的参考值汇总统计，每个 CAS 号一行
type RISummary struct {
	CAS    string
	MeanRI float64 // 均值，四舍五入到整数（.5 远离零取整）
	StdDev float64 // 样本标准差（n-1），N==1 时为 NaN
	N      int     // 参与统计的文献记录数
}

// MeasuredRow 用户实验测得的一行数据。
// Extra 保存输入表中除必需列之外的所有列，贯穿整个流程不丢失。
type MeasuredRow struct {
	CAS   string
	Name  string
	File  string
	RI    float64
	Extra map[string]string
}

// JoinedRow 测量行与参考汇总左连接后的结果行
type JoinedRow struct {
	MeasuredRow
	Summary    *RISummary // nil 表示参考数据库中没有该 CAS 的记录
	Difference float64    // |MeanRI - RI|，Summary 为 nil 时为 NaN
}

// HasReference 报告该行是否存在参考数据
func (r JoinedRow) HasReference() bool {
	return r.Summary != nil
}

// MatchReport 一次完整分类的全部视图。六个子表由同一张连接表
// 经纯谓词过滤得到，因此互相之间始终一致。
type MatchReport struct {
	Threshold float64
	Type      RIType
	Polarity  Polarity

	All           []JoinedRow // 未过滤的连接表
	Matched       []JoinedRow // difference < threshold
	PoorlyMatched []JoinedRow // difference > threshold
	NoMatch       []JoinedRow // 无参考数据
	PoorOrNoMatch []JoinedRow // 两种失败情况的并集
	WithReference []JoinedRow // 存在参考数据的所有行
}

// NaNEqual 数值比较，把两个 NaN 视为相等（用于全行去重与测试）
func NaNEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
