package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Quantity 农产品数量类型（保留 2 位小数，按商品单位计，如公斤）
type Quantity struct {
	decimal.Decimal
}

// NewQuantityFromDecimal 从 decimal 创建数量
func NewQuantityFromDecimal(qty decimal.Decimal) Quantity {
	return Quantity{Decimal: qty.Round(2)}
}

// NewQuantityFromString 从字符串创建数量
func NewQuantityFromString(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantityFromDecimal(d), nil
}

// MarshalJSON 统一输出 2 位小数的字符串
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Decimal.Round(2).StringFixed(2))
}

// UnmarshalJSON 解析数量（字符串或数字）
func (q *Quantity) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		q.Decimal = d.Round(2)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	q.Decimal = decimal.NewFromFloat(f).Round(2)
	return nil
}

// Value 用于数据库写入
func (q Quantity) Value() (driver.Value, error) {
	return q.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (q *Quantity) Scan(value interface{}) error {
	if err := q.Decimal.Scan(value); err != nil {
		return err
	}
	q.Decimal = q.Decimal.Round(2)
	return nil
}

// String 返回 2 位小数格式
func (q Quantity) String() string {
	return q.Decimal.Round(2).StringFixed(2)
}
