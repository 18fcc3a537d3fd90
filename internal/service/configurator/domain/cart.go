// internal/service/configurator/domain/cart.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart 是一个会话级购物车，条目引用已持久化的 ProductConfiguration。
type Cart struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customerId,omitempty"`
	SessionID   string          `json:"sessionId"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ID                     string          `json:"id"`
	ProductConfigurationID string          `json:"productConfigurationId"`
	Quantity               int             `json:"quantity"`
	UnitPrice              decimal.Decimal `json:"unitPrice"`
	TotalPrice             decimal.Decimal `json:"totalPrice"`
	AddedAt                time.Time       `json:"addedAt"`
}

// NewCart 创建一个空购物车，会话 ID 与购物车 ID 相同。
func NewCart(id string, now time.Time) *Cart {
	return &Cart{
		ID:          id,
		SessionID:   id,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddConfiguration 加入一个配置；同一配置已存在时合并数量。
func (c *Cart) AddConfiguration(cfg *ProductConfiguration, quantity int, now time.Time) {
	for i := range c.Items {
		if c.Items[i].ProductConfigurationID == cfg.ID {
			c.Items[i].Quantity += quantity
			c.Items[i].TotalPrice = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
			c.touch(now)
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		ID:                     uuid.New().String(),
		ProductConfigurationID: cfg.ID,
		Quantity:               quantity,
		UnitPrice:              cfg.TotalPrice,
		TotalPrice:             cfg.TotalPrice.Mul(decimal.NewFromInt(int64(quantity))),
		AddedAt:                now,
	})
	c.touch(now)
}

// RemoveItem 删除条目，条目不存在时返回 ErrCartItemNotFound。
func (c *Cart) RemoveItem(itemID string, now time.Time) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch(now)
			return nil
		}
	}
	return ErrCartItemNotFound
}

// SetQuantity 数量 <= 0 等价于删除。
func (c *Cart) SetQuantity(itemID string, quantity int, now time.Time) error {
	if quantity <= 0 {
		return c.RemoveItem(itemID, now)
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.Items[i].TotalPrice = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			c.touch(now)
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (c *Cart) Clear(now time.Time) {
	c.Items = []CartItem{}
	c.touch(now)
}

// touch 重新汇总总金额并更新时间戳。
func (c *Cart) touch(now time.Time) {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.TotalPrice)
	}
	c.TotalAmount = total
	c.UpdatedAt = now
}
