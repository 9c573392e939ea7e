package api

import "time"

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval"`
	Features []string `json:"features"`
}

type RegisterRequest struct {
	TenantName string `json:"tenantName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	PlanID     string `json:"planId,omitempty"`
}

type RegisterResponse struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
}

type ShopClient struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Product struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SKU        string  `json:"sku"`
	Price      float64 `json:"price"`
	CategoryID string  `json:"categoryId"`
	ProviderID string  `json:"providerId"`
	Quantity   int     `json:"quantity"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Provider struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type SaleItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type Sale struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"clientId"`
	Items     []SaleItem `json:"items"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Invoice struct {
	ID        string    `json:"id"`
	SaleID    string    `json:"saleId"`
	Number    string    `json:"number"`
	Total     float64   `json:"total"`
	IssuedAt  time.Time `json:"issuedAt"`
	DueAt     time.Time `json:"dueAt"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type StockMovement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Type      string    `json:"type"` // IN, OUT or ADJUSTMENT
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommerceSettings struct {
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	TaxRate  float64 `json:"taxRate"`
	Address  string  `json:"address"`
	Phone    string  `json:"phone"`
}

type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
