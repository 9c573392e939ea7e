package api

import (
	"context"
	"net/http"
)

const (
	clientsPath        = "/api/v1/clients"
	productsPath       = "/api/v1/products"
	categoriesPath     = "/api/v1/categories"
	providersPath      = "/api/v1/providers"
	salesPath          = "/api/v1/sales"
	invoicesPath       = "/api/v1/invoices"
	stockMovementsPath = "/api/v1/stock-movements"
	settingsPath       = "/api/v1/commerce-settings"
	invitationsPath    = "/api/v1/invitations"
)

// Clients

func (c *Client) ListClients(ctx context.Context) ([]ShopClient, error) {
	return list[ShopClient](ctx, c, "clients", clientsPath)
}

func (c *Client) GetClient(ctx context.Context, id string) (ShopClient, error) {
	return call[ShopClient](ctx, c.caller, http.MethodGet, clientsPath+"/"+id, nil)
}

func (c *Client) CreateClient(ctx context.Context, client ShopClient) (ShopClient, error) {
	return call[ShopClient](ctx, c.caller, http.MethodPost, clientsPath, client)
}

func (c *Client) UpdateClient(ctx context.Context, id string, client ShopClient) (ShopClient, error) {
	return call[ShopClient](ctx, c.caller, http.MethodPut, clientsPath+"/"+id, client)
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, clientsPath+"/"+id, nil)
}

// Products

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	return list[Product](ctx, c, "products", productsPath)
}

func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	return call[Product](ctx, c.caller, http.MethodGet, productsPath+"/"+id, nil)
}

func (c *Client) CreateProduct(ctx context.Context, product Product) (Product, error) {
	return call[Product](ctx, c.caller, http.MethodPost, productsPath, product)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, product Product) (Product, error) {
	return call[Product](ctx, c.caller, http.MethodPut, productsPath+"/"+id, product)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, productsPath+"/"+id, nil)
}

// Categories

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return list[Category](ctx, c, "categories", categoriesPath)
}

func (c *Client) CreateCategory(ctx context.Context, category Category) (Category, error) {
	return call[Category](ctx, c.caller, http.MethodPost, categoriesPath, category)
}

func (c *Client) UpdateCategory(ctx context.Context, id string, category Category) (Category, error) {
	return call[Category](ctx, c.caller, http.MethodPut, categoriesPath+"/"+id, category)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, categoriesPath+"/"+id, nil)
}

// Providers

func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	return list[Provider](ctx, c, "providers", providersPath)
}

func (c *Client) GetProvider(ctx context.Context, id string) (Provider, error) {
	return call[Provider](ctx, c.caller, http.MethodGet, providersPath+"/"+id, nil)
}

func (c *Client) CreateProvider(ctx context.Context, provider Provider) (Provider, error) {
	return call[Provider](ctx, c.caller, http.MethodPost, providersPath, provider)
}

func (c *Client) UpdateProvider(ctx context.Context, id string, provider Provider) (Provider, error) {
	return call[Provider](ctx, c.caller, http.MethodPut, providersPath+"/"+id, provider)
}

func (c *Client) DeleteProvider(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, providersPath+"/"+id, nil)
}

// Sales

func (c *Client) ListSales(ctx context.Context) ([]Sale, error) {
	return list[Sale](ctx, c, "sales", salesPath)
}

func (c *Client) GetSale(ctx context.Context, id string) (Sale, error) {
	return call[Sale](ctx, c.caller, http.MethodGet, salesPath+"/"+id, nil)
}

func (c *Client) CreateSale(ctx context.Context, sale Sale) (Sale, error) {
	return call[Sale](ctx, c.caller, http.MethodPost, salesPath, sale)
}

func (c *Client) DeleteSale(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, salesPath+"/"+id, nil)
}

// Invoices

func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return list[Invoice](ctx, c, "invoices", invoicesPath)
}

func (c *Client) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	return call[Invoice](ctx, c.caller, http.MethodGet, invoicesPath+"/"+id, nil)
}

func (c *Client) CreateInvoice(ctx context.Context, invoice Invoice) (Invoice, error) {
	return call[Invoice](ctx, c.caller, http.MethodPost, invoicesPath, invoice)
}

func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, invoicesPath+"/"+id, nil)
}

// Stock movements. The movement-to-quantity projection is server-side;
// the client only records and lists movements.

func (c *Client) ListStockMovements(ctx context.Context) ([]StockMovement, error) {
	return list[StockMovement](ctx, c, "stock-movements", stockMovementsPath)
}

func (c *Client) CreateStockMovement(ctx context.Context, movement StockMovement) (StockMovement, error) {
	return call[StockMovement](ctx, c.caller, http.MethodPost, stockMovementsPath, movement)
}

// Commerce settings

func (c *Client) GetCommerceSettings(ctx context.Context) (CommerceSettings, error) {
	return call[CommerceSettings](ctx, c.caller, http.MethodGet, settingsPath, nil)
}

func (c *Client) UpdateCommerceSettings(ctx context.Context, settings CommerceSettings) (CommerceSettings, error) {
	return call[CommerceSettings](ctx, c.caller, http.MethodPut, settingsPath, settings)
}

// Invitations

func (c *Client) ListInvitations(ctx context.Context) ([]Invitation, error) {
	return list[Invitation](ctx, c, "invitations", invitationsPath)
}

func (c *Client) CreateInvitation(ctx context.Context, invitation Invitation) (Invitation, error) {
	return call[Invitation](ctx, c.caller, http.MethodPost, invitationsPath, invitation)
}

func (c *Client) DeleteInvitation(ctx context.Context, id string) error {
	return callNoContent(ctx, c.caller, http.MethodDelete, invitationsPath+"/"+id, nil)
}
