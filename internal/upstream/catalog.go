package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/primefix-storefront/internal/models"
)

// ProductQuery 商品列表查询条件
type ProductQuery struct {
	Search   string
	Category string
	Brand    string
	Sort     string
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	values := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("search", s)
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		values.Set("category", s)
	}
	if s := strings.TrimSpace(q.Brand); s != "" {
		values.Set("brand", s)
	}
	if s := strings.TrimSpace(q.Sort); s != "" {
		values.Set("sort", s)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

// ListCategories GET /categories
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/categories", requestOptions{})
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0)
	if err := decodeData(envelope, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListBrands GET /brands
func (c *Client) ListBrands(ctx context.Context) ([]models.Brand, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/brands", requestOptions{})
	if err != nil {
		return nil, err
	}
	brands := make([]models.Brand, 0)
	if err := decodeData(envelope, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// ListProducts GET /products，meta.total 缺失时以本页条数为准
func (c *Client) ListProducts(ctx context.Context, query ProductQuery) (models.ProductPage, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/products", requestOptions{query: query.values()})
	if err != nil {
		return models.ProductPage{}, err
	}
	items := make([]models.Product, 0)
	if err := decodeData(envelope, &items); err != nil {
		return models.ProductPage{}, err
	}
	page := models.ProductPage{
		Items: items,
		Total: int64(len(items)),
		Page:  query.Page,
		Limit: query.Limit,
	}
	if envelope.Meta != nil && envelope.Meta.Total > 0 {
		page.Total = envelope.Meta.Total
	}
	return page, nil
}

// SearchProducts GET /products?search=&limit=
func (c *Client) SearchProducts(ctx context.Context, search string, limit int) ([]models.Product, error) {
	page, err := c.ListProducts(ctx, ProductQuery{Search: search, Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
