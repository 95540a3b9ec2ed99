// Package bitrix implements the CRM contracts against the Bitrix24
// REST API.
package bitrix

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stockdocs/internal/core/types"
	"stockdocs/internal/domain/crm"
	"stockdocs/pkg/logger"
)

const pageSize = 50

// Config carries the portal endpoint and OAuth credentials.
type Config struct {
	// BaseURL is the portal REST endpoint, e.g.
	// https://example.bitrix24.ru/rest
	BaseURL string

	// OAuthURL is the token endpoint, defaults to the Bitrix cloud
	// one when empty.
	OAuthURL string

	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string

	Timeout time.Duration
}

// Client talks to a Bitrix24 portal. It implements crm.Deals and
// crm.Catalog and refreshes the OAuth token on expiry.
type Client struct {
	http  *resty.Client
	oauth *resty.Client
	cfg   Config

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewClient builds a Bitrix24 client from configuration.
func NewClient(cfg Config) *Client {
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = "https://oauth.bitrix.info"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	oauthClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.OAuthURL, "/")).
		SetTimeout(cfg.Timeout)

	return &Client{
		http:         httpClient,
		oauth:        oauthClient,
		cfg:          cfg,
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
	}
}

// apiError is the Bitrix REST error payload.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *apiError) expired() bool {
	return e.Error == "expired_token" || e.Error == "invalid_token"
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// call performs one REST method call, refreshing the token and
// retrying once when it has expired.
func (c *Client) call(ctx context.Context, method string, params map[string]string, result any) error {
	for attempt := 0; attempt < 2; attempt++ {
		apiErr := new(apiError)

		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()

		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("auth", token).
			SetResult(result).
			SetError(apiErr)
		for k, v := range params {
			req.SetQueryParam(k, v)
		}

		resp, err := req.Get(fmt.Sprintf("/%s.json", method))
		if err != nil {
			return fmt.Errorf("bitrix %s: %w", method, err)
		}

		if resp.StatusCode() == http.StatusUnauthorized && apiErr.expired() && attempt == 0 {
			if err := c.refresh(ctx); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode() >= http.StatusBadRequest {
			return fmt.Errorf("bitrix %s: %s (%s)", method, apiErr.Error, apiErr.ErrorDescription)
		}

		return nil
	}

	return fmt.Errorf("bitrix %s: token refresh did not take effect", method)
}

func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger.Debug(ctx, "refreshing bitrix access token")

	tokens := new(tokenResponse)
	apiErr := new(apiError)

	resp, err := c.oauth.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"refresh_token": c.refreshToken,
		}).
		SetResult(tokens).
		SetError(apiErr).
		Get("/oauth/token/")
	if err != nil {
		return fmt.Errorf("bitrix token refresh: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("bitrix token refresh: %s (%s)", apiErr.Error, apiErr.ErrorDescription)
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("bitrix token refresh: empty access token in response")
	}

	c.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.refreshToken = tokens.RefreshToken
	}
	return nil
}

// listAll pages through a list method until the portal stops
// returning a next offset.
func (c *Client) listAll(ctx context.Context, method string, params map[string]string, collect func(raw []map[string]any)) error {
	start := 0
	for {
		page := struct {
			Result []map[string]any `json:"result"`
			Next   *int             `json:"next"`
			Total  int              `json:"total"`
		}{}

		p := make(map[string]string, len(params)+1)
		for k, v := range params {
			p[k] = v
		}
		p["start"] = strconv.Itoa(start)

		if err := c.call(ctx, method, p, &page); err != nil {
			return err
		}

		collect(page.Result)

		if page.Next == nil || len(page.Result) < pageSize {
			return nil
		}
		start = *page.Next
	}
}

// DealStage implements crm.Deals.
func (c *Client) DealStage(ctx context.Context, dealID int64) (string, error) {
	out := struct {
		Result struct {
			StageID string `json:"STAGE_ID"`
		} `json:"result"`
	}{}

	err := c.call(ctx, "crm.deal.get", map[string]string{
		"id": strconv.FormatInt(dealID, 10),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Result.StageID == "" {
		return "", fmt.Errorf("bitrix crm.deal.get: deal %d has no stage", dealID)
	}

	return out.Result.StageID, nil
}

// AllProducts implements crm.Catalog. It joins the product list with
// section names and measure symbols, both paged separately.
func (c *Client) AllProducts(ctx context.Context) (map[int64]crm.ProductInfo, error) {
	sections, err := c.sectionNames(ctx)
	if err != nil {
		return nil, err
	}
	measures, err := c.measureSymbols(ctx)
	if err != nil {
		return nil, err
	}

	products := make(map[int64]crm.ProductInfo)
	err = c.listAll(ctx, "crm.product.list", map[string]string{
		"select[0]": "ID",
		"select[1]": "NAME",
		"select[2]": "PRICE",
		"select[3]": "SECTION_ID",
		"select[4]": "MEASURE",
		"order[ID]": "ASC",
	}, func(raw []map[string]any) {
		for _, row := range raw {
			pid := parseID(row["ID"])
			if pid == 0 {
				continue
			}
			info := crm.ProductInfo{
				ID:    pid,
				Name:  str(row["NAME"]),
				Price: parseMoney(row["PRICE"]),
				Unit:  measures[parseID(row["MEASURE"])],
			}
			if info.Unit == "" {
				info.Unit = "pcs"
			}
			info.SectionName = sections[parseID(row["SECTION_ID"])]
			products[pid] = info
		}
	})
	if err != nil {
		return nil, err
	}

	return products, nil
}

// ProductsInfo implements crm.Catalog. Ids absent from the portal are
// simply missing from the result.
func (c *Client) ProductsInfo(ctx context.Context, ids []int64) (map[int64]crm.ProductInfo, error) {
	if len(ids) == 0 {
		return map[int64]crm.ProductInfo{}, nil
	}

	all, err := c.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]crm.ProductInfo, len(ids))
	for _, pid := range ids {
		if info, ok := all[pid]; ok {
			out[pid] = info
		}
	}
	return out, nil
}

// Organizations implements crm.Catalog, listing companies flagged as
// owned by the portal account.
func (c *Client) Organizations(ctx context.Context) ([]crm.Organization, error) {
	var orgs []crm.Organization
	err := c.listAll(ctx, "crm.company.list", map[string]string{
		"filter[IS_MY_COMPANY]": "Y",
		"select[0]":             "ID",
		"select[1]":             "TITLE",
	}, func(raw []map[string]any) {
		for _, row := range raw {
			oid := parseID(row["ID"])
			if oid == 0 {
				continue
			}
			orgs = append(orgs, crm.Organization{ID: oid, Name: str(row["TITLE"])})
		}
	})
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (c *Client) sectionNames(ctx context.Context) (map[int64]string, error) {
	sections := make(map[int64]string)
	err := c.listAll(ctx, "crm.productsection.list", map[string]string{
		"select[0]": "ID",
		"select[1]": "NAME",
	}, func(raw []map[string]any) {
		for _, row := range raw {
			if sid := parseID(row["ID"]); sid != 0 {
				sections[sid] = str(row["NAME"])
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (c *Client) measureSymbols(ctx context.Context) (map[int64]string, error) {
	out := struct {
		Result struct {
			Measures []map[string]any `json:"measures"`
		} `json:"result"`
	}{}

	if err := c.call(ctx, "measure.list", nil, &out); err != nil {
		return nil, err
	}

	measures := make(map[int64]string, len(out.Result.Measures))
	for _, row := range out.Result.Measures {
		if mid := parseID(row["CODE"]); mid != 0 {
			measures[mid] = str(row["SYMBOL_INTL"])
		}
	}
	return measures, nil
}

// Bitrix returns ids and numbers as strings or numbers depending on
// the method; both forms are handled.
func parseID(v any) int64 {
	switch t := v.(type) {
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func parseMoney(v any) types.Money {
	switch t := v.(type) {
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(t)
	}
	return types.Zero()
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
