package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/shared"
)

const (
	// maxGatewayResponseSize limits the response body size to prevent memory exhaustion
	maxGatewayResponseSize = 10 * 1024 * 1024 // 10MB max response
	// defaultFetchChunk is the page size used when scanning the full
	// filtered set for residual predicates.
	defaultFetchChunk = 1000
	// residualScanCap bounds a residual scan; exceeding it means the caller
	// pointed a residual filter at an unbounded set.
	residualScanCap = 100000
)

// GatewayConfig holds the connection settings for the remote gateway.
type GatewayConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
	FetchChunk     int
}

// Validate checks the configuration for required fields.
func (c *GatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("gateway base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid gateway base URL: %w", err)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.FetchChunk <= 0 {
		c.FetchChunk = defaultFetchChunk
	}
	return nil
}

// PostgRESTAdapter executes query specifications against a PostgREST-style
// relational gateway. The gateway speaks a restricted operator vocabulary
// (eq, in, ilike, or-groups, range comparators, null checks) with no
// server-side joins or grouping; predicates beyond that vocabulary arrive as
// residual predicates and are applied in memory.
type PostgRESTAdapter struct {
	config     *GatewayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPostgRESTAdapter creates a gateway adapter with the given configuration.
func NewPostgRESTAdapter(config *GatewayConfig, logger *zap.Logger) (*PostgRESTAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgRESTAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("postgrest"),
	}, nil
}

// Execute implements Adapter.
func (a *PostgRESTAdapter) Execute(ctx context.Context, entity shared.EntityDescriptor, spec shared.Spec) (shared.Page[shared.Row], error) {
	spec = spec.Normalized()
	if err := validateSpec(entity, spec); err != nil {
		return shared.Page[shared.Row]{}, err
	}

	if spec.Residual != nil {
		rows, err := a.fetchAll(ctx, entity, spec)
		if err != nil {
			return shared.Page[shared.Row]{}, err
		}
		return residualPage(rows, spec), nil
	}

	params := buildParams(entity, spec)
	params.Set("limit", strconv.Itoa(spec.Limit))
	params.Set("offset", strconv.Itoa(spec.Offset()))

	rows, contentRange, err := a.do(ctx, http.MethodGet, entity.Table, params, map[string]string{
		"Prefer": "count=exact",
	}, nil)
	if err != nil {
		return shared.Page[shared.Row]{}, err
	}
	total, err := parseContentRange(contentRange)
	if err != nil {
		return shared.Page[shared.Row]{}, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	return shared.NewPage(rows, total, spec.Page, spec.Limit), nil
}

// fetchAll pages through the full server-side-filtered set in fixed chunks.
// The residual predicate runs afterwards, so the gateway's count header is
// never trusted for residual queries.
func (a *PostgRESTAdapter) fetchAll(ctx context.Context, entity shared.EntityDescriptor, spec shared.Spec) ([]shared.Row, error) {
	chunk := a.config.FetchChunk
	var all []shared.Row
	for offset := 0; ; offset += chunk {
		params := buildParams(entity, spec)
		params.Set("limit", strconv.Itoa(chunk))
		params.Set("offset", strconv.Itoa(offset))

		rows, _, err := a.do(ctx, http.MethodGet, entity.Table, params, nil, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(all) > residualScanCap {
			return nil, shared.InvalidQueryError(
				fmt.Sprintf("residual scan over %s exceeds %d rows", entity.Table, residualScanCap))
		}
		if len(rows) < chunk {
			return all, nil
		}
	}
}

// Get implements Adapter.
func (a *PostgRESTAdapter) Get(ctx context.Context, entity shared.EntityDescriptor, id any) (shared.Row, error) {
	params := url.Values{}
	params.Set(entity.PrimaryKey, "eq."+gatewayValue(id))
	params.Set("limit", "1")

	rows, _, err := a.do(ctx, http.MethodGet, entity.Table, params, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Insert implements Adapter.
func (a *PostgRESTAdapter) Insert(ctx context.Context, entity shared.EntityDescriptor, values shared.Row) (shared.Row, error) {
	if len(values) == 0 {
		return nil, shared.InvalidQueryError("insert with no values for " + entity.Table)
	}
	rows, _, err := a.do(ctx, http.MethodPost, entity.Table, url.Values{}, map[string]string{
		"Prefer": "return=representation",
	}, values)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: gateway returned no representation on insert", shared.ErrBackendUnavailable)
	}
	return rows[0], nil
}

// Update implements Adapter.
func (a *PostgRESTAdapter) Update(ctx context.Context, entity shared.EntityDescriptor, id any, values shared.Row) (shared.Row, error) {
	params := url.Values{}
	params.Set(entity.PrimaryKey, "eq."+gatewayValue(id))

	rows, _, err := a.do(ctx, http.MethodPatch, entity.Table, params, map[string]string{
		"Prefer": "return=representation",
	}, values)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Delete implements Adapter.
func (a *PostgRESTAdapter) Delete(ctx context.Context, entity shared.EntityDescriptor, id any) (bool, error) {
	params := url.Values{}
	params.Set(entity.PrimaryKey, "eq."+gatewayValue(id))

	rows, _, err := a.do(ctx, http.MethodDelete, entity.Table, params, map[string]string{
		"Prefer": "return=representation",
	}, nil)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Count implements Adapter.
func (a *PostgRESTAdapter) Count(ctx context.Context, entity shared.EntityDescriptor, filters map[string]shared.FilterValue) (int64, error) {
	spec := shared.Spec{Filters: filters}.Normalized()
	if err := validateSpec(entity, spec); err != nil {
		return 0, err
	}
	params := buildParams(entity, spec)
	params.Set("limit", "0")

	_, contentRange, err := a.do(ctx, http.MethodGet, entity.Table, params, map[string]string{
		"Prefer": "count=exact",
	}, nil)
	if err != nil {
		return 0, err
	}
	total, err := parseContentRange(contentRange)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	return total, nil
}

// do performs one gateway request and decodes the JSON row array.
func (a *PostgRESTAdapter) do(ctx context.Context, method, table string, params url.Values, headers map[string]string, body any) ([]shared.Row, string, error) {
	endpoint := strings.TrimRight(a.config.BaseURL, "/") + "/" + table
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", shared.InvalidQueryError("unencodable request body: " + err.Error())
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, "", shared.InvalidQueryError(err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.config.APIKey != "" {
		req.Header.Set("apikey", a.config.APIKey)
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, "", err
		}
		a.logger.Warn("gateway request failed", zap.String("table", table), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponseSize))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}

	if err := a.mapStatus(resp.StatusCode, table, raw); err != nil {
		return nil, "", err
	}

	var rows []shared.Row
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, "", fmt.Errorf("%w: malformed gateway response: %v", shared.ErrBackendUnavailable, err)
		}
	}
	return rows, resp.Header.Get("Content-Range"), nil
}

// mapStatus wraps gateway HTTP statuses into the shared error taxonomy.
func (a *PostgRESTAdapter) mapStatus(status int, table string, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return shared.ErrPermissionDenied
	case status == http.StatusRequestedRangeNotSatisfiable:
		// Out-of-range page: observably an empty page, not a failure.
		return nil
	case status >= 400 && status < 500:
		detail := strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return shared.InvalidQueryError(fmt.Sprintf("gateway rejected query on %s: %s", table, detail))
	default:
		a.logger.Warn("gateway error response", zap.String("table", table), zap.Int("status", status))
		return fmt.Errorf("%w: gateway returned status %d", shared.ErrBackendUnavailable, status)
	}
}

// buildParams translates the spec into the gateway's operator vocabulary.
// Filter params are emitted in sorted field order so request URLs stay
// deterministic.
func buildParams(entity shared.EntityDescriptor, spec shared.Spec) url.Values {
	params := url.Values{}

	fields := make([]string, 0, len(spec.Filters))
	for field := range spec.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		fv := spec.Filters[field]
		switch fv.Op {
		case shared.OpEquals:
			params.Add(field, "eq."+gatewayValue(fv.Value))
		case shared.OpPattern:
			params.Add(field, patternExpr(fv.Term))
		case shared.OpAnyOf:
			items := make([]string, len(fv.Values))
			for i, v := range fv.Values {
				items[i] = gatewayListValue(v)
			}
			params.Add(field, "in.("+strings.Join(items, ",")+")")
		case shared.OpRange:
			if fv.Min != nil {
				params.Add(field, "gte."+gatewayValue(fv.Min))
			}
			if fv.Max != nil {
				params.Add(field, "lte."+gatewayValue(fv.Max))
			}
		case shared.OpIsNull:
			if fv.Null {
				params.Add(field, "is.null")
			} else {
				params.Add(field, "not.is.null")
			}
		}
	}

	if searchCols := searchFields(entity, spec); len(searchCols) > 0 {
		expr := patternExpr(spec.Search.Term)
		if len(searchCols) == 1 {
			params.Add(searchCols[0], expr)
		} else {
			parts := make([]string, len(searchCols))
			for i, f := range searchCols {
				parts[i] = logicTreeExpr(f, expr)
			}
			params.Add("or", "("+strings.Join(parts, ",")+")")
		}
	}

	if len(spec.Sort) == 0 {
		params.Set("order", entity.PrimaryKey+".asc")
	} else {
		parts := make([]string, len(spec.Sort))
		for i, s := range spec.Sort {
			dir := ".asc"
			if s.Desc {
				dir = ".desc"
			}
			parts[i] = s.Field + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	return params
}

// gatewayValue renders a scalar for the gateway's operator syntax.
func gatewayValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// gatewayListValue renders one element of an in.(...) list; strings are
// double-quoted so embedded commas survive.
func gatewayListValue(v any) string {
	if s, ok := v.(string); ok {
		s = strings.ReplaceAll(s, `\`, `\\`)
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return gatewayValue(v)
}

// patternExpr renders the operator expression for a case-insensitive
// substring match. LIKE metacharacters in the term are escaped so they match
// literally. The gateway rewrites every * in a like pattern into a %
// wildcard, so terms carrying one go through the regex operator instead.
func patternExpr(term string) string {
	if strings.Contains(term, "*") {
		return "imatch." + regexp.QuoteMeta(term)
	}
	return "ilike.*" + likeEscaper.Replace(term) + "*"
}

// logicTreeExpr renders field.operator.value for an or=(...) group,
// double-quoting the value when it contains characters the tree parser
// reserves.
func logicTreeExpr(field, expr string) string {
	op, value, ok := strings.Cut(expr, ".")
	if !ok || !strings.ContainsAny(value, `,.:()"\`) {
		return field + "." + expr
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return field + "." + op + `."` + value + `"`
}

// parseContentRange extracts the total from a Content-Range header such as
// "0-19/91" or "*/0".
func parseContentRange(header string) (int64, error) {
	if header == "" {
		return 0, errors.New("missing Content-Range header")
	}
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	totalPart := header[idx+1:]
	if totalPart == "*" {
		return 0, nil
	}
	total, err := strconv.ParseInt(totalPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	return total, nil
}

var _ Adapter = (*PostgRESTAdapter)(nil)
