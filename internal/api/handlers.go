package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"crashboard/internal/engine"
	"crashboard/internal/export"
	"crashboard/internal/models"
)

// Handler serves the dashboard API over whatever table is currently loaded.
// The table pointer is swapped atomically on reload; until the first load
// finishes every data endpoint answers 503.
type Handler struct {
	mu       sync.RWMutex
	table    *engine.Table
	stats    engine.LoadStats
	source   string
	loadedAt time.Time

	cache *engine.QueryCache
}

func NewHandler() *Handler {
	return &Handler{cache: engine.NewQueryCache()}
}

// SetTable swaps in a freshly loaded table and invalidates the query cache.
func (h *Handler) SetTable(t *engine.Table, stats engine.LoadStats, source string) {
	h.mu.Lock()
	h.table = t
	h.stats = stats
	h.source = source
	h.loadedAt = time.Now()
	h.mu.Unlock()
	h.cache.Invalidate()
}

func (h *Handler) current() (*engine.Table, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.table, h.table != nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/status", h.GetStatus)
	api.GET("/summary", h.GetSummary)
	api.GET("/aggregate", h.GetAggregate)
	api.GET("/trend", h.GetTrend)
	api.GET("/top", h.GetTop)
	api.GET("/export", h.GetExport)
}

// --- PARAM HELPERS ---

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func filterFromQuery(c echo.Context) engine.Filter {
	var f engine.Filter
	f.FromYear, _ = strconv.Atoi(c.QueryParam("from"))
	f.ToYear, _ = strconv.Atoi(c.QueryParam("to"))
	f.Operator = c.QueryParam("operator")
	f.Country = c.QueryParam("country")
	return f
}

func notReady(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "dataset is still loading"})
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// aggregateFor runs one aggregation query, going through the cache only
// when no filter narrows the table (the filter space is unbounded, so
// filtered results are recomputed instead of cached).
func (h *Handler) aggregateFor(t *engine.Table, f engine.Filter, by, metrics []string) (*engine.AggResult, error) {
	if len(metrics) == 0 {
		metrics = []string{engine.MetricCount}
	}
	if !f.IsZero() {
		return engine.Aggregate(t.Where(f), by, metrics)
	}
	if res, ok := h.cache.Get(t.Version, by, metrics); ok {
		return res, nil
	}
	res, err := engine.Aggregate(t, by, metrics)
	if err != nil {
		return nil, err
	}
	h.cache.Put(t.Version, by, metrics, res)
	return res, nil
}

// --- HANDLERS ---

func (h *Handler) GetStatus(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := models.Status{Ready: h.table != nil, Skipped: h.stats.Skipped, Source: h.source}
	if h.table == nil {
		return c.JSON(http.StatusServiceUnavailable, st)
	}
	st.Version = h.table.Version
	st.Rows = h.table.Len()
	st.LoadedAt = h.loadedAt.UTC().Format(time.RFC3339)
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetSummary(c echo.Context) error {
	t, ok := h.current()
	if !ok {
		return notReady(c)
	}
	return c.JSON(http.StatusOK, t.Where(filterFromQuery(c)).Summary())
}

func (h *Handler) GetAggregate(c echo.Context) error {
	t, ok := h.current()
	if !ok {
		return notReady(c)
	}

	by := splitList(c.QueryParam("by"))
	metrics := splitList(c.QueryParam("metrics"))
	res, err := h.aggregateFor(t, filterFromQuery(c), by, metrics)
	if err != nil {
		return badRequest(c, err)
	}

	total := len(res.Buckets)
	limit, offset := getPaginationParams(c, total)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"key_fields": res.KeyFields,
		"metrics":    res.Metrics,
		"data":       res.Buckets[offset:end],
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

func (h *Handler) GetTrend(c echo.Context) error {
	t, ok := h.current()
	if !ok {
		return notReady(c)
	}

	granularity := c.QueryParam("granularity")
	if granularity == "" {
		granularity = engine.GranularityYear
	}
	opts := engine.TrendOptions{ZeroFill: c.QueryParam("fill") == "zero"}

	series, err := engine.Trend(t.Where(filterFromQuery(c)), granularity, c.QueryParam("metric"), opts)
	if err != nil {
		return badRequest(c, err)
	}
	if window, err := strconv.Atoi(c.QueryParam("window")); err == nil && window > 1 {
		series = engine.MovingAverage(series, window)
	}
	return c.JSON(http.StatusOK, series)
}

func (h *Handler) GetTop(c echo.Context) error {
	t, ok := h.current()
	if !ok {
		return notReady(c)
	}

	by := splitList(c.QueryParam("by"))
	metric := c.QueryParam("metric")
	if metric == "" {
		metric = engine.MetricCount
	}
	n, err := strconv.Atoi(c.QueryParam("n"))
	if err != nil || n < 1 {
		n = 10
	}

	res, err := h.aggregateFor(t, filterFromQuery(c), by, []string{metric})
	if err != nil {
		return badRequest(c, err)
	}
	ranked, err := engine.TopN(res, n, metric, c.QueryParam("order") != "asc")
	if err != nil {
		return badRequest(c, err)
	}
	return c.JSON(http.StatusOK, ranked)
}

func (h *Handler) GetExport(c echo.Context) error {
	t, ok := h.current()
	if !ok {
		return notReady(c)
	}

	by := splitList(c.QueryParam("by"))
	metrics := splitList(c.QueryParam("metrics"))
	res, err := h.aggregateFor(t, filterFromQuery(c), by, metrics)
	if err != nil {
		return badRequest(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(res, &buf); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="aggregate.csv"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
