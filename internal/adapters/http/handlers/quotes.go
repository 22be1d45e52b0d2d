package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tesfalem/quotewidget/internal/adapters/http/dto"
	"github.com/tesfalem/quotewidget/internal/app"
	"github.com/tesfalem/quotewidget/internal/domain"
)

// QuoteHandler serves the /api/v1 widget routes.
type QuoteHandler struct {
	widget *app.Widget
}

// NewQuoteHandler creates a handler over an assembled widget.
func NewQuoteHandler(widget *app.Widget) *QuoteHandler {
	return &QuoteHandler{widget: widget}
}

// RegisterRoutes registers every widget route on rg.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotes", h.ListQuotes)
	rg.POST("/quotes", h.AddQuote)
	rg.GET("/quotes/random", h.RandomQuote)
	rg.GET("/categories", h.Categories)
	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SelectFilter)
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)
	rg.POST("/reset", h.Reset)
	rg.POST("/sync", h.TriggerSync)
	rg.GET("/sync/status", h.SyncStatus)
	rg.GET("/last-viewed", h.LastViewed)
	rg.GET("/events", h.Events)
}

// ListQuotes handles GET /api/v1/quotes.
// ?category narrows the list; ?limit and ?cursor page through it.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	offset, err := req.Offset()
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes := h.widget.Store.Quotes()
	if req.Category != "" {
		quotes = h.widget.Store.Filtered(domain.NewFilterSelection(req.Category))
	}

	c.JSON(http.StatusOK, dto.Paginate(dto.NewQuoteResponses(quotes), offset, req.GetLimit()))
}

// AddQuote handles POST /api/v1/quotes.
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	q, err := h.widget.Store.Add(c.Request.Context(), req.Input())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q))
}

// RandomQuote handles GET /api/v1/quotes/random.
// An empty view is not an error: the quote is null and the message explains.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	resp := dto.RandomQuoteResponse{Category: h.widget.Filter.Active().String()}

	if q, ok := h.widget.ShowRandom(c.Request.Context()); ok {
		quote := dto.NewQuoteResponse(q)
		resp.Quote = &quote
	} else {
		resp.Message = app.EmptyViewMessage
	}

	c.JSON(http.StatusOK, resp)
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	categories := h.widget.Store.Categories()
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: categories,
		Active:     h.widget.Filter.Active().String(),
	})
}

// GetFilter handles GET /api/v1/filter.
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, h.filterResponse())
}

// SelectFilter handles PUT /api/v1/filter. Any category is accepted, even
// one with no quotes.
func (h *QuoteHandler) SelectFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	if _, err := h.widget.Filter.Select(c.Request.Context(), req.Category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.filterResponse())
}

func (h *QuoteHandler) filterResponse() dto.FilterResponse {
	return dto.FilterResponse{
		Category: h.widget.Filter.Active().String(),
		Visible:  len(h.widget.Visible()),
	}
}

// Export handles GET /api/v1/export as a quotes.json attachment.
func (h *QuoteHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.widget.Export(c.Request.Context(), &buf); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+app.ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// Import handles POST /api/v1/import. The body is the JSON array itself.
// A rejected payload leaves the collection untouched.
func (h *QuoteHandler) Import(c *gin.Context) {
	n, err := h.widget.Import(c.Request.Context(), c.Request.Body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Imported: n})
}

// Reset handles POST /api/v1/reset.
func (h *QuoteHandler) Reset(c *gin.Context) {
	if err := h.widget.Reset(c.Request.Context()); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ResetResponse{Count: len(h.widget.Store.Quotes())})
}

// TriggerSync handles POST /api/v1/sync. The sync runs in the background;
// started is false when one was already running.
func (h *QuoteHandler) TriggerSync(c *gin.Context) {
	c.JSON(http.StatusAccepted, dto.SyncResponse{Started: h.widget.TriggerSync(c.Request.Context())})
}

// SyncStatus handles GET /api/v1/sync/status.
func (h *QuoteHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSyncStatusResponse(
		h.widget.Sync.Status(),
		h.widget.Sync.StatusLine(),
		h.widget.Scheduler.InFlight(),
	))
}

// LastViewed handles GET /api/v1/last-viewed. 204 when nothing was shown yet.
func (h *QuoteHandler) LastViewed(c *gin.Context) {
	q, ok, err := h.widget.Store.LastViewed(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// Events handles GET /api/v1/events.
func (h *QuoteHandler) Events(c *gin.Context) {
	recent := h.widget.Recent.Recent()

	resp := dto.EventsResponse{Events: make([]dto.EventResponse, 0, len(recent))}
	for _, e := range recent {
		resp.Events = append(resp.Events, dto.EventResponse{
			ID:         e.ID(),
			Type:       e.EventType(),
			OccurredAt: e.OccurredAt(),
			Payload:    e.Payload(),
		})
	}

	c.JSON(http.StatusOK, resp)
}
