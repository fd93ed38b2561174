package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/models/reports"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"bitbucket.org/mmdatafocus/invoicing_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = "8080"

var tracer trace.Tracer = otel.Tracer("invoicing-backend")

// RateLimiter throttles by client IP using a fixed redis window.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

type formApi struct {
	registry *models.FormSchemaRegistry
	engine   *workflow.FormComputeEngine
	store    *workflow.SessionStore
}

func (api *formApi) schemaHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"groups":           api.registry.ListGroups(),
		"line_item_schema": api.registry.LineItemSchema(),
	})
}

type newSessionInput struct {
	DraftId int `json:"draft_id"`
}

func (api *formApi) createSessionHandler(c *gin.Context) {
	var input newSessionInput
	// Empty body means a blank form.
	_ = c.ShouldBindJSON(&input)

	if input.DraftId > 0 {
		draft, err := models.FetchInvoiceDraft(c.Request.Context(), input.DraftId)
		if err != nil {
			abortWithApiError(c, err)
			return
		}
		s, err := workflow.RehydrateSession(draft, api.registry, api.engine)
		if err != nil {
			abortWithApiError(c, err)
			return
		}
		api.store.Adopt(s)
		c.JSON(http.StatusCreated, s)
		return
	}

	s, err := api.store.Create(api.registry)
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (api *formApi) getSessionHandler(c *gin.Context) {
	api.respondWithSession(c, c.Param("id"))
}

type setFieldInput struct {
	Value string `json:"value"`
}

func (api *formApi) setFieldHandler(c *gin.Context) {
	var input setFieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := c.Param("name")

	err := api.store.With(c.Param("id"), func(s *models.FormSession) error {
		// Jurisdiction and other-tax edits run their cascades; everything
		// else is a plain value write.
		switch name {
		case models.FieldBillingState:
			return api.engine.OnJurisdictionChanged(s, input.Value)
		case models.FieldOtherTaxAmount:
			return api.engine.OnOtherTaxChanged(s, input.Value)
		default:
			return s.SetFieldValue(name, input.Value)
		}
	})
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	api.respondWithSession(c, c.Param("id"))
}

func (api *formApi) addItemHandler(c *gin.Context) {
	err := api.store.With(c.Param("id"), func(s *models.FormSession) error {
		index := api.engine.OnLineItemAdded(s)
		c.JSON(http.StatusCreated, gin.H{"index": index, "session": s})
		return nil
	})
	if err != nil {
		abortWithApiError(c, err)
	}
}

type setItemInput struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

func (api *formApi) setItemHandler(c *gin.Context) {
	var input setItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item index"})
		return
	}

	err = api.store.With(c.Param("id"), func(s *models.FormSession) error {
		if err := s.SetLineItem(index, input.Description, input.Quantity, input.UnitPrice); err != nil {
			return err
		}
		return api.engine.OnLineItemChanged(s, index)
	})
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	api.respondWithSession(c, c.Param("id"))
}

func (api *formApi) removeItemHandler(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item index"})
		return
	}

	err = api.store.With(c.Param("id"), func(s *models.FormSession) error {
		return api.engine.OnLineItemRemoved(s, index)
	})
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	api.respondWithSession(c, c.Param("id"))
}

func (api *formApi) resetSessionHandler(c *gin.Context) {
	err := api.store.With(c.Param("id"), func(s *models.FormSession) error {
		return s.Reset(time.Now())
	})
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	api.respondWithSession(c, c.Param("id"))
}

func (api *formApi) deleteSessionHandler(c *gin.Context) {
	api.store.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (api *formApi) saveDraftHandler(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "saveDraft")
	defer span.End()

	var draft *models.InvoiceDraft
	err := api.store.With(c.Param("id"), func(s *models.FormSession) error {
		var err error
		draft, err = workflow.SaveDraft(ctx, s)
		return err
	})
	if err != nil {
		config.LogError(config.GetLogger(), "server.go", "saveDraftHandler", "workflow.SaveDraft", c.Param("id"), err)
		abortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

func (api *formApi) listDraftsHandler(c *gin.Context) {
	drafts, err := models.ListInvoiceDrafts(c.Request.Context())
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

func (api *formApi) getDraftHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return
	}
	draft, err := models.FetchInvoiceDraft(c.Request.Context(), id)
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (api *formApi) draftPdfHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return
	}
	draft, err := models.FetchInvoiceDraft(c.Request.Context(), id)
	if err != nil {
		abortWithApiError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%d.pdf", draft.ID))
	if err := reports.GenerateInvoiceDraftPdf(draft, c.Writer); err != nil {
		config.LogError(config.GetLogger(), "server.go", "draftPdfHandler", "reports.GenerateInvoiceDraftPdf", draft.ID, err)
	}
}

func (api *formApi) draftExportHandler(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=invoice-drafts.xlsx")
	if err := reports.ExportInvoiceDraftsExcel(c.Request.Context(), c.Writer); err != nil {
		config.LogError(config.GetLogger(), "server.go", "draftExportHandler", "reports.ExportInvoiceDraftsExcel", nil, err)
	}
}

func (api *formApi) respondWithSession(c *gin.Context, id string) {
	err := api.store.With(id, func(s *models.FormSession) error {
		c.JSON(http.StatusOK, s)
		return nil
	})
	if err != nil {
		abortWithApiError(c, err)
	}
}

func abortWithApiError(c *gin.Context, err error) {
	var vErr *utils.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vErr})
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, utils.ErrorUnknownField):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorReadonlyField), errors.Is(err, utils.ErrorItemIndexOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// requireDB gates draft endpoints until the database connection is up.
func requireDB(c *gin.Context) {
	if config.GetDB() == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	api := &formApi{
		registry: models.InvoiceFormRegistry(),
		engine: workflow.NewFormComputeEngine(
			config.GetHomeState(),
			config.GetIntraStateSplitRate(),
			config.GetInterStateRate(),
		),
		store: workflow.NewSessionStore(),
	}

	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated); otherwise allow all for developer convenience.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		config.ConnectRedisWithRetry()
		if client := config.GetRedisDB(); client != nil {
			limit := int64(600)
			if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
					limit = n
				}
			}
			windowSec := int64(60)
			if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
					windowSec = n
				}
			}
			rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
			r.Use(rateLimiter.RateLimitMiddleware)
		}
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	form := r.Group("/api/invoice-form")
	form.GET("/schema", api.schemaHandler)
	form.POST("/sessions", api.createSessionHandler)
	form.GET("/sessions/:id", api.getSessionHandler)
	form.DELETE("/sessions/:id", api.deleteSessionHandler)
	form.POST("/sessions/:id/reset", api.resetSessionHandler)
	form.PUT("/sessions/:id/fields/:name", api.setFieldHandler)
	form.POST("/sessions/:id/items", api.addItemHandler)
	form.PUT("/sessions/:id/items/:index", api.setItemHandler)
	form.DELETE("/sessions/:id/items/:index", api.removeItemHandler)
	form.POST("/sessions/:id/draft", requireDB, api.saveDraftHandler)

	drafts := r.Group("/api/invoice-drafts", requireDB)
	drafts.GET("", api.listDraftsHandler)
	drafts.GET("/export", api.draftExportHandler)
	drafts.GET("/:id", api.getDraftHandler)
	drafts.GET("/:id/pdf", api.draftPdfHandler)

	r.NoRoute(customNotFoundHandler)

	// Start listening before the DB is up; draft endpoints return 503 until
	// the connection is established.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("invoice form API listening on :", port)

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
