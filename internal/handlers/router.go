package handlers

import (
	"errors"
	"net/http"

	_ "invoicedesk/docs"
	"invoicedesk/internal/caching"
	"invoicedesk/internal/common"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/services"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterDeps is everything the API surface needs
type RouterDeps struct {
	Auth         *middleware.JWTAuth
	RateLimiter  *middleware.RateLimiter
	Idempotency  caching.IdempotencyStore
	Invoices     services.InvoiceService
	Transactions services.TransactionService
	Documents    services.DocumentService
	Accounts     services.AuthService
	Health       *HealthHandlers
}

// NewRouter builds the echo instance with every route under /api
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	if d.Health != nil {
		e.GET("/health", d.Health.HealthCheck)
		e.GET("/health/ready", d.Health.ReadinessCheck)
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	var limit []echo.MiddlewareFunc
	if d.RateLimiter != nil {
		limit = append(limit, d.RateLimiter.Middleware())
	}

	api := e.Group("/api")

	// anonymous callers are limited per IP, everyone else per actor
	authHandlers := NewAuthHandlers(d.Accounts)
	api.POST("/auth/register", authHandlers.Register, limit...)
	api.POST("/auth/token", authHandlers.Token, limit...)

	protected := api.Group("", append([]echo.MiddlewareFunc{d.Auth.Middleware()}, limit...)...)

	protected.GET("/auth/profile", authHandlers.Profile)

	idempotent := func(h echo.HandlerFunc) echo.HandlerFunc { return h }
	if d.Idempotency != nil {
		idempotent = middleware.Idempotency(d.Idempotency)
	}

	invoiceHandlers := NewInvoiceHandlers(d.Invoices, d.Documents)
	protected.POST("/invoices", idempotent(invoiceHandlers.CreateInvoice))
	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.PATCH("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.PATCH("/invoices/:id/pay", idempotent(invoiceHandlers.PayInvoice))
	protected.POST("/invoices/:id/pdf", invoiceHandlers.ExportInvoicePDF)

	transactionHandlers := NewTransactionHandlers(d.Transactions)
	protected.GET("/transactions", transactionHandlers.ListTransactions)
	protected.GET("/transactions/:id", transactionHandlers.GetTransaction)

	return e
}

// httpErrorHandler writes router-level errors (unknown route, wrong method)
// in the same envelope as domain errors
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = common.SendAppError(c, err)
		return
	}

	code := "CLIENT_ERROR"
	switch he.Code {
	case http.StatusNotFound:
		code = string(common.KindNotFound)
	case http.StatusUnauthorized:
		code = string(common.KindAuthenticationRequired)
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		code = "RATE_LIMITED"
	}
	if he.Code >= http.StatusInternalServerError {
		code = "SERVER_ERROR"
	}

	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok {
		message = m
	}
	_ = c.JSON(he.Code, common.CreateErrorResponse(code, message, nil))
}
