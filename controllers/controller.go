package controllers

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/apperrors"
	"storefront/database"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/models"
	"storefront/sessions"
	"storefront/utils"
)

// EventPublisher receives order events after the order has committed.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// Options wires a Controller. Denylist and Events may be nil.
type Options struct {
	DB       *database.Manager
	Tokens   *utils.TokenManager
	Denylist sessions.Denylist
	Events   EventPublisher
	Verbose  bool
}

// Controller holds the HTTP handlers and their dependencies.
type Controller struct {
	db       *database.Manager
	tokens   *utils.TokenManager
	denylist sessions.Denylist
	events   EventPublisher
	verbose  bool
}

func New(opts Options) *Controller {
	registerJSONFieldNames()
	if opts.Denylist == nil {
		opts.Denylist = sessions.NoopDenylist{}
	}
	return &Controller{
		db:       opts.DB,
		tokens:   opts.Tokens,
		denylist: opts.Denylist,
		events:   opts.Events,
		verbose:  opts.Verbose,
	}
}

var fieldNamesOnce sync.Once

// registerJSONFieldNames makes validation errors name fields the way
// clients send them.
func registerJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// store returns the ready store or answers 503.
func (h *Controller) store(c *gin.Context) (database.Store, bool) {
	store, err := h.db.Store()
	if err != nil {
		h.fail(c, apperrors.Unavailable("Database not initialized", err))
		return nil, false
	}
	return store, true
}

// userID returns the authenticated caller or answers 401.
func (h *Controller) userID(c *gin.Context) (int64, bool) {
	id, err := middlewares.GetUserID(c)
	if err != nil {
		h.fail(c, apperrors.Unauthorized("User not authenticated"))
		return 0, false
	}
	return id, true
}

// fail logs server errors and writes the error body.
func (h *Controller) fail(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Code >= 500 {
		logger.Error(c, appErr.Message, appErr.Err)
	}
	apperrors.Respond(c, appErr, h.verbose)
}

// bindingMessage turns a bind error into the first human-readable problem.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return `"` + fe.Field() + `" is required`
	case "email":
		return `"` + fe.Field() + `" must be a valid email`
	case "min":
		return `"` + fe.Field() + `" length must be at least ` + fe.Param() + ` characters long`
	default:
		return `"` + fe.Field() + `" is invalid`
	}
}
