package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// CheckoutConfig groups dependencies for the checkout handler.
type CheckoutConfig struct {
	Builder *checkout.Builder
	// Idempotency enables Idempotency-Key replay; nil disables it.
	Idempotency *idempotency.Store
	Logger      *zap.Logger
}

// RegisterCheckoutRoutes registers POST /checkout.
func RegisterCheckoutRoutes(r *gin.Engine, cfg CheckoutConfig) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r.POST("/checkout", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, checkout.KindInvalidArgument, "invalid request body: "+err.Error())
			return
		}

		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey != "" && cfg.Idempotency != nil {
			if done := claimKey(c, cfg.Idempotency, idempKey, log); done {
				return
			}
		}

		res, err := cfg.Builder.Create(ctx, req)
		if err != nil {
			kind := checkout.KindOf(err)
			if idempKey != "" && cfg.Idempotency != nil {
				if mErr := cfg.Idempotency.MarkFailed(ctx, idempKey, fmt.Sprintf("%s: %v", kind, err)); mErr != nil {
					log.Warn("failed to mark idempotency key failed", zap.String("idempotency_key", idempKey), zap.Error(mErr))
				}
			}
			writeError(c, httpStatus(kind), kind, errorMessage(err))
			return
		}

		body, err := json.Marshal(res)
		if err != nil {
			writeError(c, http.StatusInternalServerError, checkout.KindInternal, err.Error())
			return
		}
		if idempKey != "" && cfg.Idempotency != nil {
			if mErr := cfg.Idempotency.MarkDone(ctx, idempKey, string(body), http.StatusOK); mErr != nil {
				log.Warn("failed to store checkout response", zap.String("idempotency_key", idempKey), zap.Error(mErr))
			}
		}
		c.Data(http.StatusOK, "application/json", body)
	})
}

// claimKey reserves idempKey for this attempt. It returns true when a
// response has already been written: a replayed result, a conflict, or a
// store failure.
func claimKey(c *gin.Context, store *idempotency.Store, idempKey string, log *zap.Logger) bool {
	ctx := c.Request.Context()

	created, err := store.CreateIfNotExists(ctx, idempKey)
	if err != nil {
		log.Error("idempotency check failed", zap.String("idempotency_key", idempKey), zap.Error(err))
		writeError(c, http.StatusInternalServerError, checkout.KindInternal, "idempotency check failed: "+err.Error())
		return true
	}
	if created {
		return false
	}

	rec, err := store.Get(ctx, idempKey)
	if err != nil {
		writeError(c, http.StatusInternalServerError, checkout.KindInternal, "idempotency check failed: "+err.Error())
		return true
	}
	if rec == nil {
		// expired between the conditional put and the read
		writeError(c, http.StatusConflict, checkout.KindFailedPrecondition, "idempotency key is being reset, retry")
		return true
	}

	switch rec.Status {
	case idempotency.StatusDone:
		status := rec.ResponseStatus
		if status == 0 {
			status = http.StatusOK
		}
		c.Header("Idempotent-Replayed", "true")
		c.Data(status, "application/json", []byte(rec.ResponseBody))
		return true
	case idempotency.StatusInProgress:
		writeError(c, http.StatusConflict, checkout.KindFailedPrecondition, "checkout already in progress for this idempotency key")
		return true
	case idempotency.StatusFailed:
		err := store.Reopen(ctx, idempKey)
		if errors.Is(err, idempotency.ErrConditionFailed) {
			writeError(c, http.StatusConflict, checkout.KindFailedPrecondition, "checkout already in progress for this idempotency key")
			return true
		}
		if err != nil {
			writeError(c, http.StatusInternalServerError, checkout.KindInternal, "idempotency reopen failed: "+err.Error())
			return true
		}
		return false
	default:
		writeError(c, http.StatusInternalServerError, checkout.KindInternal, "unknown idempotency status "+rec.Status)
		return true
	}
}
