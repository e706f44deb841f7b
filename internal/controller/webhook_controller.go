package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/logger"
)

type WebhookController struct {
	reconciler Reconciler
}

func NewWebhookController(r Reconciler) *WebhookController {
	return &WebhookController{reconciler: r}
}

// POST /webhooks/carrier - público, lo llama el carrier.
// Responde 200 salvo que falle el almacenamiento.
func (ctl *WebhookController) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	outcome, err := ctl.reconciler.Reconcile(c.Request.Context(), body)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Webhook no procesado", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": outcome})
}
