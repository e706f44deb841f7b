package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shipment-orchestrator/internal/dto"
)

type CarrierController struct {
	configs ConfigReader
}

func NewCarrierController(configs ConfigReader) *CarrierController {
	return &CarrierController{configs: configs}
}

// GET /carrier/status
func (ctl *CarrierController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CarrierStatusResponse{Configured: ctl.configs.IsConfigured(c.Request.Context())})
}

// GET /carrier/geowidget - token del mapa de puntos de retiro
func (ctl *CarrierController) GeoWidget(c *gin.Context) {
	cfg, err := ctl.configs.Latest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if cfg.GeoWidgetKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "geowidget not configured"})
		return
	}
	c.JSON(http.StatusOK, dto.GeoWidgetResponse{Token: cfg.GeoWidgetKey})
}

// GET /admin/carrier-configs - admin, sin exponer las API keys
func (ctl *CarrierController) ListConfigs(c *gin.Context) {
	configs, err := ctl.configs.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	res := make([]dto.CarrierConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		res = append(res, dto.CarrierConfigResponse{
			ID:               cfg.ID,
			Host:             cfg.Host,
			APIKey:           maskKey(cfg.APIKey),
			Service:          cfg.Service,
			OrganizationID:   cfg.OrganizationID,
			ShippingMethodID: cfg.ShippingMethodID,
			Configured:       cfg.Validate() == nil,
			CreatedAt:        cfg.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, res)
}

// maskKey deja visibles los últimos 4 caracteres.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
