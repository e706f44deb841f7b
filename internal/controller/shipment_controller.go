package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/repository"
)

type ShipmentController struct {
	shipments    ShipmentCreator
	orders       OrderFetcher
	refs         ReferenceReader
	fulfillments FulfillmentReader
}

func NewShipmentController(shipments ShipmentCreator, orders OrderFetcher, refs ReferenceReader, fulfillments FulfillmentReader) *ShipmentController {
	return &ShipmentController{shipments: shipments, orders: orders, refs: refs, fulfillments: fulfillments}
}

// POST /shipments - requiere token
func (ctl *ShipmentController) CreateShipment(c *gin.Context) {
	var req dto.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	orders, err := ctl.orders.GetOrders(ctx, req.OrderIDs, c.GetString("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	shipment, err := ctl.shipments.CreateShipment(ctx, orders, req.LineIDs, req.PackageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ShipmentResponse{
		ID:             shipment.ID,
		Status:         shipment.Status,
		TrackingNumber: shipment.TrackingNumber,
	})
}

// GET /admin/shipments/:shipmentId - admin
func (ctl *ShipmentController) GetShipment(c *gin.Context) {
	param := c.Param("shipmentId")
	shipmentID, err := strconv.ParseInt(param, 10, 64)
	if err != nil || shipmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipment id"})
		return
	}

	ctx := c.Request.Context()
	ref, err := ctl.refs.FindByRemoteShipmentID(ctx, shipmentID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "shipment not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	res := dto.ShipmentDetailResponse{Reference: ref}
	f, err := ctl.fulfillments.FindByTrackingCode(ctx, param)
	switch {
	case err == nil:
		res.Fulfillment = f
	case !errors.Is(err, repository.ErrNotFound):
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
