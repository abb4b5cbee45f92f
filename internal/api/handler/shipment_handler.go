package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boxtrail/transfer-system/internal/core/ports"
)

// ShipmentHandler handles HTTP requests for shipment lifecycle operations.
type ShipmentHandler struct {
	service ports.ShipmentService
}

func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// Create handles POST /v1/shipments.
//
// @Summary      Open a new shipment
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createShipmentRequest  true   "Source base, target base and transfer agreement"
// @Success      201              {object}  createShipmentResponse
// @Failure      400              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      422              {object}  map[string]string
// @Router       /v1/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	var req createShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	result, err := h.service.CreateShipment(c.Request().Context(), ports.CreateShipmentInput{
		SourceBaseID:        req.SourceBaseID,
		TargetBaseID:        req.TargetBaseID,
		TransferAgreementID: req.TransferAgreementID,
		IdempotencyKey:      c.Request().Header.Get("Idempotency-Key"),
		Actor:               actor,
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, toCreateResponse(result))
}

// Get handles GET /v1/shipments/:label.
//
// @Summary      Get a shipment with its contents and timeline
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string  true  "Shipment label identifier (e.g. TR-7A8B9C2D)"
// @Success      200    {object}  shipmentViewResponse
// @Failure      404    {object}  map[string]string
// @Router       /v1/shipments/{label} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	view, err := h.service.GetShipment(c.Request().Context(), c.Param("label"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}

// List handles GET /v1/shipments.
//
// @Summary      List shipments visible to the caller
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        state      query     string  false  "Filter by shipment state"
// @Param        search     query     string  false  "Partial match on label identifier"
// @Param        date_from  query     string  false  "started_on lower bound (RFC 3339)"
// @Param        date_to    query     string  false  "started_on upper bound (RFC 3339)"
// @Param        page       query     int     false  "Page (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  listShipmentsResponse
// @Router       /v1/shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	input := ports.ListShipmentsInput{
		Actor:  actor,
		State:  c.QueryParam("state"),
		Search: c.QueryParam("search"),
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_from must be RFC 3339")
		}
		input.DateFrom = t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_to must be RFC 3339")
		}
		input.DateTo = t
	}
	echo.QueryParamsBinder(c).Int("page", &input.Page).Int("limit", &input.Limit)

	result, err := h.service.ListShipments(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

// UpdateBoxes handles PATCH /v1/shipments/:label/boxes — add and remove boxes
// while the shipment is preparing.
//
// @Summary      Add or remove boxes on a preparing shipment
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string              true  "Shipment label identifier"
// @Param        body   body      updateBoxesRequest  true  "Box labels to add and remove"
// @Success      200    {object}  shipmentViewResponse
// @Failure      404    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Failure      422    {object}  map[string]string
// @Router       /v1/shipments/{label}/boxes [patch]
func (h *ShipmentHandler) UpdateBoxes(c echo.Context) error {
	var req updateBoxesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(req.PreparedBoxLabelIdentifiers) == 0 && len(req.RemovedBoxLabelIdentifiers) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	view, err := h.service.UpdateWhenPreparing(c.Request().Context(), ports.UpdateWhenPreparingInput{
		LabelIdentifier: c.Param("label"),
		PreparedBoxes:   req.PreparedBoxLabelIdentifiers,
		RemovedBoxes:    req.RemovedBoxLabelIdentifiers,
		Actor:           actor,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}

// Send handles POST /v1/shipments/:label/send.
//
// @Summary      Send a prepared shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string  true  "Shipment label identifier"
// @Success      200    {object}  shipmentViewResponse
// @Failure      409    {object}  map[string]string
// @Failure      422    {object}  map[string]string
// @Router       /v1/shipments/{label}/send [post]
func (h *ShipmentHandler) Send(c echo.Context) error {
	return h.simpleTransition(c, h.service.SendShipment)
}

// Cancel handles POST /v1/shipments/:label/cancel.
//
// @Summary      Cancel a preparing shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string  true  "Shipment label identifier"
// @Success      200    {object}  shipmentViewResponse
// @Failure      409    {object}  map[string]string
// @Router       /v1/shipments/{label}/cancel [post]
func (h *ShipmentHandler) Cancel(c echo.Context) error {
	return h.simpleTransition(c, h.service.CancelShipment)
}

// MarkLost handles POST /v1/shipments/:label/lost.
//
// @Summary      Mark a sent shipment as lost
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string  true  "Shipment label identifier"
// @Success      200    {object}  shipmentViewResponse
// @Failure      409    {object}  map[string]string
// @Router       /v1/shipments/{label}/lost [post]
func (h *ShipmentHandler) MarkLost(c echo.Context) error {
	return h.simpleTransition(c, h.service.MarkShipmentAsLost)
}

// StartReceiving handles POST /v1/shipments/:label/receive.
//
// @Summary      Start receiving a sent shipment at the target base
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string  true  "Shipment label identifier"
// @Success      200    {object}  shipmentViewResponse
// @Failure      409    {object}  map[string]string
// @Router       /v1/shipments/{label}/receive [post]
func (h *ShipmentHandler) StartReceiving(c echo.Context) error {
	return h.simpleTransition(c, h.service.StartReceivingShipment)
}

// Reconcile handles POST /v1/shipments/:label/reconcile — confirm received
// boxes (with optional corrections) and declare lost ones. The shipment
// completes once every remaining box is resolved.
//
// @Summary      Reconcile received and lost boxes
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        label  path      string            true  "Shipment label identifier"
// @Param        body   body      reconcileRequest  true  "Received detail updates and lost box labels"
// @Success      200    {object}  shipmentViewResponse
// @Failure      404    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Failure      422    {object}  map[string]string
// @Router       /v1/shipments/{label}/reconcile [post]
func (h *ShipmentHandler) Reconcile(c echo.Context) error {
	var req reconcileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	view, err := h.service.UpdateWhenReceiving(c.Request().Context(), toReconcileInput(req, c.Param("label"), actor))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}

func (h *ShipmentHandler) simpleTransition(
	c echo.Context,
	op func(ctx context.Context, label string, actor ports.ActorInput) (*ports.ShipmentView, error),
) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	view, err := op(c.Request().Context(), c.Param("label"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}
