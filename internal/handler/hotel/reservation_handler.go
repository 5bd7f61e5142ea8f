// Package hotel 提供房态与预订相关的 HTTP Handler
package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/handler"
	"github.com/romsreu/hotel-premier/internal/common/response"
	hotelService "github.com/romsreu/hotel-premier/internal/service/hotel"
)

// ReservationHandler 预订处理器
type ReservationHandler struct {
	reservationService *hotelService.ReservationService
}

// NewReservationHandler 创建预订处理器
func NewReservationHandler(reservationSvc *hotelService.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationSvc,
	}
}

// BatchCreateRequest 批量预订请求
type BatchCreateRequest struct {
	Reservations []*hotelService.CreateReservationRequest `json:"reservations" binding:"required,min=1,max=50,dive,required"`
}

// BatchItem 批量预订单项结果
type BatchItem struct {
	Index       int                           `json:"index"`
	Code        int                           `json:"code"`
	Message     string                        `json:"message"`
	Reservation *hotelService.ReservationInfo `json:"reservation,omitempty"`
}

// CreateReservation 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Param request body hotelService.CreateReservationRequest true "请求参数"
// @Success 200 {object} response.Response{data=hotelService.ReservationInfo}
// @Router /api/v1/reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req hotelService.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	info, err := h.reservationService.CreateReservation(c.Request.Context(), &req)
	handler.MustSucceed(c, err, info)
}

// CreateMultiple 批量创建预订，单项失败不影响其他项
// @Summary 批量创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Param request body BatchCreateRequest true "请求参数"
// @Success 200 {object} response.Response{data=[]BatchItem}
// @Router /api/v1/reservations/batch [post]
func (h *ReservationHandler) CreateMultiple(c *gin.Context) {
	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	results := h.reservationService.CreateMultiple(c.Request.Context(), req.Reservations)
	items := make([]BatchItem, 0, len(results))
	for _, r := range results {
		item := BatchItem{Index: r.Index, Message: "success", Reservation: r.Reservation}
		if r.Err != nil {
			appErr := errors.GetAppError(r.Err)
			item.Code = appErr.Code
			item.Message = appErr.Message
		}
		items = append(items, item)
	}
	response.Success(c, items)
}

// GetReservation 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=hotelService.ReservationInfo}
// @Router /api/v1/reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	info, err := h.reservationService.GetReservation(c.Request.Context(), id)
	handler.MustSucceed(c, err, info)
}

// CheckIn 办理入住
// @Summary 办理入住
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=hotelService.StayInfo}
// @Router /api/v1/reservations/{id}/check-in [post]
func (h *ReservationHandler) CheckIn(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	stay, err := h.reservationService.CheckIn(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "入住成功", stay)
}

// CancelReservation 取消预订
// @Summary 取消预订
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /api/v1/reservations/{id}/cancel [post]
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	err := h.reservationService.CancelReservation(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "预订已取消", nil)
}

// ListReservations 查询预订列表
// 按 guest_id、room（可带 date 或 active=true）或 from/to 之一过滤
// @Summary 查询预订列表
// @Tags 预订
// @Produce json
// @Param guest_id query int false "住客ID"
// @Param room query int false "房间号"
// @Param date query string false "房间在该日的预订"
// @Param active query bool false "仅未入住的有效预订"
// @Param from query string false "开始日期"
// @Param to query string false "结束日期"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/v1/reservations [get]
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	ctx := c.Request.Context()

	guestID, ok := handler.ParseQueryID(c, "guest_id", "住客")
	if !ok {
		return
	}
	if guestID != nil {
		list, err := h.reservationService.ListByGuest(ctx, *guestID)
		h.respondList(c, list, err)
		return
	}

	room, ok := handler.ParseQueryInt(c, "room", "无效的房间号")
	if !ok {
		return
	}
	if room != nil {
		day, ok := handler.ParseQueryDate(c, "date", "无效的日期格式")
		if !ok {
			return
		}
		if day != nil {
			info, err := h.reservationService.FindByRoomAndDate(ctx, *room, *day)
			handler.MustSucceed(c, err, info)
			return
		}

		var list []*hotelService.ReservationInfo
		var err error
		if c.Query("active") == "true" {
			list, err = h.reservationService.ListActiveByRoom(ctx, *room)
		} else {
			list, err = h.reservationService.ListByRoom(ctx, *room)
		}
		h.respondList(c, list, err)
		return
	}

	from, to, ok := handler.ParseRequiredQueryDateRange(c)
	if !ok {
		return
	}
	list, err := h.reservationService.ListByDateRange(ctx, from, to)
	h.respondList(c, list, err)
}

func (h *ReservationHandler) respondList(c *gin.Context, list []*hotelService.ReservationInfo, err error) {
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessList(c, list, int64(len(list)))
}
