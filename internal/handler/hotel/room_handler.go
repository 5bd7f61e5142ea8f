package hotel

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romsreu/hotel-premier/internal/common/handler"
	"github.com/romsreu/hotel-premier/internal/common/response"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	hotelService "github.com/romsreu/hotel-premier/internal/service/hotel"
)

// RoomHandler 房间与房态处理器
type RoomHandler struct {
	roomService  *hotelService.RoomService
	queryService *hotelService.QueryService
	clock        utils.Clock
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(roomSvc *hotelService.RoomService, querySvc *hotelService.QueryService, clock utils.Clock) *RoomHandler {
	return &RoomHandler{
		roomService:  roomSvc,
		queryService: querySvc,
		clock:        clock,
	}
}

// MaintenanceRequest 停用请求，end_date 为空表示无限期
type MaintenanceRequest struct {
	State     models.RoomState `json:"state" binding:"required,oneof=MAINTENANCE OUT_OF_ORDER"`
	StartDate string           `json:"start_date" binding:"required"`
	EndDate   string           `json:"end_date"`
}

// ReturnRequest 恢复可用请求
type ReturnRequest struct {
	StartDate string `json:"start_date" binding:"required"`
}

// RoomStateResult 单日房态
type RoomStateResult struct {
	Room  int              `json:"room"`
	Date  string           `json:"date"`
	State models.RoomState `json:"state"`
}

// ListRooms 获取房间列表
// @Summary 获取房间列表
// @Tags 房间
// @Produce json
// @Param floor query int false "楼层"
// @Param type query int false "房型ID"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/v1/rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	floor, ok := handler.ParseQueryInt(c, "floor", "无效的楼层")
	if !ok {
		return
	}
	typeID, ok := handler.ParseQueryID(c, "type", "房型")
	if !ok {
		return
	}

	var roomTypeID int64
	if typeID != nil {
		roomTypeID = *typeID
	}
	rooms, err := h.roomService.ListRooms(c.Request.Context(), floor, roomTypeID)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessList(c, rooms, int64(len(rooms)))
}

// ListRoomTypes 获取房型列表
// @Summary 获取房型列表
// @Tags 房间
// @Produce json
// @Success 200 {object} response.Response{data=[]hotelService.RoomTypeInfo}
// @Router /api/v1/room-types [get]
func (h *RoomHandler) ListRoomTypes(c *gin.Context) {
	types, err := h.roomService.ListRoomTypes(c.Request.Context())
	handler.MustSucceed(c, err, types)
}

// GetRoom 获取房间详情
// @Summary 获取房间详情
// @Tags 房间
// @Produce json
// @Param number path int true "房间号"
// @Success 200 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/v1/rooms/{number} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	number, ok := handler.ParseRoomNumber(c)
	if !ok {
		return
	}

	info, err := h.roomService.GetRoomInfo(c.Request.Context(), number)
	handler.MustSucceed(c, err, info)
}

// GetRoomState 获取房间某天的房态，默认今天
// @Summary 获取房间房态
// @Tags 房态
// @Produce json
// @Param number path int true "房间号"
// @Param date query string false "日期"
// @Success 200 {object} response.Response{data=RoomStateResult}
// @Router /api/v1/rooms/{number}/state [get]
func (h *RoomHandler) GetRoomState(c *gin.Context) {
	number, ok := handler.ParseRoomNumber(c)
	if !ok {
		return
	}
	day, ok := handler.ParseQueryDate(c, "date", "无效的日期格式")
	if !ok {
		return
	}
	date := h.clock.Today()
	if day != nil {
		date = *day
	}

	ctx := c.Request.Context()
	if _, err := h.roomService.GetRoom(ctx, number); handler.HandleError(c, err) {
		return
	}
	state, err := h.queryService.CurrentState(ctx, number, date)
	handler.MustSucceed(c, err, RoomStateResult{Room: number, Date: utils.FormatDate(date), State: state})
}

// GetRoomStates 获取多个房间在日期区间内的逐日房态
// @Summary 批量查询房态
// @Tags 房态
// @Produce json
// @Param rooms query string true "房间号，逗号分隔"
// @Param from query string true "开始日期"
// @Param to query string true "结束日期"
// @Success 200 {object} response.Response{data=map[int]map[string]string}
// @Router /api/v1/rooms/states [get]
func (h *RoomHandler) GetRoomStates(c *gin.Context) {
	rooms, ok := handler.ParseQueryIntList(c, "rooms", "无效的房间列表")
	if !ok {
		return
	}
	if len(rooms) == 0 {
		response.BadRequest(c, "请指定房间")
		return
	}
	from, to, ok := handler.ParseRequiredQueryDateRange(c)
	if !ok {
		return
	}

	grid, err := h.queryService.RoomStatesByDay(c.Request.Context(), rooms, from, to)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, grid.ByRoom())
}

// AvailableRooms 获取日期区间内全部可用的房间
// @Summary 查询可预订房间
// @Tags 房态
// @Produce json
// @Param from query string true "开始日期"
// @Param to query string true "结束日期"
// @Param type query int false "房型ID"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/v1/rooms/available [get]
func (h *RoomHandler) AvailableRooms(c *gin.Context) {
	from, to, ok := handler.ParseRequiredQueryDateRange(c)
	if !ok {
		return
	}
	typeID, ok := handler.ParseQueryID(c, "type", "房型")
	if !ok {
		return
	}

	var roomTypeID int64
	if typeID != nil {
		roomTypeID = *typeID
	}
	rooms, err := h.queryService.AvailableRooms(c.Request.Context(), from, to, roomTypeID)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessList(c, rooms, int64(len(rooms)))
}

// TakeOutOfService 房间停用
// @Summary 房间停用
// @Tags 房间
// @Accept json
// @Produce json
// @Param number path int true "房间号"
// @Param request body MaintenanceRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{number}/maintenance [post]
func (h *RoomHandler) TakeOutOfService(c *gin.Context) {
	number, ok := handler.ParseRoomNumber(c)
	if !ok {
		return
	}
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	from, err := handler.ParseDate(req.StartDate)
	if err != nil {
		response.BadRequest(c, "无效的开始日期格式")
		return
	}
	var to *time.Time
	if req.EndDate != "" {
		end, err := handler.ParseDate(req.EndDate)
		if err != nil {
			response.BadRequest(c, "无效的结束日期格式")
			return
		}
		to = &end
	}

	err = h.roomService.TakeOutOfService(c.Request.Context(), number, req.State, from, to)
	handler.MustSucceedWithMessage(c, err, "房间已停用", nil)
}

// ReturnToService 房间恢复可用
// @Summary 房间恢复可用
// @Tags 房间
// @Accept json
// @Produce json
// @Param number path int true "房间号"
// @Param request body ReturnRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{number}/return [post]
func (h *RoomHandler) ReturnToService(c *gin.Context) {
	number, ok := handler.ParseRoomNumber(c)
	if !ok {
		return
	}
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	from, err := handler.ParseDate(req.StartDate)
	if err != nil {
		response.BadRequest(c, "无效的开始日期格式")
		return
	}

	err = h.roomService.ReturnToService(c.Request.Context(), number, from)
	handler.MustSucceedWithMessage(c, err, "房间已恢复可用", nil)
}

// ReleaseQuarantine 人工核对后解除房间隔离
// @Summary 解除房间隔离
// @Tags 房间
// @Produce json
// @Param number path int true "房间号"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{number}/quarantine/release [post]
func (h *RoomHandler) ReleaseQuarantine(c *gin.Context) {
	number, ok := handler.ParseRoomNumber(c)
	if !ok {
		return
	}

	err := h.roomService.ReleaseQuarantine(c.Request.Context(), number)
	handler.MustSucceedWithMessage(c, err, "房间已解除隔离", nil)
}

// RegisterRoutes 注册房态与预订路由
func RegisterRoutes(rg *gin.RouterGroup, reservations *ReservationHandler, rooms *RoomHandler) {
	rg.POST("/reservations", reservations.CreateReservation)
	rg.POST("/reservations/batch", reservations.CreateMultiple)
	rg.GET("/reservations", reservations.ListReservations)
	rg.GET("/reservations/:id", reservations.GetReservation)
	rg.POST("/reservations/:id/check-in", reservations.CheckIn)
	rg.POST("/reservations/:id/cancel", reservations.CancelReservation)

	rg.GET("/room-types", rooms.ListRoomTypes)
	rg.GET("/rooms", rooms.ListRooms)
	rg.GET("/rooms/states", rooms.GetRoomStates)
	rg.GET("/rooms/available", rooms.AvailableRooms)
	rg.GET("/rooms/:number", rooms.GetRoom)
	rg.GET("/rooms/:number/state", rooms.GetRoomState)
	rg.POST("/rooms/:number/maintenance", rooms.TakeOutOfService)
	rg.POST("/rooms/:number/return", rooms.ReturnToService)
	rg.POST("/rooms/:number/quarantine/release", rooms.ReleaseQuarantine)
}
