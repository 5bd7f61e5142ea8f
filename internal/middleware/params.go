package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// 路由参数名，与 handler/hotel.RegisterRoutes 保持一致
const (
	paramRoomNumber    = "number"
	paramReservationID = "id"
)

// routeTarget 请求路径中指向的房间与预订，0 表示不涉及
type routeTarget struct {
	Room        int
	Reservation int64
}

// targetOf 解析 /rooms/:number 与 /reservations/:id，参数非法时视为不涉及
func targetOf(c *gin.Context) routeTarget {
	var t routeTarget
	if v := c.Param(paramRoomNumber); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			t.Room = n
		}
	}
	if v := c.Param(paramReservationID); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			t.Reservation = id
		}
	}
	return t
}
