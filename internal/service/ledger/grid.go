package ledger

import (
	"time"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
)

// RoomDay 房间与日期
type RoomDay struct {
	Room int
	Day  string
}

// Grid 房间每日房态
type Grid map[RoomDay]models.RoomState

// At 返回房间某天的房态，未覆盖的日期视为 DefaultState
func (g Grid) At(room int, day time.Time) models.RoomState {
	if state, ok := g[RoomDay{Room: room, Day: utils.FormatDate(day)}]; ok {
		return state
	}
	return DefaultState
}

// FirstNotIn 返回 [from, to] 中第一个不属于 allowed 的日期及其房态
func (g Grid) FirstNotIn(room int, from, to time.Time, allowed ...models.RoomState) (time.Time, models.RoomState, bool) {
	for _, day := range utils.EachDay(from, to) {
		state := g.At(room, day)
		if !containsState(allowed, state) {
			return day, state, true
		}
	}
	return time.Time{}, "", false
}

// FreeForRange 房间在 [from, to] 每天都可用
func (g Grid) FreeForRange(room int, from, to time.Time) bool {
	_, _, found := g.FirstNotIn(room, from, to, models.RoomStateAvailable)
	return !found
}

// ByRoom 按房间展开为 日期 -> 房态
func (g Grid) ByRoom() map[int]map[string]models.RoomState {
	out := make(map[int]map[string]models.RoomState)
	for key, state := range g {
		days, ok := out[key.Room]
		if !ok {
			days = make(map[string]models.RoomState)
			out[key.Room] = days
		}
		days[key.Day] = state
	}
	return out
}

// sweep 将按 (房间, 开始日期) 排序的区间填入 [from, to] 的网格
func sweep(rooms []int, intervals []*models.StateInterval, from, to time.Time) (Grid, error) {
	days := utils.EachDay(from, to)
	grid := make(Grid, len(rooms)*len(days))
	for _, room := range rooms {
		for _, day := range days {
			grid[RoomDay{Room: room, Day: utils.FormatDate(day)}] = DefaultState
		}
	}

	var prev *models.StateInterval
	for _, iv := range intervals {
		if prev != nil && prev.RoomNumber == iv.RoomNumber {
			if prev.EndDate == nil || !iv.StartDate.After(*prev.EndDate) {
				return nil, overlapError(iv.RoomNumber, prev, iv)
			}
		}
		prev = iv

		start := utils.MaxDate(utils.Date(iv.StartDate), from)
		end := to
		if iv.EndDate != nil && iv.EndDate.Before(to) {
			end = utils.Date(*iv.EndDate)
		}
		for _, day := range utils.EachDay(start, end) {
			grid[RoomDay{Room: iv.RoomNumber, Day: utils.FormatDate(day)}] = iv.State
		}
	}
	return grid, nil
}

func overlapError(room int, a, b *models.StateInterval) error {
	return errors.ErrInvariantViolation.WithMessagef("房间 %d 区间重叠：%s 与 %s", room, describe(a), describe(b))
}

// describe 区间的可读形式
func describe(iv *models.StateInterval) string {
	end := "∞"
	if iv.EndDate != nil {
		end = utils.FormatDate(*iv.EndDate)
	}
	return string(iv.State) + "[" + utils.FormatDate(iv.StartDate) + "~" + end + "]"
}

func containsState(states []models.RoomState, s models.RoomState) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
