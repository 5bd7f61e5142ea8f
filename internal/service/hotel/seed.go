package hotel

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
)

// RoomsPerFloor 每层房间数
const RoomsPerFloor = 24

// RoomTypeSeed 房型种子数据
type RoomTypeSeed struct {
	Name        string
	Description string
	Capacity    int
	NightlyCost float64
	Count       int
}

// DefaultCatalog 默认房型目录，按顺序分配房间号
var DefaultCatalog = []RoomTypeSeed{
	{"Individual Estándar", "Habitación individual con cama simple", 1, 80, 10},
	{"Doble Estándar", "Habitación doble con dos camas individuales o una matrimonial", 2, 120, 18},
	{"Doble Superior", "Habitación doble amplia con amenities premium", 2, 150, 8},
	{"Superior Family Plan", "Habitación familiar con espacio adicional", 4, 200, 10},
	{"Suite Doble", "Suite de lujo con sala de estar separada", 2, 300, 2},
}

// DemoGuests 演示住客数量
const DemoGuests = 10

// Seeder 初始化房型、房间与台账，可重复执行
type Seeder struct {
	db       *gorm.DB
	roomRepo *repository.RoomRepository
	ledger   StateLedger
	clock    utils.Clock
	catalog  []RoomTypeSeed
}

// NewSeeder 创建数据初始化器，catalog 为空时使用 DefaultCatalog
func NewSeeder(db *gorm.DB, stateLedger StateLedger, clock utils.Clock, catalog []RoomTypeSeed) *Seeder {
	if len(catalog) == 0 {
		catalog = DefaultCatalog
	}
	return &Seeder{
		db:       db,
		roomRepo: repository.NewRoomRepository(db),
		ledger:   stateLedger,
		clock:    clock,
		catalog:  catalog,
	}
}

// SeedResult 初始化结果
type SeedResult struct {
	RoomTypesCreated int `json:"room_types_created"`
	RoomsCreated     int `json:"rooms_created"`
	GuestsCreated    int `json:"guests_created"`
}

// Seed 创建缺失的房型与房间，新房间自今天起可用
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	today := s.clock.Today()
	floor, onFloor := 1, 0

	for _, seed := range s.catalog {
		roomType, created, err := s.ensureRoomType(ctx, seed)
		if err != nil {
			return result, err
		}
		if created {
			result.RoomTypesCreated++
		}

		for i := 0; i < seed.Count; i++ {
			number := RoomNumber(floor, onFloor+1)
			created, err := s.ensureRoom(ctx, number, floor, roomType.ID)
			if err != nil {
				return result, err
			}
			if created {
				result.RoomsCreated++
			}

			onFloor++
			if onFloor >= RoomsPerFloor {
				floor++
				onFloor = 0
			}
		}
	}

	guests, err := s.ensureGuests(ctx)
	if err != nil {
		return result, err
	}
	result.GuestsCreated = guests

	logger.Info("初始化数据完成", logger.Module(logModule),
		logger.Int("room_types", result.RoomTypesCreated),
		logger.Int("rooms", result.RoomsCreated),
		logger.Int("guests", result.GuestsCreated),
		logger.String("in_service_from", utils.FormatDate(today)),
	)
	return result, nil
}

// RoomNumber 按 <楼层><两位序号> 生成房间号
func RoomNumber(floor, index int) int {
	return floor*100 + index
}

func (s *Seeder) ensureRoomType(ctx context.Context, seed RoomTypeSeed) (*models.RoomType, bool, error) {
	existing, err := s.roomRepo.GetTypeByName(ctx, seed.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	roomType := &models.RoomType{
		Name:        seed.Name,
		Description: utils.StringPtr(seed.Description),
		Capacity:    seed.Capacity,
		NightlyCost: seed.NightlyCost,
	}
	if err := s.roomRepo.CreateType(ctx, roomType); err != nil {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}
	return roomType, true, nil
}

// ensureRoom 创建房间并在同一事务内初始化台账
func (s *Seeder) ensureRoom(ctx context.Context, number, floor int, roomTypeID int64) (bool, error) {
	exists, err := s.roomRepo.Exists(ctx, number)
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return false, nil
	}

	today := s.clock.Today()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room := &models.Room{
			Number:        number,
			RoomTypeID:    roomTypeID,
			Floor:         floor,
			InServiceFrom: today,
		}
		if err := s.roomRepo.WithTx(tx).Create(ctx, room); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		_, err := s.ledger.Bootstrap(ctx, tx, number, today)
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Seeder) ensureGuests(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Guest{}).Count(&count).Error; err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return 0, nil
	}

	guests := make([]*models.Guest, 0, DemoGuests)
	for i := 1; i <= DemoGuests; i++ {
		guests = append(guests, &models.Guest{Name: fmt.Sprintf("Huésped %d", i)})
	}
	if err := s.db.WithContext(ctx).Create(&guests).Error; err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return len(guests), nil
}
