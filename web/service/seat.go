package service

import (
	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/database/model"

	"gorm.io/gorm"
)

// SeatService reads the floor plan. Seats are maintained by operators from the
// command line, never from the web UI.
type SeatService struct {
	db *gorm.DB
}

func NewSeatService(db *gorm.DB) *SeatService {
	return &SeatService{db: db}
}

func (s *SeatService) GetSeats() ([]model.Seat, error) {
	return database.QueryAll(s.db, "seats_all", model.DecodeSeat)
}

func (s *SeatService) GetSeat(id int) (*model.Seat, error) {
	return database.QueryOne(s.db, "seat_by_id", model.DecodeSeat, id)
}

// AddSeat stores a new seat.
func (s *SeatService) AddSeat(seat *model.Seat) error {
	if _, err := model.ParseSeatType(string(seat.Type)); err != nil {
		return err
	}
	if _, err := model.ParseAvailabilityStatus(string(seat.Availability)); err != nil {
		return err
	}
	return database.Translate(s.db.Create(seat).Error)
}

// GroupSeats splits seats by type, keeping their order.
func GroupSeats(seats []model.Seat) map[model.SeatType][]model.Seat {
	groups := make(map[model.SeatType][]model.Seat, len(model.SeatTypes))
	for _, t := range model.SeatTypes {
		groups[t] = []model.Seat{}
	}
	for _, seat := range seats {
		groups[seat.Type] = append(groups[seat.Type], seat)
	}
	return groups
}
