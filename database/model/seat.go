package model

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
)

type SeatType string

const (
	SeatDesk          SeatType = "desk"
	SeatChair         SeatType = "chair"
	SeatComputerChair SeatType = "computer_chair"
	SeatPouf          SeatType = "pouf"
)

// SeatTypes lists the seat types in display order.
var SeatTypes = []SeatType{SeatChair, SeatComputerChair, SeatDesk, SeatPouf}

// ParseSeatType rejects values that are not a known seat type.
func ParseSeatType(s string) (SeatType, error) {
	switch t := SeatType(s); t {
	case SeatDesk, SeatChair, SeatComputerChair, SeatPouf:
		return t, nil
	}
	return "", fmt.Errorf("unknown seat type %q", s)
}

func (t SeatType) Value() (driver.Value, error) {
	if _, err := ParseSeatType(string(t)); err != nil {
		return nil, err
	}
	return string(t), nil
}

type AvailabilityStatus string

const (
	Unavailable AvailabilityStatus = "unavailable"
	Taken       AvailabilityStatus = "taken"
	Free        AvailabilityStatus = "free"
)

// ParseAvailabilityStatus rejects unknown values. The misspelled "talen" is still
// found in old rows and means taken.
func ParseAvailabilityStatus(s string) (AvailabilityStatus, error) {
	switch a := AvailabilityStatus(s); a {
	case Unavailable, Taken, Free:
		return a, nil
	case "talen":
		return Taken, nil
	}
	return "", fmt.Errorf("unknown availability status %q", s)
}

func (a AvailabilityStatus) Value() (driver.Value, error) {
	if _, err := ParseAvailabilityStatus(string(a)); err != nil {
		return nil, err
	}
	return string(a), nil
}

// Seat is a read-only record of a bookable place on the floor plan. X, Y and Rot
// override the default position when the seat was moved.
type Seat struct {
	Id           int                `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string             `json:"name" gorm:"not null"`
	Type         SeatType           `json:"type" gorm:"column:type;not null"`
	Availability AvailabilityStatus `json:"availability" gorm:"not null"`
	DefaultX     float64            `json:"defaultX" gorm:"not null;default:0"`
	DefaultY     float64            `json:"defaultY" gorm:"not null;default:0"`
	DefaultRot   float64            `json:"defaultRot" gorm:"not null;default:0"`
	X            *float64           `json:"x"`
	Y            *float64           `json:"y"`
	Rot          *float64           `json:"rot"`
}

func (Seat) TableName() string { return "seats" }

// Position returns the current placement of the seat.
func (s *Seat) Position() (x, y, rot float64) {
	x, y, rot = s.DefaultX, s.DefaultY, s.DefaultRot
	if s.X != nil {
		x = *s.X
	}
	if s.Y != nil {
		y = *s.Y
	}
	if s.Rot != nil {
		rot = *s.Rot
	}
	return x, y, rot
}

// DecodeSeat reads the columns id, name, type, availability, default_x,
// default_y, default_rot, x, y, rot.
func DecodeSeat(row Scanner) (*Seat, error) {
	var (
		id                 sql.NullInt64
		name, typ, avail   sql.NullString
		defX, defY, defRot sql.NullFloat64
		x, y, rot          sql.NullFloat64
	)
	if err := row.Scan(&id, &name, &typ, &avail, &defX, &defY, &defRot, &x, &y, &rot); err != nil {
		return nil, &DecodeError{Entity: "seat", Field: "*", Err: err}
	}
	required := []struct {
		field string
		valid bool
	}{
		{"id", id.Valid}, {"name", name.Valid}, {"type", typ.Valid}, {"availability", avail.Valid},
		{"default_x", defX.Valid}, {"default_y", defY.Valid}, {"default_rot", defRot.Valid},
	}
	for _, r := range required {
		if !r.valid {
			return nil, &DecodeError{Entity: "seat", Field: r.field}
		}
	}

	seatType, err := ParseSeatType(typ.String)
	if err != nil {
		return nil, &DecodeError{Entity: "seat", Field: "type", Err: err}
	}
	availability, err := ParseAvailabilityStatus(avail.String)
	if err != nil {
		return nil, &DecodeError{Entity: "seat", Field: "availability", Err: err}
	}

	return &Seat{
		Id:           int(id.Int64),
		Name:         name.String,
		Type:         seatType,
		Availability: availability,
		DefaultX:     defX.Float64,
		DefaultY:     defY.Float64,
		DefaultRot:   defRot.Float64,
		X:            nullFloat(x),
		Y:            nullFloat(y),
		Rot:          nullFloat(rot),
	}, nil
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
