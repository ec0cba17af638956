package request

import (
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"

	"github.com/ticketi/ticketi-api/internal/domain"
)

// Lowercase words joined by single dashes, e.g. "live-music".
var categoryPattern = regexp2.MustCompile(`^(?!-)(?!.*--)[a-z0-9-]{2,40}(?<!-)$`, regexp2.None)

var (
	errCategory      = errors.New("must be a lowercase slug such as live-music")
	errNegativePrice = errors.New("must be a non-negative number")
)

func validCategory(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if s == "" {
		return nil
	}

	ok, err := categoryPattern.MatchString(s)
	if err != nil {
		return fmt.Errorf("categoryPattern.MatchString -> %w", err)
	}
	if !ok {
		return errCategory
	}
	return nil
}

func nonNegative(value interface{}) error {
	var d *decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = &v
	case *decimal.Decimal:
		d = v
	}
	if d != nil && d.IsNegative() {
		return errNegativePrice
	}
	return nil
}

type CreateEventRequest struct {
	Name        string          `json:"name" binding:"required"`
	Location    string          `json:"location" binding:"required"`
	LocationLat *float64        `json:"location_lat"`
	LocationLng *float64        `json:"location_lng"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Date        string          `json:"date" binding:"required" format:"RFC3339"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"49.90"`
	Capacity    int             `json:"capacity" binding:"required"`
	Category    string          `json:"category"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.LocationLat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&req.LocationLng, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Image, is.URL),
		validation.Field(&req.Date, validation.Required, validation.Date(time.RFC3339)),
		validation.Field(&req.Price, validation.By(nonNegative)),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&req.Category, validation.By(validCategory)),
	)
}

func (req *CreateEventRequest) ToDomain() (domain.Event, error) {
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return domain.Event{}, fmt.Errorf("invalid date format: %w", err)
	}

	return domain.Event{
		Name:        req.Name,
		Location:    req.Location,
		LocationLat: req.LocationLat,
		LocationLng: req.LocationLng,
		Description: req.Description,
		Image:       req.Image,
		Date:        date.UTC(),
		Price:       req.Price,
		Capacity:    req.Capacity,
		Category:    req.Category,
		Status:      domain.EventUpcoming,
	}, nil
}

type UpdateEventRequest struct {
	Name        *string          `json:"name"`
	Location    *string          `json:"location"`
	LocationLat *float64         `json:"location_lat"`
	LocationLng *float64         `json:"location_lng"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Date        *string          `json:"date" format:"RFC3339"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string" example:"59.90"`
	Status      *string          `json:"status" enums:"upcoming,ongoing,completed"`
	Category    *string          `json:"category"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&req.Location, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&req.LocationLat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&req.LocationLng, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Image, is.URL),
		validation.Field(&req.Date, validation.NilOrNotEmpty, validation.Date(time.RFC3339)),
		validation.Field(&req.Price, validation.By(nonNegative)),
		validation.Field(&req.Status, validation.NilOrNotEmpty, validation.In(
			string(domain.EventUpcoming), string(domain.EventOngoing), string(domain.EventCompleted),
		)),
		validation.Field(&req.Category, validation.By(validCategory)),
	)
}

func (req *UpdateEventRequest) ToPatch() (domain.EventPatch, error) {
	patch := domain.EventPatch{
		Name:        req.Name,
		Location:    req.Location,
		LocationLat: req.LocationLat,
		LocationLng: req.LocationLng,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
		Category:    req.Category,
	}

	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			return domain.EventPatch{}, fmt.Errorf("invalid date format: %w", err)
		}
		date = date.UTC()
		patch.Date = &date
	}

	if req.Status != nil {
		status := domain.EventStatus(*req.Status)
		patch.Status = &status
	}

	return patch, nil
}
