package store

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"spbunet/api/internal/slug"
)

const (
	TypeSPBU = "SPBU"
	TypeSPBE = "SPBE"

	DefaultRegionColor = "#2563eb"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Region struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"`
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	SPBUCount int       `json:"spbu_count"`
	SPBECount int       `json:"spbe_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegionInput struct {
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Color     string   `json:"color"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	SPBUCount int      `json:"spbu_count"`
	SPBECount int      `json:"spbe_count"`
}

// Normalize trims fields, derives the slug from the name when empty and
// applies the default color.
func (in *RegionInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("name required")
	}
	in.Slug = slug.Make(in.Slug)
	if in.Slug == "" {
		in.Slug = slug.Make(in.Name)
	}
	if in.Slug == "" {
		return errors.New("name must contain letters or digits")
	}
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = DefaultRegionColor
	}
	if !hexColor.MatchString(in.Color) {
		return errors.New("color must be a hex value like #1d4ed8")
	}
	if in.SPBUCount < 0 || in.SPBECount < 0 {
		return errors.New("counts must not be negative")
	}
	return nil
}

type Location struct {
	ID        int64     `json:"id"`
	RegionID  int64     `json:"region_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	Hours     string    `json:"hours"`
	Phone     string    `json:"phone"`
	Services  []string  `json:"services"`
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LocationInput struct {
	RegionID int64    `json:"region_id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Address  string   `json:"address"`
	Hours    string   `json:"hours"`
	Phone    string   `json:"phone"`
	Services []string `json:"services"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

func (in *LocationInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("name required")
	}
	if in.RegionID <= 0 {
		return errors.New("region_id required")
	}
	t, ok := NormalizeLocationType(in.Type)
	if !ok {
		return errors.New("type must be SPBU or SPBE")
	}
	in.Type = t
	in.Address = strings.TrimSpace(in.Address)
	in.Hours = strings.TrimSpace(in.Hours)
	in.Phone = strings.TrimSpace(in.Phone)
	services := make([]string, 0, len(in.Services))
	for _, s := range in.Services {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	in.Services = services
	return nil
}

// NormalizeLocationType upper-cases t and reports whether it is a known outlet type.
func NormalizeLocationType(t string) (string, bool) {
	t = strings.ToUpper(strings.TrimSpace(t))
	return t, t == TypeSPBU || t == TypeSPBE
}

type LocationFilter struct {
	RegionID int64
	Type     string
}

type FuelSale struct {
	ID           int64     `json:"id"`
	LocationID   int64     `json:"location_id"`
	LocationName string    `json:"location_name,omitempty"`
	Period       string    `json:"period"`
	Product      string    `json:"product"`
	VolumeKL     float64   `json:"volume_kl"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LPGSale struct {
	ID           int64     `json:"id"`
	LocationID   int64     `json:"location_id"`
	LocationName string    `json:"location_name,omitempty"`
	Period       string    `json:"period"`
	Product      string    `json:"product"`
	VolumeTon    float64   `json:"volume_ton"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SalesFilter struct {
	LocationID int64
	Period     string
}

// ValidPeriod reports whether p is a YYYY-MM month.
func ValidPeriod(p string) bool {
	if len(p) != 7 {
		return false
	}
	_, err := time.Parse("2006-01", p)
	return err == nil
}

func validateSale(locationID int64, period, product string, volume float64) error {
	if locationID <= 0 {
		return errors.New("location_id required")
	}
	if !ValidPeriod(period) {
		return errors.New("period must be YYYY-MM")
	}
	if strings.TrimSpace(product) == "" {
		return errors.New("product required")
	}
	if volume < 0 {
		return errors.New("volume must not be negative")
	}
	return nil
}

func (s *FuelSale) Validate() error {
	s.Product = strings.TrimSpace(s.Product)
	return validateSale(s.LocationID, s.Period, s.Product, s.VolumeKL)
}

func (s *LPGSale) Validate() error {
	s.Product = strings.TrimSpace(s.Product)
	return validateSale(s.LocationID, s.Period, s.Product, s.VolumeTon)
}

type Settings struct {
	MapSVG    string    `json:"map_svg"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminSession struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}
