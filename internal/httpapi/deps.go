package httpapi

import (
	"context"

	"spbunet/api/internal/store"
	"spbunet/api/internal/supabase"

	"github.com/google/uuid"
)

// Store is the subset of *store.Store the handlers use.
type Store interface {
	ListRegions(ctx context.Context) ([]store.Region, error)
	GetRegion(ctx context.Context, id int64) (store.Region, error)
	CreateRegion(ctx context.Context, in store.RegionInput) (store.Region, error)
	UpdateRegion(ctx context.Context, id int64, in store.RegionInput) (store.Region, error)
	DeleteRegion(ctx context.Context, id int64) error

	ListLocations(ctx context.Context, f store.LocationFilter) ([]store.Location, error)
	GetLocation(ctx context.Context, id int64) (store.Location, error)
	CreateLocation(ctx context.Context, in store.LocationInput) (store.Location, error)
	UpdateLocation(ctx context.Context, id int64, in store.LocationInput) (store.Location, error)
	DeleteLocation(ctx context.Context, id int64) error

	ListFuelSales(ctx context.Context, f store.SalesFilter) ([]store.FuelSale, error)
	UpsertFuelSales(ctx context.Context, in []store.FuelSale) ([]store.FuelSale, error)
	DeleteFuelSale(ctx context.Context, id int64) error
	ListLPGSales(ctx context.Context, f store.SalesFilter) ([]store.LPGSale, error)
	UpsertLPGSales(ctx context.Context, in []store.LPGSale) ([]store.LPGSale, error)
	DeleteLPGSale(ctx context.Context, id int64) error

	ListRegionStats(ctx context.Context) ([]store.RegionStat, error)
	GetRegionStat(ctx context.Context, key string) (store.RegionStat, error)
	UpsertRegionStat(ctx context.Context, st store.RegionStat) (store.RegionStat, error)
	DeleteRegionStat(ctx context.Context, key string) error
	RecomputeAll(ctx context.Context) (store.RegionStat, error)

	GetSettings(ctx context.Context) (store.Settings, error)
	PutSettings(ctx context.Context, mapSVG string) (store.Settings, error)

	CreateSession(ctx context.Context, sess store.AdminSession) error
	GetSession(ctx context.Context, id uuid.UUID) (store.AdminSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// Auth is the hosted auth service (*supabase.Client).
type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, token, otpType string) (*supabase.Session, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	SignOut(ctx context.Context, accessToken string) error
	CreateUser(ctx context.Context, email, password string) (*supabase.User, error)
	FindUserByEmail(ctx context.Context, email string) (*supabase.User, error)
}
