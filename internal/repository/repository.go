package repository

import (
	"context"
	"time"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

// --- Rooms ---

type RoomsRepo interface {
	ListRooms(ctx context.Context, tenantID string) ([]*domain.Room, error)
	GetRoom(ctx context.Context, tenantID, roomID string) (*domain.Room, error)
	CreateRoom(ctx context.Context, tenantID string, room *domain.Room) (string, error)
	UpdateRoom(ctx context.Context, tenantID, roomID string, payload map[string]any) (*domain.Room, error)
	DeleteRoom(ctx context.Context, tenantID, roomID string) error

	// ListPollTargets crosses tenants: every active room with an
	// installed sensor and a gateway device, for the background poller.
	ListPollTargets(ctx context.Context) ([]*domain.Room, error)
}

// --- Clients ---

type ClientsRepo interface {
	ListClients(ctx context.Context, tenantID string) ([]*domain.Client, error)
	GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error)
	CreateClient(ctx context.Context, tenantID string, client *domain.Client) (string, error)
	UpdateClient(ctx context.Context, tenantID, clientID string, payload map[string]any) (*domain.Client, error)
	DeleteClient(ctx context.Context, tenantID, clientID string) error
}

// --- Cash movements ---

type CashRepo interface {
	// ListMovements returns the tenant ledger between from and to
	// (zero times drop the bound), newest first.
	ListMovements(ctx context.Context, tenantID string, from, to time.Time) ([]*domain.CashMovement, error)
	CreateMovement(ctx context.Context, tenantID string, m *domain.CashMovement) (string, error)
	SumMovements(ctx context.Context, tenantID string) (in float64, out float64, err error)
}

// --- Crate types ---

type CrateTypesRepo interface {
	ListCrateTypes(ctx context.Context, tenantID string) ([]*domain.CrateType, error)
	GetCrateType(ctx context.Context, tenantID, crateTypeID string) (*domain.CrateType, error)
	CreateCrateType(ctx context.Context, tenantID string, ct *domain.CrateType) (string, error)
	UpdateCrateType(ctx context.Context, tenantID, crateTypeID string, payload map[string]any) (*domain.CrateType, error)
	DeleteCrateType(ctx context.Context, tenantID, crateTypeID string) error
}

// --- Settings ---

type SettingsRepo interface {
	// GetSettings returns nil (no error) when the tenant has no
	// document for the section yet.
	GetSettings(ctx context.Context, tenantID, section string) (*domain.TenantSettings, error)
	// MergeSettings shallow-merges patch keys into the stored document
	// and returns the merged result.
	MergeSettings(ctx context.Context, tenantID, section string, patch map[string]any) (*domain.TenantSettings, error)
}

// --- Tenants (platform level) ---

type TenantsRepo interface {
	ListTenants(ctx context.Context) ([]*domain.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error)
	UpdateTenant(ctx context.Context, tenantID string, payload map[string]any) (*domain.Tenant, error)
	DeleteTenant(ctx context.Context, tenantID string) error
}
