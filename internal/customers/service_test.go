package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prejin2310/megora-inventory/pkg/db/dbtest"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T, name string) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t, name)))
	require.NoError(t, err)
	return svc
}

func TestServiceCreateAndGetCustomer(t *testing.T) {
	svc := newTestService(t, "customers_create")
	ctx := context.Background()

	created, err := svc.CreateCustomer(ctx, uuid.New(), CreateCustomerInput{
		Name:  " Anjali Menon ",
		Email: strPtr(" Anjali@Example.com "),
		Phone: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Anjali Menon", created.Name)
	require.NotNil(t, created.Email)
	assert.Equal(t, "anjali@example.com", *created.Email)
	assert.Nil(t, created.Phone)

	loaded, err := svc.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	_, err = svc.GetCustomer(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceCreateCustomerValidation(t *testing.T) {
	svc := newTestService(t, "customers_validation")
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, uuid.Nil, CreateCustomerInput{Name: "a"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateCustomer(ctx, uuid.New(), CreateCustomerInput{Name: "  "})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateCustomer(ctx, uuid.New(), CreateCustomerInput{Name: "a", Email: strPtr("not-an-email")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateCustomer(t *testing.T) {
	svc := newTestService(t, "customers_update")
	ctx := context.Background()
	created, err := svc.CreateCustomer(ctx, uuid.New(), CreateCustomerInput{Name: "Riya", Phone: strPtr("98470 00000")})
	require.NoError(t, err)

	updated, err := svc.UpdateCustomer(ctx, uuid.New(), created.ID, UpdateCustomerInput{
		Address: strPtr("Kochi"),
		Phone:   strPtr(" "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Riya", updated.Name)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "Kochi", *updated.Address)
	assert.Nil(t, updated.Phone)

	reloaded, err := svc.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Phone)

	_, err = svc.UpdateCustomer(ctx, uuid.New(), created.ID, UpdateCustomerInput{Name: strPtr("")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceListCustomersSearchAndPaging(t *testing.T) {
	svc := newTestService(t, "customers_list")
	ctx := context.Background()
	for _, name := range []string{"Meera", "Mehul", "Zoya"} {
		_, err := svc.CreateCustomer(ctx, uuid.New(), CreateCustomerInput{Name: name})
		require.NoError(t, err)
	}

	matches, err := svc.ListCustomers(ctx, ListCustomersInput{Search: "ME", Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, matches.Customers, 2)

	first, err := svc.ListCustomers(ctx, ListCustomersInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListCustomers(ctx, ListCustomersInput{Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.NotContains(t, []uuid.UUID{first.Customers[0].ID, first.Customers[1].ID}, second.Customers[0].ID)
}

func TestServiceNamesByID(t *testing.T) {
	svc := newTestService(t, "customers_names")
	ctx := context.Background()
	created, err := svc.CreateCustomer(ctx, uuid.New(), CreateCustomerInput{Name: "Nila"})
	require.NoError(t, err)

	names, err := svc.NamesByID(ctx, []uuid.UUID{created.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{created.ID: "Nila"}, names)
}
