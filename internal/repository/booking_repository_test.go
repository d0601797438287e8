package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/dbtest"
)

func TestCreateBookingPricesAndStores(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewBookingRepo(db)
	shop := dbtest.InsertShop(t, db, "Lens Hub", "Colombo", 4.5, 0)
	tpl := dbtest.InsertTemplate(t, db, 1, "Alpha A7 IV", "Sony", "ILCE-7M4")
	dbtest.InsertInventory(t, db, tpl, shop, 1, 1, "1234.57")

	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	out, err := repo.Create(ctx(), NewBooking{
		UserName:     "Nimal Perera",
		UserContact:  "0771234567",
		EquipmentID:  tpl,
		ShopID:       shop,
		StartDate:    &start,
		DurationDays: 3,
	})
	require.NoError(t, err)
	assert.NotZero(t, out.RequestID)
	assert.Equal(t, "3703.71", out.EstimatedTotal.StringFixed(2))
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "Lens Hub", out.ShopName)
	assert.Equal(t, 1, dbtest.Count(t, db, "booking_requests", "request_status = 'pending' AND whatsapp_sent = 1"))

	counts, err := repo.Counts(ctx(), shop)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Total)
	assert.EqualValues(t, 1, counts.Pending)

	recent, err := repo.Recent(ctx(), shop, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Alpha A7 IV", recent[0].EquipmentName)
}

func TestCreateBookingRejectsUnknownOrEmptyListing(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewBookingRepo(db)
	shop := dbtest.InsertShop(t, db, "Lens Hub", "Colombo", 4.5, 0)
	other := dbtest.InsertShop(t, db, "Pixel Rentals", "Colombo", 4.1, 0)
	tpl := dbtest.InsertTemplate(t, db, 1, "Alpha A7 IV", "Sony", "ILCE-7M4")
	dbtest.InsertInventory(t, db, tpl, shop, 0, 2, "4500")

	_, err := repo.Create(ctx(), NewBooking{UserName: "Nimal", EquipmentID: tpl, ShopID: other, DurationDays: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Create(ctx(), NewBooking{UserName: "Nimal", EquipmentID: tpl, ShopID: shop, DurationDays: 1})
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.Equal(t, 0, dbtest.Count(t, db, "booking_requests", ""))
}
