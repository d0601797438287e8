package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/dbtest"
)

func TestApproveCreatesExactlyOneShop(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVendorRepo(db)
	vendor := dbtest.InsertUser(t, db, dbtest.User{
		FullName: "Kasun Silva", Email: "kasun@example.lk", Role: "vendor", Status: "pending",
		ShopName: "Silva Studio", WhatsApp: "0771112222",
	})

	res, err := repo.Approve(ctx(), admin, vendor)
	require.NoError(t, err)
	assert.True(t, res.ShopCreated)
	assert.Equal(t, "Silva Studio", res.ShopName)

	var status string
	var approvedBy uint64
	require.NoError(t, db.QueryRow("SELECT status, approved_by FROM users WHERE id=?", vendor).Scan(&status, &approvedBy))
	assert.Equal(t, "active", status)
	assert.Equal(t, admin.UserID, approvedBy)

	var phone, city string
	require.NoError(t, db.QueryRow("SELECT phone, primary_city FROM shops WHERE owner_user_id=?", vendor).Scan(&phone, &city))
	assert.Equal(t, "0771112222", phone, "falls back to the WhatsApp number")
	assert.Equal(t, "Colombo", city)

	entry := lastLog(t, db)
	assert.Equal(t, "VENDOR_APPROVE", entry.Action)
	assert.Equal(t, true, entry.Details["shop_created"])
	assert.EqualValues(t, vendor, entry.Target.Int64)

	_, err = repo.Approve(ctx(), admin, vendor)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "This vendor is already approved.", err.Error())
	assert.Equal(t, 1, dbtest.Count(t, db, "shops", "owner_user_id=?", vendor))
	assert.Equal(t, 1, logCount(t, db))
}

func TestApproveClaimsUnownedShopWithSameName(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVendorRepo(db)
	existing := dbtest.InsertShop(t, db, "Silva Studio", "Galle", 4.2, 0)
	vendor := dbtest.InsertUser(t, db, dbtest.User{
		Email: "kasun@example.lk", Role: "vendor", Status: "pending", ShopName: "Silva Studio",
	})

	res, err := repo.Approve(ctx(), admin, vendor)
	require.NoError(t, err)
	assert.False(t, res.ShopCreated)
	assert.Equal(t, existing, res.ShopID)
	assert.Equal(t, 1, dbtest.Count(t, db, "shops", "kind='vendor'"))
	assert.Equal(t, 1, dbtest.Count(t, db, "shops", "id=? AND owner_user_id=?", existing, vendor))
}

func TestApproveRejectedOrNonVendor(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVendorRepo(db)
	rejected := dbtest.InsertUser(t, db, dbtest.User{Email: "r@example.lk", Role: "vendor", Status: "rejected"})
	customer := dbtest.InsertUser(t, db, dbtest.User{Email: "c@example.lk"})

	_, err := repo.Approve(ctx(), admin, rejected)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "Only pending vendors can be approved.", err.Error())

	_, err = repo.Approve(ctx(), admin, customer)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Vendor not found.", err.Error())

	assert.Equal(t, 0, logCount(t, db))
}

func TestRejectRecordsReason(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVendorRepo(db)
	vendor := dbtest.InsertUser(t, db, dbtest.User{Email: "v@example.lk", Role: "vendor", Status: "pending"})

	require.NoError(t, repo.Reject(ctx(), admin, vendor, "  "))
	entry := lastLog(t, db)
	assert.Equal(t, "VENDOR_REJECT", entry.Action)
	assert.Equal(t, "No reason provided", entry.Details["reason"])
	assert.Equal(t, "pending", entry.Details["previous_status"])

	err := repo.Reject(ctx(), admin, vendor, "duplicate")
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "This vendor cannot be rejected.", err.Error())
	assert.Equal(t, 1, logCount(t, db))
}

func TestVendorListAndCounts(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewVendorRepo(db)
	dbtest.InsertUser(t, db, dbtest.User{Email: "p1@example.lk", Role: "vendor", Status: "pending"})
	dbtest.InsertUser(t, db, dbtest.User{Email: "p2@example.lk", Role: "vendor", Status: "pending"})
	dbtest.InsertUser(t, db, dbtest.User{Email: "a@example.lk", Role: "vendor", Status: "active"})
	dbtest.InsertUser(t, db, dbtest.User{Email: "c@example.lk"})

	counts, err := repo.Counts(ctx())
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts.Pending)
	assert.EqualValues(t, 1, counts.Active)
	assert.EqualValues(t, 3, counts.All)

	rows, err := repo.List(ctx(), "pending")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
