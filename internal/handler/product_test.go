package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankanlens/rental-marketplace/internal/repository"
)

func TestProductHidesContactFromVisitors(t *testing.T) {
	m := seedMarket(t)
	h := NewProductHandler(testConfig(t), repository.NewInventoryRepo(m.db))
	e := newEcho(t)
	target := fmt.Sprintf("/public/product.php?id=%d", m.alphaInv)

	rec := serve(t, e, h.Show, request{target: target})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Alpha A7 IV")
	assert.Contains(t, body, "Rs 1,234.57")
	assert.Contains(t, body, "Log in to contact this shop")
	assert.NotContains(t, body, "0771234567")
	assert.NotContains(t, body, "wa.me")

	rec = serve(t, e, h.Show, request{target: target, as: m.asCustomer()})
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Phone: 0771234567")
	assert.Contains(t, body, "https://wa.me/94771234567?text=")
	assert.Contains(t, body, `id="booking-form"`)
	assert.NotContains(t, body, "Log in to contact this shop")
}

func TestProductMissing(t *testing.T) {
	m := seedMarket(t)
	h := NewProductHandler(testConfig(t), repository.NewInventoryRepo(m.db))
	e := newEcho(t)

	rec := serve(t, e, h.Show, request{target: "/public/product.php?id=9999"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Equipment not found.")

	rec = serve(t, e, h.Show, request{target: "/public/product.php?id=abc"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/public/index.php", rec.Header().Get("Location"))
}
