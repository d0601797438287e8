package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lankanlens/rental-marketplace/internal/model"
	"github.com/lankanlens/rental-marketplace/internal/repository"
)

// VendorsPage is the data of admin/vendors.html.
type VendorsPage struct {
	Status  string
	Counts  repository.VendorCounts
	Vendors []repository.VendorRow
}

// VendorsIndex renders GET /admin/vendor-approvals.php.  The status filter
// defaults to pending applications.
func (h *AdminHandler) VendorsIndex(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "":
		status = string(model.StatusPending)
	case "pending", "active", "rejected", "all":
	default:
		status = "all"
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page := VendorsPage{Status: status}
	var err error
	if page.Counts, err = h.Vendors.Counts(ctx); err != nil {
		return serverError("vendor counts", err)
	}
	if page.Vendors, err = h.Vendors.List(ctx, status); err != nil {
		return serverError("list vendors", err)
	}
	return render(c, http.StatusOK, "admin/vendors.html", "Vendor approvals", page)
}

// DecideVendor applies POST /admin/vendor-approvals.php.
func (h *AdminHandler) DecideVendor(c echo.Context) error {
	action, err := model.ParseVendorAction(c.FormValue("action"))
	if err != nil {
		addFlash(c, flashError, "Invalid action.")
		return redirect(c, back(c))
	}
	id := formID(c.FormValue("user_id"))
	if id == 0 {
		addFlash(c, flashError, "Invalid user ID.")
		return redirect(c, back(c))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	actor := actorOf(c)

	switch action {
	case model.VendorApprove:
		res, err := h.Vendors.Approve(ctx, actor, id)
		msg := fmt.Sprintf("Vendor approved. Shop %q is linked to the account.", res.ShopName)
		if res.ShopCreated {
			msg = fmt.Sprintf("Vendor approved and shop %q created.", res.ShopName)
		}
		flashOutcome(c, err, msg, "approve vendor")
	case model.VendorReject:
		err := h.Vendors.Reject(ctx, actor, id, c.FormValue("reason"))
		flashOutcome(c, err, "Vendor application has been rejected.", "reject vendor")
	}
	return redirect(c, back(c))
}
