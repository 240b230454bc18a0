package orders

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"agromart/globals"
	"agromart/models"
	"agromart/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var invoiceSecret = []byte(globals.Getenv("INVOICE_SECRET", "invoice_secret"))

// invoiceQRPayload returns "orderID|timestamp|signature" so a scanned
// invoice can be checked against tampering.
func invoiceQRPayload(orderID string) string {
	data := fmt.Sprintf("%s|%d", orderID, time.Now().Unix())
	h := hmac.New(sha256.New, invoiceSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// Invoice renders one order as a PDF with a signed QR code. Owner
// scoping is the same as Get: admins see any order.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	order, err := h.svc.GetByID(r.Context(), ps.ByName("id"), ownerScope(r))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	qrPNG, err := qrcode.Encode(invoiceQRPayload(order.ID.Hex()), qrcode.Medium, 128)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "AgroMart Order Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Order ID: %s", order.ID.Hex()))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", order.Status))
	pdf.Ln(10)

	addr := order.ShippingAddress
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 7, "Ship to")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, addr.Street)
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%s, %s %s", addr.City, addr.State, addr.ZipCode))
	pdf.Ln(6)
	pdf.Cell(0, 6, addr.Country)
	pdf.Ln(10)

	// Line items
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Product", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(27, 8, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, "Total", "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, item := range order.Items {
		pdf.CellFormat(90, 8, itemLabel(item), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 8, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 8, fmt.Sprintf("%.2f", float64(item.Quantity)*item.Price), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f", order.TotalAmount))
	pdf.Ln(8)
	if order.ComputedTotal != order.TotalAmount {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Computed from items: %.2f", order.ComputedTotal))
		pdf.Ln(6)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("invoice-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("invoice-qr", 150, 240, 35, 35, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		http.Error(w, "Failed to render invoice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%s.pdf"`, order.ID.Hex()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func itemLabel(item models.OrderItem) string {
	switch v := item.Product.(type) {
	case ProductBrief:
		return v.Name
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
