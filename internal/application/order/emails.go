package order

import (
	"fmt"
	"html"
	"strings"

	"github.com/partsdesk/backend/internal/domain/order"
)

// confirmationEmail builds the order confirmation sent to the shipping
// contact after capture.
func confirmationEmail(o *order.Order) (subject, body string, recipients []string) {
	subject = fmt.Sprintf("Order %s confirmed", o.Reference())

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you for your order</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been received.</p>", html.EscapeString(o.Reference()))
	b.WriteString("<table><tr><th>SKU</th><th>Item</th><th>Qty</th><th>Unit price</th></tr>")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>",
			html.EscapeString(item.SKU), html.EscapeString(item.Name), item.Quantity, item.UnitPrice.StringFixed(2))
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>Total: <strong>%s %s</strong></p>", o.Total.StringFixed(2), o.Currency)
	if o.PONumber != "" {
		fmt.Fprintf(&b, "<p>PO number: %s</p>", html.EscapeString(o.PONumber))
	}
	fmt.Fprintf(&b, "<p>Payment method: %s</p>", o.PaymentMethod)

	return subject, b.String(), []string{o.ShippingAddress.Email}
}

// trackingEmail builds the shipment notification sent when a tracking
// value changes.
func trackingEmail(o *order.Order) (subject, body string, recipients []string) {
	subject = fmt.Sprintf("Order %s has shipped", o.Reference())

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Your order is on its way</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been handed to the carrier.</p>", html.EscapeString(o.Reference()))
	if o.Carrier != "" {
		fmt.Fprintf(&b, "<p>Carrier: %s</p>", html.EscapeString(o.Carrier))
	}
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "<p>Tracking number: <strong>%s</strong></p>", html.EscapeString(o.TrackingNumber))
	}

	return subject, b.String(), []string{o.ShippingAddress.Email}
}
