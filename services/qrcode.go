package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// OrderQRCode renders a PNG QR code pointing at the customer's order page.
func (s *OrderService) OrderQRCode(ctx context.Context, actor Actor, baseURL string, id uint) ([]byte, error) {
	order, err := s.GetForCustomer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(OrderTrackingURL(baseURL, order.ID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode order qr code: %w", err)
	}
	return png, nil
}

func OrderTrackingURL(baseURL string, orderID uint) string {
	return fmt.Sprintf("%s/orders/%d", strings.TrimRight(baseURL, "/"), orderID)
}
