package cart

import (
	"context"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/metrics"
)

// PriceChange описывает расхождение цены позиции с каталогом.
type PriceChange struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	OldPriceMinor int64  `json:"old_price_minor"`
	NewPriceMinor int64  `json:"new_price_minor"`
}

// QuantityAdjustment описывает срезание количества до остатка каталога.
type QuantityAdjustment struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	OldQuantity int32  `json:"old_quantity"`
	NewQuantity int32  `json:"new_quantity"`
}

// VerifyReport перечисляет применённые при сверке ремонты.
type VerifyReport struct {
	Unavailable    []string             `json:"unavailable"`
	PriceChanged   []PriceChange        `json:"price_changed"`
	Adjusted       []QuantityAdjustment `json:"adjusted"`
	RequiresReview bool                 `json:"requires_review"`
}

// VerifyResult — отчёт о сверке вместе с актуальной проекцией корзины.
type VerifyResult struct {
	Report VerifyReport
	View   domain.CartView
}

// Verify сверяет корзину с каталогом и чинит расхождения: удаляет пропавшие
// товары, обновляет цены до актуальных и срезает количества до остатков.
// Повторный вызов без изменений каталога ничего не меняет и не сохраняет.
func (s *Service) Verify(ctx context.Context, sessionID string) (VerifyResult, error) {
	const op = "verify"
	started := time.Now()
	defer func() { s.metrics.RecordDuration(op, time.Since(started)) }()

	var report VerifyReport
	cart, err := s.runMutation(ctx, sessionID, op, func(cart *domain.Cart) (bool, error) {
		report = VerifyReport{}
		dirty := false

		kept := make([]domain.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			product, err := s.catalog.Get(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					report.Unavailable = append(report.Unavailable, item.Name)
					dirty = true
					continue
				}
				// Недоступный каталог делает сверку бессмысленной: ни одного
				// частичного ремонта не сохраняем.
				return false, err
			}

			if product.PriceMinor != item.PriceMinor {
				report.PriceChanged = append(report.PriceChanged, PriceChange{
					ProductID:     item.ProductID,
					Name:          item.Name,
					OldPriceMinor: item.PriceMinor,
					NewPriceMinor: product.PriceMinor,
				})
				item.PriceMinor = product.PriceMinor
				dirty = true
			}
			if item.Name != product.Name && product.Name != "" {
				item.Name = product.Name
				dirty = true
			}

			if adjusted, clamped := clampToStock(item.Quantity, product); clamped {
				report.Adjusted = append(report.Adjusted, QuantityAdjustment{
					ProductID:   item.ProductID,
					Name:        item.Name,
					OldQuantity: item.Quantity,
					NewQuantity: adjusted,
				})
				item.Quantity = adjusted
				dirty = true
			}

			kept = append(kept, item)
		}

		cart.Items = kept
		report.RequiresReview = len(report.Unavailable) > 0 ||
			len(report.PriceChanged) > 0 || len(report.Adjusted) > 0
		return dirty, nil
	})
	if err != nil {
		s.metrics.RecordOperation(op, resultLabel("", err))
		return VerifyResult{}, err
	}

	if report.RequiresReview {
		s.publishEvent(cart.SessionID, eventCartVerified, verifiedEventPayload{
			Unavailable:    len(report.Unavailable),
			PriceChanged:   len(report.PriceChanged),
			Adjusted:       len(report.Adjusted),
			RequiresReview: true,
		})
	}
	// Ремонты считаются по итоговому отчёту, а не внутри закрытия: оно
	// может выполниться заново при конфликте версий.
	s.metrics.RecordVerifyRepairs(metrics.RepairUnavailable, len(report.Unavailable))
	s.metrics.RecordVerifyRepairs(metrics.RepairPriceChanged, len(report.PriceChanged))
	s.metrics.RecordVerifyRepairs(metrics.RepairAdjusted, len(report.Adjusted))
	s.metrics.RecordOperation(op, metrics.ResultSuccess)
	return VerifyResult{Report: report, View: BuildView(cart)}, nil
}
