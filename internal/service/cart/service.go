// Package cart реализует операции над корзиной одной сессии: добавление,
// изменение, удаление, очистку, чтение итогов и сверку с каталогом.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	"github.com/vladislavdragonenkov/cart/internal/metrics"
)

// Status — мягкий результат мутации. StockExceeded не является ошибкой:
// мутация применяется в срезанном виде и об этом сообщается вызывающему.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusStockExceeded Status = "stock_exceeded"
)

// UpdateMode задаёт семантику Update.
type UpdateMode string

const (
	UpdateModeSet       UpdateMode = "set"
	UpdateModeIncrement UpdateMode = "increment"
	UpdateModeDecrement UpdateMode = "decrement"
)

// ParseUpdateMode валидирует строковый режим; пустая строка означает set.
func ParseUpdateMode(raw string) (UpdateMode, error) {
	switch UpdateMode(raw) {
	case "":
		return UpdateModeSet, nil
	case UpdateModeSet, UpdateModeIncrement, UpdateModeDecrement:
		return UpdateMode(raw), nil
	default:
		return "", domain.ErrInvalidUpdateMode
	}
}

// MutationResult — результат Add/Update.
type MutationResult struct {
	Status Status
	View   domain.CartView
}

// RemoveResult дополняет результат именем удалённого товара для сообщения пользователю.
type RemoveResult struct {
	RemovedName string
	View        domain.CartView
}

// ClearResult возвращает количество единиц, находившихся в корзине до очистки.
type ClearResult struct {
	ItemsRemoved int32
}

// CountResult — лёгкая read-only сводка корзины.
type CountResult struct {
	TotalItems         int32
	UniqueProductCount int
	IsEmpty            bool
}

// RetryConfig управляет повтором цикла "читать-изменить-сохранить" при
// конфликте версий.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      250 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// Service оркестрирует операции корзины поверх CartRepository и ProductCatalog.
type Service struct {
	repo    domain.CartRepository
	catalog domain.ProductCatalog
	outbox  domain.OutboxRepository
	logger  *log.Entry
	metrics *metrics.CartMetrics
	locks   *sessionLocks
	retry   RetryConfig
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox включает публикацию событий корзины через transactional outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) { s.outbox = outbox }
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetryConfig переопределяет параметры повторов при конфликте версий.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Service) {
		if cfg.MaxAttempts > 0 {
			s.retry = cfg
		}
	}
}

// NewService конструирует сервис корзины с зависимостями.
func NewService(repo domain.CartRepository, catalog domain.ProductCatalog, logger *log.Entry, options ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart-service")
	}
	s := &Service{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		locks:   newSessionLocks(),
		retry:   DefaultRetryConfig(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Add добавляет товар в корзину или увеличивает количество уже добавленного.
// Количество по умолчанию (1) подставляет транспортный слой.
func (s *Service) Add(ctx context.Context, sessionID, productID string, quantity int32) (MutationResult, error) {
	const op = "add"
	started := time.Now()
	defer func() { s.metrics.RecordDuration(op, time.Since(started)) }()

	if productID == "" {
		return s.failMutation(op, domain.ErrProductIDRequired)
	}
	if quantity < domain.MinQuantity || quantity > domain.MaxQuantity {
		return s.failMutation(op, domain.ErrQuantityOutOfRange)
	}

	product, err := s.fetchProduct(ctx, productID, op)
	if err != nil {
		return s.failMutation(op, err)
	}

	var status Status
	cart, err := s.runMutation(ctx, sessionID, op, func(cart *domain.Cart) (bool, error) {
		status = StatusSuccess

		if existing, ok := cart.Find(productID); ok {
			newQuantity := existing.Quantity + quantity
			if newQuantity > domain.MaxQuantity {
				newQuantity = domain.MaxQuantity
			}
			newQuantity, clamped := clampToStock(newQuantity, product)
			if clamped {
				status = StatusStockExceeded
			}
			existing.Quantity = newQuantity
			cart.Put(existing)
			return true, nil
		}

		newQuantity, clamped := clampToStock(quantity, product)
		if clamped {
			status = StatusStockExceeded
		}
		cart.Put(domain.CartItem{
			ProductID:  product.ID,
			Name:       product.Name,
			PriceMinor: product.PriceMinor,
			Quantity:   newQuantity,
			Category:   product.Category,
			Era:        product.Era,
			Year:       product.Year,
			ImageRef:   product.ImageRef,
			AddedAt:    time.Now().UTC(),
		})
		return true, nil
	})
	if err != nil {
		return s.failMutation(op, err)
	}

	s.publishEvent(cart.SessionID, eventCartItemAdded, itemEventPayload{
		ProductID: productID,
		Quantity:  quantity,
		Status:    string(status),
	})
	// Метрики пишутся после runMutation: закрытие может выполниться
	// несколько раз при конфликте версий.
	if status == StatusStockExceeded {
		s.metrics.RecordStockClamp()
	}
	s.metrics.RecordOperation(op, resultLabel(status, nil))
	return MutationResult{Status: status, View: BuildView(cart)}, nil
}

// Update меняет количество уже добавленного товара в режиме set, increment
// или decrement. Decrement никогда не удаляет позицию: нижняя граница — 1.
func (s *Service) Update(ctx context.Context, sessionID, productID string, quantity int32, mode UpdateMode) (MutationResult, error) {
	const op = "update"
	started := time.Now()
	defer func() { s.metrics.RecordDuration(op, time.Since(started)) }()

	if productID == "" {
		return s.failMutation(op, domain.ErrProductIDRequired)
	}
	if quantity < domain.MinQuantity || quantity > domain.MaxQuantity {
		return s.failMutation(op, domain.ErrQuantityOutOfRange)
	}
	switch mode {
	case UpdateModeSet, UpdateModeIncrement, UpdateModeDecrement:
	default:
		return s.failMutation(op, domain.ErrInvalidUpdateMode)
	}

	product, err := s.fetchProduct(ctx, productID, op)
	if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		return s.failMutation(op, err)
	}
	stockSource := domain.Product{}
	if err == nil {
		// Товар мог исчезнуть из каталога после добавления; Update при этом
		// всё ещё работает со снапшотом, просто без ограничения по стоку.
		stockSource = product
	}

	var status Status
	cart, err := s.runMutation(ctx, sessionID, op, func(cart *domain.Cart) (bool, error) {
		status = StatusSuccess

		item, ok := cart.Find(productID)
		if !ok {
			return false, domain.ErrCartItemNotFound
		}

		switch mode {
		case UpdateModeSet:
			item.Quantity = quantity
		case UpdateModeIncrement:
			item.Quantity += quantity
			if item.Quantity > domain.MaxQuantity {
				item.Quantity = domain.MaxQuantity
			}
		case UpdateModeDecrement:
			item.Quantity -= quantity
			if item.Quantity < domain.MinQuantity {
				item.Quantity = domain.MinQuantity
			}
		}

		newQuantity, clamped := clampToStock(item.Quantity, stockSource)
		if clamped {
			status = StatusStockExceeded
		}
		item.Quantity = newQuantity
		cart.Put(item)
		return true, nil
	})
	if err != nil {
		return s.failMutation(op, err)
	}

	s.publishEvent(cart.SessionID, eventCartItemUpdated, itemEventPayload{
		ProductID: productID,
		Quantity:  quantity,
		Mode:      string(mode),
		Status:    string(status),
	})
	if status == StatusStockExceeded {
		s.metrics.RecordStockClamp()
	}
	s.metrics.RecordOperation(op, resultLabel(status, nil))
	return MutationResult{Status: status, View: BuildView(cart)}, nil
}

// Remove удаляет позицию из корзины и возвращает имя товара для сообщения
// пользователю.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (RemoveResult, error) {
	const op = "remove"
	started := time.Now()
	defer func() { s.metrics.RecordDuration(op, time.Since(started)) }()

	if productID == "" {
		s.metrics.RecordOperation(op, resultLabel("", domain.ErrProductIDRequired))
		return RemoveResult{}, domain.ErrProductIDRequired
	}

	var removedName string
	cart, err := s.runMutation(ctx, sessionID, op, func(cart *domain.Cart) (bool, error) {
		removed, ok := cart.Remove(productID)
		if !ok {
			return false, domain.ErrCartItemNotFound
		}
		removedName = removed.Name
		return true, nil
	})
	if err != nil {
		s.metrics.RecordOperation(op, resultLabel("", err))
		return RemoveResult{}, err
	}

	s.publishEvent(cart.SessionID, eventCartItemRemoved, itemEventPayload{ProductID: productID})
	s.metrics.RecordOperation(op, metrics.ResultSuccess)
	return RemoveResult{RemovedName: removedName, View: BuildView(cart)}, nil
}

// Clear безусловно опустошает корзину. Очистка пустой корзины не ошибка.
func (s *Service) Clear(ctx context.Context, sessionID string) (ClearResult, error) {
	const op = "clear"
	started := time.Now()
	defer func() { s.metrics.RecordDuration(op, time.Since(started)) }()

	if sessionID == "" {
		s.metrics.RecordOperation(op, resultLabel("", domain.ErrSessionIDRequired))
		return ClearResult{}, domain.ErrSessionIDRequired
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(sessionID, op)
	if err != nil {
		s.metrics.RecordOperation(op, resultLabel("", err))
		return ClearResult{}, err
	}
	removed := cart.TotalUnits()

	if err := s.repo.Clear(sessionID); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Error("failed to clear cart")
		s.metrics.RecordOperation(op, resultLabel("", err))
		return ClearResult{}, fmt.Errorf("clear cart: %w", err)
	}

	s.publishEvent(sessionID, eventCartCleared, clearedEventPayload{ItemsRemoved: removed})
	s.metrics.RecordOperation(op, metrics.ResultSuccess)
	return ClearResult{ItemsRemoved: removed}, nil
}

// Count возвращает лёгкую сводку без пересчёта денег.
func (s *Service) Count(_ context.Context, sessionID string) (CountResult, error) {
	if sessionID == "" {
		return CountResult{}, domain.ErrSessionIDRequired
	}

	cart, err := s.loadCart(sessionID, "count")
	if err != nil {
		return CountResult{}, err
	}

	return CountResult{
		TotalItems:         cart.TotalUnits(),
		UniqueProductCount: len(cart.Items),
		IsEmpty:            cart.IsEmpty(),
	}, nil
}

// View возвращает полную read-only проекцию корзины.
func (s *Service) View(_ context.Context, sessionID string) (domain.CartView, error) {
	if sessionID == "" {
		return domain.CartView{}, domain.ErrSessionIDRequired
	}

	cart, err := s.loadCart(sessionID, "view")
	if err != nil {
		return domain.CartView{}, err
	}
	return BuildView(cart), nil
}

// Totals возвращает денежные агрегаты корзины.
func (s *Service) Totals(ctx context.Context, sessionID string) (domain.Totals, error) {
	view, err := s.View(ctx, sessionID)
	if err != nil {
		return domain.Totals{}, err
	}
	return view.Totals, nil
}

// fetchProduct читает снапшот товара, разделяя "нет товара" и недоступность каталога.
func (s *Service) fetchProduct(ctx context.Context, productID, operation string) (domain.Product, error) {
	product, err := s.catalog.Get(ctx, productID)
	if err == nil {
		return product, nil
	}
	if errors.Is(err, domain.ErrProductNotFound) {
		return domain.Product{}, domain.ErrProductNotFound
	}

	s.logger.WithError(err).WithFields(log.Fields{
		"operation":  operation,
		"product_id": productID,
	}).Error("catalog lookup failed")
	if errors.Is(err, domain.ErrCatalogUnavailable) {
		return domain.Product{}, err
	}
	return domain.Product{}, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
}

// runMutation выполняет цикл "читать-изменить-сохранить" под замком сессии,
// повторяя его при конфликте версий. Закрытие mutate вызывается заново на
// каждой попытке и обязано выставлять своё состояние с нуля.
func (s *Service) runMutation(ctx context.Context, sessionID, operation string, mutate func(cart *domain.Cart) (bool, error)) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionIDRequired
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	delay := s.retry.InitialDelay
	for attempt := 1; ; attempt++ {
		cart, err := s.loadCart(sessionID, operation)
		if err != nil {
			return domain.Cart{}, err
		}

		dirty, err := mutate(&cart)
		if err != nil {
			return domain.Cart{}, err
		}
		if !dirty {
			return cart, nil
		}

		cart.UpdatedAt = time.Now().UTC()
		saveErr := s.repo.Save(cart)
		if saveErr == nil {
			// Хранилище инкрементировало версию; выравниваем локальную копию.
			cart.Version++
			return cart, nil
		}

		if !domain.IsVersionConflict(saveErr) {
			s.logger.WithError(saveErr).WithFields(log.Fields{
				"operation":  operation,
				"session_id": sessionID,
			}).Error("failed to save cart")
			return domain.Cart{}, fmt.Errorf("save cart: %w", saveErr)
		}
		if attempt >= s.retry.MaxAttempts {
			s.logger.WithFields(log.Fields{
				"operation":    operation,
				"session_id":   sessionID,
				"max_attempts": s.retry.MaxAttempts,
			}).Error("cart save failed after all retry attempts")
			return domain.Cart{}, fmt.Errorf("save cart: %w", saveErr)
		}

		s.metrics.RecordVersionConflictRetry()
		s.logger.WithFields(log.Fields{
			"operation":  operation,
			"session_id": sessionID,
			"attempt":    attempt,
		}).Warn("cart version conflict, retrying")

		select {
		case <-ctx.Done():
			return domain.Cart{}, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * s.retry.BackoffFactor)
		if delay > s.retry.MaxDelay {
			delay = s.retry.MaxDelay
		}
	}
}

// loadCart возвращает корзину сессии; отсутствующая корзина считается пустой.
func (s *Service) loadCart(sessionID, operation string) (domain.Cart, error) {
	cart, err := s.repo.Get(sessionID)
	if err == nil {
		return cart, nil
	}
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.NewCart(sessionID), nil
	}

	s.logger.WithError(err).WithFields(log.Fields{
		"operation":  operation,
		"session_id": sessionID,
	}).Error("failed to load cart")
	return domain.Cart{}, fmt.Errorf("load cart: %w", err)
}

func (s *Service) failMutation(op string, err error) (MutationResult, error) {
	s.metrics.RecordOperation(op, resultLabel("", err))
	return MutationResult{}, err
}

// clampToStock срезает количество до остатка каталога. Нижняя граница — 1:
// инвариант количества важнее нулевого стока, нулевой остаток проявится при
// Verify как очередное срезание.
func clampToStock(quantity int32, product domain.Product) (int32, bool) {
	if product.ID == "" || !product.StockKnown() {
		return quantity, false
	}
	stock := product.StockLevel()
	if quantity <= stock {
		return quantity, false
	}
	if stock < domain.MinQuantity {
		return domain.MinQuantity, quantity > domain.MinQuantity
	}
	return stock, true
}

// resultLabel переводит исход операции в метку метрики.
func resultLabel(status Status, err error) string {
	if err != nil {
		switch {
		case domain.IsValidation(err), errors.Is(err, domain.ErrSessionIDRequired):
			return metrics.ResultValidation
		case domain.IsNotFound(err):
			return metrics.ResultNotFound
		default:
			return metrics.ResultError
		}
	}
	if status == StatusStockExceeded {
		return metrics.ResultStockExceeded
	}
	return metrics.ResultSuccess
}
