package v1

import (
	"net/http"
	"time"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/cache"
	"freshmart-backend/pkg/utils"
)

const enumsCacheKey = "config:enums"

// ConfigHandler serves the static vocabulary screens need so clients never
// hard-code statuses or policy tables.
type ConfigHandler struct {
	cache    cache.CacheService
	cacheTTL time.Duration
}

func NewConfigHandler(c cache.CacheService, ttl time.Duration) *ConfigHandler {
	return &ConfigHandler{cache: c, cacheTTL: ttl}
}

type enumsResp struct {
	OrderStatuses    []string                       `json:"orderStatuses"`
	PaymentMethods   []string                       `json:"paymentMethods"`
	DocumentTypes    []string                       `json:"documentTypes"`
	PromotionTypes   []string                       `json:"promotionTypes"`
	TransitionTables map[string]map[string][]string `json:"transitionTables"`
}

func (h *ConfigHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.cache.Get(enumsCacheKey); ok {
		if resp, ok := v.(*enumsResp); ok {
			utils.WriteJSON(w, http.StatusOK, resp)
			return
		}
	}

	resp := &enumsResp{
		OrderStatuses: []string{
			domain.OrderStatusPending,
			domain.OrderStatusConfirmed,
			domain.OrderStatusPaid,
			domain.OrderStatusShipped,
			domain.OrderStatusDelivered,
			domain.OrderStatusCanceled,
		},
		PaymentMethods: []string{domain.PaymentMethodCOD, domain.PaymentMethodOnline},
		DocumentTypes:  []string{domain.DocumentTypeReceipt, domain.DocumentTypeIssue},
		PromotionTypes: []string{domain.PromotionTypePercentage, domain.PromotionTypeFixed},
		TransitionTables: domain.TransitionTables(),
	}
	h.cache.Set(enumsCacheKey, resp, h.cacheTTL)
	utils.WriteJSON(w, http.StatusOK, resp)
}
