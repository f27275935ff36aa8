package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// genericRetryMessage hides infrastructure details from visitors.
const genericRetryMessage = "Something went wrong. Please try again later."

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidPage),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrNoItems),
		errors.Is(err, payment.ErrInvalidPaymentMethod),
		errors.Is(err, payment.ErrMissingCardNumber):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrPaymentExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithMappedError sends the sentinel's message for expected
// conditions and the generic retry message for everything else.
func respondWithMappedError(w http.ResponseWriter, err error) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("handler: internal error")
		respondWithError(w, code, genericRetryMessage)
		return
	}
	respondWithError(w, code, err.Error())
}
