package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/cart"
	"github.com/vasiliy-maslov/freshcart/internal/order"
	"github.com/vasiliy-maslov/freshcart/internal/product"
	"github.com/vasiliy-maslov/freshcart/internal/user"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		switch fe.Tag() {
		case "required":
			details[field] = fmt.Sprintf("Field '%s' is required", fe.Field())
		case "email":
			details[field] = fmt.Sprintf("Field '%s' must be a valid email", fe.Field())
		case "min", "gte":
			details[field] = fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
		case "max", "lte":
			details[field] = fmt.Sprintf("Field '%s' must be at most %s", fe.Field(), fe.Param())
		case "oneof":
			details[field] = fmt.Sprintf("Field '%s' must be one of: %s", fe.Field(), fe.Param())
		default:
			details[field] = fmt.Sprintf("Field '%s' is invalid", fe.Field())
		}
	}
	return details
}

// parseIDParam treats a malformed id like an unknown one and answers 404.
func parseIDParam(w http.ResponseWriter, raw, notFound string) (uuid.UUID, bool) {
	id, err := uuid.FromString(raw)
	if err != nil {
		log.Warn().Err(err).Str("id", raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusNotFound, notFound)
		return uuid.Nil, false
	}
	return id, true
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden), errors.Is(err, user.ErrAdminSignupDisabled):
		return http.StatusForbidden
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, order.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, product.ErrInvalidProduct),
		errors.Is(err, product.ErrInvalidQuery),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, cart.ErrUnknownUser):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError maps err to a status code. Client errors carry the
// domain message; anything unexpected is logged and answered with fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, code, fallback)
		return
	}
	respondWithError(w, code, clientMessage(err))
}

func clientMessage(err error) string {
	var stockErr *order.InsufficientStockError
	var missingErr *order.ProductNotFoundError
	switch {
	case errors.As(err, &stockErr):
		return stockErr.Error()
	case errors.As(err, &missingErr):
		return missingErr.Error()
	case errors.Is(err, user.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, user.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, product.ErrNotFound):
		return "Product not found"
	case errors.Is(err, order.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, order.ErrForbidden):
		return "Not authorized to view this order"
	case errors.Is(err, user.ErrNotFound):
		return "User not found"
	default:
		return err.Error()
	}
}
