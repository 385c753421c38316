package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestKindOf(t *testing.T) {
	err := Validation("bad input")
	if KindOf(err) != KindValidation {
		t.Errorf("expected validation kind, got %s", KindOf(err))
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindValidation {
		t.Error("expected kind to survive wrapping")
	}

	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for plain error")
	}
}

func TestInsufficientStock_Detail(t *testing.T) {
	err := InsufficientStock("Paracetamol 500mg", 20, 8)

	if err.Kind != KindInsufficientStock {
		t.Errorf("expected insufficient_stock, got %s", err.Kind)
	}
	if err.Detail["requested"] != 20 {
		t.Errorf("expected requested 20, got %v", err.Detail["requested"])
	}
	if err.Detail["available"] != 8 {
		t.Errorf("expected available 8, got %v", err.Detail["available"])
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("patient", "1042")
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}
	if err.Detail["ref"] != "1042" {
		t.Errorf("expected ref detail, got %v", err.Detail["ref"])
	}
}

func TestTxFailure_Unwrap(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := TxFailure(cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if KindOf(err) != KindTxFailure {
		t.Errorf("expected tx_failure, got %s", KindOf(err))
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInsufficientStock, http.StatusConflict},
		{KindTxFailure, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.kind); got != tc.want {
			t.Errorf("statusFor(%s): expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}

func TestHTTPErrorHandler_AppError(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/bills/pharmacy", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger)
	handler(InsufficientStock("Ibuprofen 400mg", 10, 3), c)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != false {
		t.Error("expected success=false")
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["kind"] != "insufficient_stock" {
		t.Errorf("expected insufficient_stock kind, got %v", errObj["kind"])
	}
	detail := errObj["detail"].(map[string]interface{})
	if detail["available"] != float64(3) {
		t.Errorf("expected available 3 in detail, got %v", detail["available"])
	}
}

func TestHTTPErrorHandler_UnknownError(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger)
	handler(errors.New("pq: connection refused"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["message"] != "internal server error" {
		t.Errorf("expected opaque message, got %v", errObj["message"])
	}
}

func TestHTTPErrorHandler_EchoHTTPError(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HTTPErrorHandler(logger)
	handler(echo.NewHTTPError(http.StatusNotFound, "route not found"), c)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
