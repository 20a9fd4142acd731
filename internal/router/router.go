// Package router validates and normalizes the JSON requests accepted by
// the evaluation server before they reach the engine.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Kind           string         `json:"kind"`
	Params         map[string]any `json:"params"`
	EvaluationDate string         `json:"evaluation_date,omitempty"`
}

// ParseEvaluateRequest validates user input for /v1/evaluate and returns a
// normalized engine call.
func ParseEvaluateRequest(r *http.Request) (moulinette.Params, confstore.Kind, time.Time, error) {
	var req EvaluateRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, "", time.Time{}, err
	}

	kind := confstore.Kind(req.Kind)
	if req.Kind == "" {
		kind = confstore.KindAmenagement
	}
	switch kind {
	case confstore.KindAmenagement, confstore.KindHaie:
	default:
		return nil, "", time.Time{}, fmt.Errorf("unknown evaluation kind %q", req.Kind)
	}

	if len(req.Params) == 0 {
		return nil, "", time.Time{}, errors.New("missing required field: params")
	}

	at, err := parseDate(req.EvaluationDate)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return moulinette.Params(req.Params), kind, at, nil
}

// PlantationRequest is the body of POST /v1/plantation. Exactly one of
// haie_id (a stored hedge set) or hedge_data (an inline document) is
// required.
type PlantationRequest struct {
	Department     string          `json:"department"`
	EvaluationDate string          `json:"evaluation_date,omitempty"`
	HaieID         string          `json:"haie_id,omitempty"`
	HedgeData      json.RawMessage `json:"hedge_data,omitempty"`
}

type PlantationCall struct {
	Department string
	At         time.Time
	HaieID     uuid.UUID
	Data       *hedges.Data
}

func ParsePlantationRequest(r *http.Request) (PlantationCall, error) {
	var req PlantationRequest
	if err := decodeBody(r, &req); err != nil {
		return PlantationCall{}, err
	}
	if req.Department == "" {
		return PlantationCall{}, errors.New("missing required field: department")
	}

	hasID := req.HaieID != ""
	hasData := len(req.HedgeData) > 0
	if hasID == hasData {
		return PlantationCall{}, errors.New("exactly one of haie_id or hedge_data is required")
	}

	at, err := parseDate(req.EvaluationDate)
	if err != nil {
		return PlantationCall{}, err
	}

	call := PlantationCall{Department: req.Department, At: at}
	if hasID {
		id, err := uuid.Parse(req.HaieID)
		if err != nil {
			return PlantationCall{}, fmt.Errorf("invalid haie_id: %w", err)
		}
		call.HaieID = id
		return call, nil
	}

	var d hedges.Data
	if err := json.Unmarshal(req.HedgeData, &d); err != nil {
		return PlantationCall{}, fmt.Errorf("invalid hedge_data: %w", err)
	}
	d.EnsureID()
	call.Data = &d
	return call, nil
}

// ParseHedgesRequest decodes the hedge document posted by the map widget.
// A document without an id gets a fresh one.
func ParseHedgesRequest(r *http.Request) (*hedges.Data, error) {
	var d hedges.Data
	if err := decodeBody(r, &d); err != nil {
		return nil, err
	}
	d.EnsureID()
	return &d, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	at, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid evaluation_date (want YYYY-MM-DD): %w", err)
	}
	return at, nil
}
