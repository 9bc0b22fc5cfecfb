package mapeditor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"campaign-server/internal/shared/errors"
)

const FormatVersion = "1.0"

type ExportMetadata struct {
	Version   string `json:"version"`
	Created   string `json:"created"`
	CityCount int    `json:"cityCount"`
}

type exportEnvelope struct {
	MapState *ViewState     `json:"mapState"`
	Metadata ExportMetadata `json:"metadata"`
}

// LoadResult is the soft-failure report for imports and loads. Failures are
// never returned as errors past the persistence boundary.
type LoadResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	CityCount int    `json:"cityCount,omitempty"`
}

// Serialize wraps state in the export envelope. The metadata is regenerated on
// every call and is not part of the round trip.
func Serialize(state ViewState, now time.Time) ([]byte, error) {
	state = state.Clone()
	envelope := exportEnvelope{
		MapState: &state,
		Metadata: ExportMetadata{
			Version:   FormatVersion,
			Created:   now.UTC().Format(time.RFC3339),
			CityCount: len(state.Cities),
		},
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, errors.WrapInternal("failed to serialize map state", err)
	}
	return data, nil
}

// Deserialize parses an export envelope and checks the state invariants.
func Deserialize(data []byte) (ViewState, error) {
	var envelope exportEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ViewState{}, errors.WrapValidation("invalid map file", err)
	}
	if envelope.MapState == nil {
		return ViewState{}, errors.Validation("invalid map file: missing mapState")
	}

	state := *envelope.MapState
	if err := normalizeState(&state); err != nil {
		return ViewState{}, err
	}
	return state, nil
}

func (e *Editor) Export() ([]byte, error) {
	return Serialize(e.State(), e.opts.Now())
}

// Import replaces the current state with the file contents and records a
// single "Load" entry. On failure the state is left untouched.
func (e *Editor) Import(data []byte) LoadResult {
	state, err := Deserialize(data)
	if err != nil {
		e.logger.Warn("Map import rejected", "error", err)
		return LoadResult{Success: false, Error: err.Error()}
	}

	if err := e.apply("Load", func(s *ViewState) error {
		*s = state
		return nil
	}); err != nil {
		e.logger.Warn("Map import rejected", "error", err)
		return LoadResult{Success: false, Error: err.Error()}
	}

	return LoadResult{Success: true, CityCount: len(state.Cities)}
}

// SaveTo writes the current state to kv under key.
func (e *Editor) SaveTo(ctx context.Context, kv KVStore, key string) error {
	data, err := e.Export()
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return errors.WrapExternal("failed to save map", err)
	}
	e.logger.Debug("Map saved", "key", key, "bytes", len(data))
	return nil
}

// LoadFrom restores the state saved under key. A missing key or a value
// without a mapState is reported as no saved data.
func (e *Editor) LoadFrom(ctx context.Context, kv KVStore, key string) LoadResult {
	data, err := kv.Get(ctx, key)
	if stderrors.Is(err, ErrKeyNotFound) {
		return LoadResult{Success: false, Error: "no saved data found"}
	}
	if err != nil {
		e.logger.Error("Failed to read saved map", "key", key, "error", err)
		return LoadResult{Success: false, Error: "failed to read saved map"}
	}

	if _, err := Deserialize(data); err != nil {
		e.logger.Warn("Saved map has an unexpected shape", "key", key, "error", err)
		return LoadResult{Success: false, Error: "no saved data found"}
	}
	return e.Import(data)
}
