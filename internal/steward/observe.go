// Package steward implements an autopilot for a running game.
// It observes state via the public API, decides on commands by rule,
// and acts via the admin command endpoint.
package steward

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status  Status
	Board   BoardView
	Ledger  []LedgerEntry
	Regions []RegionInfo
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Tick            uint64  `json:"tick"`
	Nodes           int     `json:"nodes"`
	Regions         int     `json:"regions"`
	ProductionSpeed int     `json:"production_speed"`
	CapacityBonus   int     `json:"capacity_bonus"`
	Speed           float64 `json:"speed"`
	Pending         int     `json:"pending_commands"`
}

// BoardView mirrors GET /api/v1/board.
type BoardView struct {
	Nodes    []*board.Node `json:"nodes"`
	Selected board.NodeID  `json:"selected"`
	Bonus    int           `json:"capacity_bonus"`
}

// LedgerEntry mirrors items from GET /api/v1/ledger.
type LedgerEntry struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

// RegionInfo mirrors items from GET /api/v1/regions.
type RegionInfo struct {
	ID          string               `json:"id"`
	DisplayName string               `json:"display_name"`
	Tier        economy.ResourceKind `json:"tier"`
	Portal      board.NodeID         `json:"portal_node"`
	Active      bool                 `json:"active"`
}

// Observer fetches game state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the four public endpoints.
func (o *Observer) Observe(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/board", &snap.Board); err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/ledger", &snap.Ledger); err != nil {
		return nil, fmt.Errorf("fetch ledger: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/regions", &snap.Regions); err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}

	return snap, nil
}

// Ready reports whether the status endpoint answers.
func (o *Observer) Ready(ctx context.Context) bool {
	var st Status
	return o.fetchJSON(ctx, "/api/v1/status", &st) == nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
