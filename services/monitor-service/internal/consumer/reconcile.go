package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/floorlinehq/floorline/services/monitor-service/internal/board"
)

// Reconcile replaces the board with the engine's full active set for today.
// Run once on startup and again after any suspected gap; events missed
// while disconnected are never replayed, only reconciled away.
func Reconcile(ctx context.Context, client *http.Client, baseURL string, b *board.Board) error {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/public/board", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("board fetch returned %d", resp.StatusCode)
	}

	var payload struct {
		Date         string `json:"date"`
		Appointments []struct {
			AppointmentID string `json:"appointment_id"`
			CustomerName  string `json:"customer_name"`
			ProviderID    string `json:"provider_id"`
			SlotDate      string `json:"slot_date"`
			SlotTime      string `json:"slot_time"`
			Status        string `json:"status"`
		} `json:"appointments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	entries := make([]board.Entry, 0, len(payload.Appointments))
	for _, a := range payload.Appointments {
		entries = append(entries, board.Entry{
			AppointmentID: a.AppointmentID,
			ProviderID:    a.ProviderID,
			SlotDate:      a.SlotDate,
			SlotTime:      a.SlotTime,
			Status:        a.Status,
			CustomerName:  a.CustomerName,
		})
	}
	b.Load(entries)
	return nil
}
