package ocpi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/domain"
	"github.com/voltgrid/voltgrid/internal/ports"
)

// RoamingService pushes Charge Detail Records to the roaming clearing
// party over its OCPI-style HTTP endpoint. The sender assigns the CDR
// id; the receiver rejects duplicates.
type RoamingService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

func NewRoamingService(baseURL, token string, log *zap.Logger) ports.RoamingService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "roaming-cdr",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RoamingService{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    breaker,
		log:        log,
	}
}

type cdrPayload struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	PartyID        string    `json:"party_id"`
	StartDateTime  time.Time `json:"start_date_time"`
	EndDateTime    time.Time `json:"end_date_time"`
	ChargeBoxID    string    `json:"charge_box_id"`
	ConnectorID    int       `json:"connector_id"`
	TotalEnergyKWh float64   `json:"total_energy"`
	TotalTimeHours float64   `json:"total_time"`
	TotalCost      float64   `json:"total_cost"`
	Currency       string    `json:"currency"`
	LastUpdated    time.Time `json:"last_updated"`
}

// BuildAndSendCDR assembles the CDR of a completed roamed session and
// posts it to the clearing party. It returns the CDR id it assigned.
func (s *RoamingService) BuildAndSendCDR(ctx context.Context, tenantID string, tx *domain.Transaction, station *domain.ChargingStation) (string, error) {
	if s.baseURL == "" {
		return "", &domain.IntegrationUnavailableError{Integration: "roaming", TenantID: tenantID}
	}
	if tx.Stop == nil {
		return "", fmt.Errorf("roaming: transaction %d has no stop record, cannot build its CDR", tx.ID)
	}

	cdr := cdrPayload{
		ID:             uuid.NewString(),
		SessionID:      tx.OCPIData.SessionID,
		PartyID:        tenantID,
		StartDateTime:  tx.Timestamp,
		EndDateTime:    tx.Stop.Timestamp,
		ChargeBoxID:    station.ID,
		ConnectorID:    tx.ConnectorID,
		TotalEnergyKWh: float64(tx.Stop.TotalConsumptionWh) / 1000,
		TotalTimeHours: float64(tx.Stop.TotalDurationSecs) / 3600,
		TotalCost:      tx.Stop.Price,
		Currency:       tx.Stop.PriceUnit,
		LastUpdated:    time.Now().UTC(),
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.post(ctx, cdr)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", &domain.IntegrationUnavailableError{Integration: "roaming", TenantID: tenantID}
		}
		return "", err
	}

	s.log.Info("CDR pushed to clearing party",
		zap.String("tenant_id", tenantID),
		zap.Int("transaction_id", tx.ID),
		zap.String("cdr_id", cdr.ID),
	)
	return cdr.ID, nil
}

func (s *RoamingService) post(ctx context.Context, cdr cdrPayload) error {
	payload, err := json.Marshal(cdr)
	if err != nil {
		return fmt.Errorf("roaming: marshal CDR: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/cdrs", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("roaming: create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Error("Failed to push CDR", zap.Error(err))
		return fmt.Errorf("roaming: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.log.Error("Clearing party rejected CDR",
			zap.Int("status", resp.StatusCode),
			zap.String("cdr_id", cdr.ID),
		)
		return fmt.Errorf("roaming: clearing party returned status %d", resp.StatusCode)
	}
	return nil
}
