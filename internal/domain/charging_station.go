package domain

import (
	"time"
)

type ConnectorStatus string

const (
	ConnectorStatusAvailable ConnectorStatus = "Available"
	ConnectorStatusCharging  ConnectorStatus = "Charging"
	ConnectorStatusFaulted   ConnectorStatus = "Faulted"
	ConnectorStatusOccupied  ConnectorStatus = "Occupied"
)

// Connector is one physical plug of a charging station.
// CurrentTransactionID is a weak back-reference to the transaction
// occupying the connector: a lookup index, not an ownership edge.
// Zero means unoccupied.
type Connector struct {
	ID                   int             `json:"connector_id"`
	Status               ConnectorStatus `json:"status"`
	Type                 string          `json:"type,omitempty"`
	PowerKW              float64         `json:"power_kw,omitempty"`
	CurrentTransactionID int             `json:"current_transaction_id,omitempty"`
	CurrentTagID         string          `json:"current_tag_id,omitempty"`
}

// ChargingStation owns the live connector-to-transaction bindings.
type ChargingStation struct {
	TenantID   string      `json:"tenant_id" gorm:"primaryKey"`
	ID         string      `json:"id" gorm:"primaryKey"`
	Vendor     string      `json:"vendor,omitempty"`
	Model      string      `json:"model,omitempty"`
	SiteID     string      `json:"site_id,omitempty" gorm:"index"`
	Issuer     bool        `json:"issuer"`
	Connectors []Connector `json:"connectors" gorm:"serializer:json"`
	LastSeen   time.Time   `json:"last_seen"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ConnectorByID returns the connector with the given id, or nil.
func (s *ChargingStation) ConnectorByID(id int) *Connector {
	for i := range s.Connectors {
		if s.Connectors[i].ID == id {
			return &s.Connectors[i]
		}
	}
	return nil
}

// ReleaseConnector clears the transaction binding of a connector. It
// reports whether a binding was actually cleared so callers can decide
// whether the station needs persisting.
func (s *ChargingStation) ReleaseConnector(connectorID int) bool {
	c := s.ConnectorByID(connectorID)
	if c == nil || c.CurrentTransactionID == 0 {
		return false
	}
	c.CurrentTransactionID = 0
	c.CurrentTagID = ""
	c.Status = ConnectorStatusAvailable
	return true
}
